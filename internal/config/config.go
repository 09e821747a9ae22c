// Package config loads runtime configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings. Per-owner compliance settings live
// in the settings store, not here.
type Config struct {
	Address      string
	Debug        bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LogLevel     string

	DatabaseDialect string
	DatabaseDSN     string

	// SettingsBackend is one of sql, redis or memory
	SettingsBackend  string
	RedisURL         string
	SettingsCacheTTL time.Duration

	MailgunDomain string
	MailgunAPIKey string
	SenderEmail   string
	SenderName    string
	EmailSubject  string

	WebserviceEndpoint    string
	WebserviceAuthType    string
	WebserviceAPIKey      string
	WebserviceAccessToken string
	WebserviceCertificate string
	WebserviceRate        float64
	WebserviceBurst       int

	SignatureEndpoint string
	SignatureAPIKey   string

	BatchLimit int
}

// Load reads envFile when it exists (".env" when empty), then the process
// environment. Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{
		Address:      getEnv("EINVOICE_ADDRESS", ":8080"),
		Debug:        getEnvAsBool("EINVOICE_DEBUG", false),
		ReadTimeout:  getEnvAsDuration("EINVOICE_READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvAsDuration("EINVOICE_WRITE_TIMEOUT", 2*time.Minute),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		DatabaseDialect: getEnv("DATABASE_DIALECT", "sqlite"),
		DatabaseDSN:     getEnv("DATABASE_DSN", "einvoice.db"),

		SettingsBackend:  strings.ToLower(getEnv("SETTINGS_BACKEND", "sql")),
		RedisURL:         getEnv("REDIS_URL", ""),
		SettingsCacheTTL: getEnvAsDuration("SETTINGS_CACHE_TTL", 5*time.Minute),

		MailgunDomain: getEnv("MAILGUN_DOMAIN", ""),
		MailgunAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),
		SenderEmail:   getEnv("SENDER_EMAIL", ""),
		SenderName:    getEnv("SENDER_NAME", "E-Rechnung"),
		EmailSubject:  getEnv("EMAIL_SUBJECT", ""),

		WebserviceEndpoint:    getEnv("WEBSERVICE_ENDPOINT", ""),
		WebserviceAuthType:    getEnv("WEBSERVICE_AUTH_TYPE", ""),
		WebserviceAPIKey:      getEnv("WEBSERVICE_API_KEY", ""),
		WebserviceAccessToken: getEnv("WEBSERVICE_ACCESS_TOKEN", ""),
		WebserviceCertificate: getEnv("WEBSERVICE_CERTIFICATE", ""),
		WebserviceRate:        getEnvAsFloat("WEBSERVICE_RATE", 10),
		WebserviceBurst:       getEnvAsInt("WEBSERVICE_BURST", 10),

		SignatureEndpoint: getEnv("SIGNATURE_ENDPOINT", ""),
		SignatureAPIKey:   getEnv("SIGNATURE_API_KEY", ""),

		BatchLimit: getEnvAsInt("BATCH_LIMIT", 4),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	switch c.SettingsBackend {
	case "sql", "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("SETTINGS_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown SETTINGS_BACKEND %q", c.SettingsBackend)
	}
	if c.BatchLimit < 1 {
		return fmt.Errorf("BATCH_LIMIT must be positive, got %d", c.BatchLimit)
	}
	return nil
}

// MailgunEnabled reports whether email transmission can be configured
func (c *Config) MailgunEnabled() bool {
	return c.MailgunDomain != "" && c.MailgunAPIKey != "" && c.SenderEmail != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}
