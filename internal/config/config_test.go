package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, "sqlite", cfg.DatabaseDialect)
	assert.Equal(t, "sql", cfg.SettingsBackend)
	assert.Equal(t, 5*time.Minute, cfg.SettingsCacheTTL)
	assert.Equal(t, 4, cfg.BatchLimit)
	assert.False(t, cfg.MailgunEnabled())
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"EINVOICE_ADDRESS=:9090\n"+
			"SETTINGS_CACHE_TTL=30s\n"+
			"MAILGUN_DOMAIN=mg.example.com\n"+
			"MAILGUN_PRIVATE_API_KEY=key\n"+
			"SENDER_EMAIL=rechnung@example.com\n"+
			"BATCH_LIMIT=8\n"), 0o600))

	t.Setenv("BATCH_LIMIT", "2")
	t.Cleanup(func() {
		for _, key := range []string{"EINVOICE_ADDRESS", "SETTINGS_CACHE_TTL", "MAILGUN_DOMAIN", "MAILGUN_PRIVATE_API_KEY", "SENDER_EMAIL"} {
			_ = os.Unsetenv(key)
		}
	})

	cfg, err := config.Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Address)
	assert.Equal(t, 30*time.Second, cfg.SettingsCacheTTL)
	assert.Equal(t, 2, cfg.BatchLimit)
	assert.True(t, cfg.MailgunEnabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"sql backend", config.Config{SettingsBackend: "sql", BatchLimit: 1}, false},
		{"redis without url", config.Config{SettingsBackend: "redis", BatchLimit: 1}, true},
		{"redis with url", config.Config{SettingsBackend: "redis", RedisURL: "redis://localhost:6379", BatchLimit: 1}, false},
		{"unknown backend", config.Config{SettingsBackend: "etcd", BatchLimit: 1}, true},
		{"zero batch limit", config.Config{SettingsBackend: "memory"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
