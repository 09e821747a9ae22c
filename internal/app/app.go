// Package app wires the stores, transmitters and orchestrator from the
// process configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/rezonia/einvoice/internal/compliance"
	"github.com/rezonia/einvoice/internal/compliance/metrics"
	"github.com/rezonia/einvoice/internal/config"
	"github.com/rezonia/einvoice/internal/model"
	"github.com/rezonia/einvoice/internal/signature"
	"github.com/rezonia/einvoice/internal/signature/sigtest"
	"github.com/rezonia/einvoice/internal/store"
	"github.com/rezonia/einvoice/internal/transmit"
)

// Settings reads and writes per-owner configuration
type Settings interface {
	Load(ctx context.Context, ownerID string) (model.ComplianceConfiguration, error)
	Put(ctx context.Context, cfg model.ComplianceConfiguration) error
}

// App holds the wired service graph
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	Registry     *prometheus.Registry
	Artifacts    compliance.ArtifactStore
	Settings     Settings
	Transmitter  *transmit.Router
	Orchestrator *compliance.Orchestrator

	closers []func() error
}

// New builds the application. Close releases database and redis handles.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := a.openStores(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Transmitter = a.newTransmitter()

	opts := []compliance.Option{
		compliance.WithLogger(logger),
		compliance.WithMetrics(metrics.NewWith(a.Registry)),
		compliance.WithTransmitter(a.Transmitter),
	}
	if signer := a.newSignatureSource(); signer != nil {
		opts = append(opts, compliance.WithSignatureSource(signer))
	}

	orchestrator, err := compliance.New(a.Settings, a.Artifacts, opts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Orchestrator = orchestrator
	return a, nil
}

func (a *App) openStores(ctx context.Context) error {
	dialect, err := store.ParseDialect(a.Config.DatabaseDialect)
	if err != nil {
		return err
	}
	db, err := store.Open(dialect, a.Config.DatabaseDSN)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, db.Close)

	artifacts := store.NewSQL(db, dialect)
	if err := artifacts.Migrate(ctx); err != nil {
		return err
	}
	a.Artifacts = artifacts

	backend, err := a.settingsBackend(db, dialect)
	if err != nil {
		return err
	}
	if a.Config.SettingsCacheTTL > 0 {
		a.Settings = newCachedSettings(backend, a.Config)
	} else {
		a.Settings = backend
	}

	a.Logger.Info("stores ready",
		"dialect", dialect,
		"settings_backend", a.Config.SettingsBackend,
	)
	return nil
}

func (a *App) settingsBackend(db *sql.DB, dialect store.Dialect) (Settings, error) {
	switch a.Config.SettingsBackend {
	case "memory":
		return store.NewMemorySettings(), nil
	case "redis":
		opts, err := redis.ParseURL(a.Config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		a.closers = append(a.closers, client.Close)
		return store.NewRedisSettings(client), nil
	default:
		// the artifact store's Migrate already created the settings table
		return store.NewSQLSettings(db, dialect), nil
	}
}

func (a *App) newTransmitter() *transmit.Router {
	router := transmit.NewRouter()

	if a.Config.MailgunEnabled() {
		mg := mailgun.NewMailgun(a.Config.MailgunDomain, a.Config.MailgunAPIKey)
		from := fmt.Sprintf("%s <%s>", a.Config.SenderName, a.Config.SenderEmail)
		router.Handle(model.MethodEmail, transmit.NewEmail(mg, from,
			transmit.WithSubject(a.Config.EmailSubject),
			transmit.WithEmailLogger(a.Logger),
		))
	} else {
		a.Logger.Warn("mailgun configuration incomplete, email transmission disabled")
	}

	router.Handle(model.MethodWebservice, transmit.NewWebservice(a.Config.WebserviceEndpoint,
		transmit.WithCredentials(transmit.Credentials{
			Type:        transmit.AuthType(a.Config.WebserviceAuthType),
			APIKey:      a.Config.WebserviceAPIKey,
			AccessToken: a.Config.WebserviceAccessToken,
			Certificate: a.Config.WebserviceCertificate,
		}),
		transmit.WithRateLimit(rate.Limit(a.Config.WebserviceRate), a.Config.WebserviceBurst),
	))
	return router
}

func (a *App) newSignatureSource() signature.Source {
	if a.Config.SignatureEndpoint != "" {
		return signature.NewHTTPSource(a.Config.SignatureEndpoint, signature.WithAPIKey(a.Config.SignatureAPIKey))
	}
	if a.Config.Debug {
		a.Logger.Warn("no signature endpoint configured, using test signature records")
		return sigtest.New(model.SignatureSettings{})
	}
	return nil
}

// Close releases held connections
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// cachedSettings caches loads and invalidates on write
type cachedSettings struct {
	*store.CachedSettings
	backend Settings
}

func newCachedSettings(backend Settings, cfg *config.Config) *cachedSettings {
	return &cachedSettings{
		CachedSettings: store.NewCachedSettings(backend, cfg.SettingsCacheTTL),
		backend:        backend,
	}
}

func (c *cachedSettings) Put(ctx context.Context, cfg model.ComplianceConfiguration) error {
	if err := c.backend.Put(ctx, cfg); err != nil {
		return err
	}
	c.Invalidate(cfg.OwnerID)
	return nil
}
