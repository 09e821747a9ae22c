package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice/internal/app"
	"github.com/rezonia/einvoice/internal/config"
	"github.com/rezonia/einvoice/internal/logger"
	"github.com/rezonia/einvoice/internal/server"
)

var (
	serverAddr   string
	serverDebug  bool
	readTimeout  time.Duration
	writeTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for generating and checking e-invoices.

The API provides endpoints for:
  - POST /api/v1/generate                 - Generate one invoice document
  - POST /api/v1/generate/batch           - Generate several invoices in parallel
  - POST /api/v1/validate                 - Validate a CII or UBL document
  - POST /api/v1/convert                  - Convert between CII and UBL
  - POST /api/v1/embed                    - Attach a document to a PDF
  - POST /api/v1/check                    - Check statutory invoice contents
  - POST /api/v1/score                    - Score a compliance configuration
  - GET  /api/v1/artifacts/:id            - Fetch a stored artifact
  - GET  /api/v1/owners/:owner/artifacts  - List artifacts of an owner
  - GET  /api/v1/owners/:owner/settings   - Read owner settings
  - PUT  /api/v1/owners/:owner/settings   - Replace owner settings
  - GET  /api/v1/owners/:owner/score      - Score the stored owner settings
  - GET  /metrics                         - Prometheus metrics
  - GET  /health                          - Health check

Storage, transmission and signing are configured from the environment
(see .env.example). Flags override the corresponding variables.

Examples:
  # Start server on the configured address
  einvoice serve

  # Start on a custom port in debug mode
  einvoice serve --address :9090 --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address (env: EINVOICE_ADDRESS)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode (env: EINVOICE_DEBUG)")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 0, "HTTP read timeout (env: EINVOICE_READ_TIMEOUT)")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 0, "HTTP write timeout (env: EINVOICE_WRITE_TIMEOUT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if serverAddr != "" {
		cfg.Address = serverAddr
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = serverDebug
	}
	if readTimeout > 0 {
		cfg.ReadTimeout = readTimeout
	}
	if writeTimeout > 0 {
		cfg.WriteTimeout = writeTimeout
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logger.Init(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	srv := server.NewServer(&server.Config{
		Address:      cfg.Address,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Debug:        cfg.Debug,
		BatchLimit:   cfg.BatchLimit,
	}, server.Services{
		Orchestrator: a.Orchestrator,
		Artifacts:    a.Artifacts,
		Settings:     a.Settings,
		Gatherer:     a.Registry,
		Logger:       log,
	})

	log.Info("starting server",
		"address", cfg.Address,
		"database", cfg.DatabaseDialect,
		"settings", cfg.SettingsBackend,
		"email", cfg.MailgunEnabled(),
	)

	if err := srv.Run(ctx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
