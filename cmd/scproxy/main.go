// SmartCover Proxy - Read-Only Telemetry Gateway
//
// This is the main entry point for the SmartCover proxy. The proxy sits
// between internal tooling and the SmartCover sewer telemetry API:
// callers authenticate against the proxy with short-lived bearer tokens,
// and the proxy forwards read-only requests upstream using a single
// long-lived operator credential that never leaves this process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"smartcover-proxy/internal/api"
	"smartcover-proxy/internal/audit"
	"smartcover-proxy/internal/auth"
	"smartcover-proxy/internal/infrastructure/config"
	"smartcover-proxy/internal/infrastructure/database"
	"smartcover-proxy/internal/infrastructure/logging"
	"smartcover-proxy/internal/observability/metrics"
	"smartcover-proxy/internal/smartcover"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting SmartCover proxy",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Register Prometheus collectors
	metrics.Init()

	// Open the audit database (optional)
	var auditRepo audit.Repository
	if cfg.Audit.Enabled {
		db, dbErr := database.Open(ctx, cfg.Audit.Path)
		if dbErr != nil {
			return fmt.Errorf("opening audit database: %w", dbErr)
		}
		defer func() {
			log.Info("closing audit database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing audit database", "error", closeErr)
			}
		}()

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("migrating audit database: %w", migrateErr)
		}

		auditRepo = audit.NewSQLiteRepository(db.DB)
		log.Info("audit trail enabled", "path", db.Path())
	} else {
		log.Info("audit trail disabled")
	}

	// Initialise the token service
	tokenService, err := auth.NewService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("initialising token service: %w", err)
	}
	log.Info("token service initialised", "ttl", tokenService.TTL())

	// Initialise the upstream client
	upstream, err := smartcover.New(cfg.Upstream, log.With("component", "smartcover"))
	if err != nil {
		return fmt.Errorf("initialising upstream client: %w", err)
	}
	log.Info("upstream client initialised", "base_url", cfg.Upstream.BaseURL)

	// Start the API server
	server, err := api.New(api.Deps{
		Config:    cfg.API,
		Logger:    log.With("component", "api"),
		Auth:      tokenService,
		Upstream:  upstream,
		AuditRepo: auditRepo,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("SmartCover proxy stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SCPROXY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SCPROXY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
