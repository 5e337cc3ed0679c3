/*
main.go - HTTP server entry point

PURPOSE:
  Initializes and starts the PAYE take-home pay API server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load config (.env, environment), then apply command-line flags
  2. Build the tax-year registry (embedded tables + optional directory)
  3. Initialize SQLite store
  4. Create API handler and router
  5. Start the retention scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (override the environment):
  -addr       Listen address (PAYE_ADDR)
  -db         SQLite database path (PAYE_DB); ":memory:" for in-memory
  -tax-years  Directory of extra YAML tables (PAYE_TAX_YEARS_DIR)
  -env        .env file to read (default: .env)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler and close the database
  4. Exit

EXAMPLES:
  ./server -db="./data/paye.db"
  ./server -db=":memory:" -addr=":3000"
  PAYE_TAX_YEARS_DIR=./tables ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/paye-engine/api"
	"github.com/warp/paye-engine/config"
	"github.com/warp/paye-engine/engine"
	"github.com/warp/paye-engine/store/sqlite"
	"github.com/warp/paye-engine/taxyear"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	envFile := flag.String("env", "", "path to .env file (default .env)")
	addr := flag.String("addr", "", "HTTP listen address (overrides PAYE_ADDR)")
	dbPath := flag.String("db", "", "SQLite database path (overrides PAYE_DB)")
	tablesDir := flag.String("tax-years", "", "directory of tax-year YAML tables (overrides PAYE_TAX_YEARS_DIR)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *tablesDir != "" {
		cfg.TaxYearsDir = *tablesDir
	}

	logger := cfg.Logger(os.Stdout)
	slog.SetDefault(logger)

	// Tax years
	registry, err := loadRegistry(cfg.TaxYearsDir)
	if err != nil {
		return err
	}
	logger.Info("tax years loaded", "years", registry.Years(), "dir", cfg.TaxYearsDir)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(engine.New(registry), store, logger)
	router := api.NewRouter(handler, cfg.AllowedOrigins)

	retention := api.NewRetentionScheduler(store, cfg.HistoryRetention, logger)
	retention.Start()
	defer retention.Stop()

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "db", cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// loadRegistry merges the embedded tables with any in dir; a year present in
// both uses the directory's table.
func loadRegistry(dir string) (*taxyear.Registry, error) {
	configs, err := taxyear.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("embedded tax years: %w", err)
	}
	if dir != "" {
		extra, err := taxyear.LoadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("tax years in %s: %w", dir, err)
		}
		configs = append(configs, extra...)
	}
	return taxyear.NewRegistry(configs...)
}
