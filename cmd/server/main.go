/*
main.go - HTTP server entry point

PURPOSE:
  Starts the payments engine behind the REST API. Handles configuration,
  dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load the YAML config
  2. Build the zap logger at the configured level
  3. Build stores and engine behind the API handler
  4. Start the retention sweeper (if configured)
  5. Serve until SIGINT/SIGTERM, then drain and stop

COMMAND-LINE FLAGS:
  -config  YAML config file path; a missing file falls back to defaults
  -addr    Listen address override, e.g. :9090

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the retention sweeper
  4. Close the sqlite store, if one is open

EXAMPLES:
  # Defaults: memory backend on :8080
  ./server

  # File config with a listen override
  ./server -config=./server.yaml -addr=:3000

SEE ALSO:
  - config/config.go: File format and defaults
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/warp/payments-engine/api"
	"github.com/warp/payments-engine/config"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file path")
	addr := flag.String("addr", "", "listen address override")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	// Initialize stores and engine
	handler, err := api.NewHandler(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize stores", zap.Error(err))
	}
	defer handler.Close()

	sweeper := api.NewSweeper(handler, cfg.SweepInterval, logger)
	sweeper.Start()

	router := api.NewRouter(handler, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Addr),
			zap.String("backend", cfg.StoreBackend),
			zap.Int("retention_max_entries", cfg.RetentionMaxEntries))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	sweeper.Stop()
	logger.Info("server stopped")
}

func newLogger(level zapcore.Level) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
