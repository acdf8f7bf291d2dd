/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the medication tracking server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from environment
  2. Configure structured logging
  3. Initialize SQLite store
  4. Start the notification dispatcher
  5. Wire the service, handler, and router
  6. Start the low-stock sweep
  7. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections (30s drain)
  2. Stop the sweep and the dispatcher (drains the queue)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  DB_PATH=./data/medtrack.db ./server

  # Run with in-memory database
  DB_PATH=:memory: ./server

  # Run on different port
  PORT=3000 ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/medtrack-engine/api"
	"github.com/warp/medtrack-engine/config"
	"github.com/warp/medtrack-engine/medicine"
	"github.com/warp/medtrack-engine/notify"
	"github.com/warp/medtrack-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	// Notification pipeline
	dispatcher := notify.NewDispatcher(
		&notify.LogSender{Log: log},
		cfg.NotifyWorkers, cfg.NotifyQueue, log)
	dispatcher.Start()
	defer dispatcher.Stop()

	// Domain service and HTTP surface
	service := medicine.NewService(store, store, dispatcher, log)
	handler := api.NewHandler(service, store, log)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	// Background low-stock sweep
	sweep := api.NewStockSweep(store, service, cfg.StockSweepInterval, log)
	sweep.Start()
	defer sweep.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", cfg.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.IsProduction() {
		return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	}
	out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
