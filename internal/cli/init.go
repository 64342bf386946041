// Package cli provides common CLI initialization utilities shared by
// cmd/ledgerbot and cmd/ledger-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ledgerbot/internal/config"
	"ledgerbot/internal/log"
)

// SetupLogger initializes structured logging from LOG_LEVEL and LOG_FORMAT.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(component string) *log.Logger {
	level, levelErr := log.ParseLevel(os.Getenv("LOG_LEVEL"))

	cfg := log.DefaultConfig()
	cfg.Level = level
	cfg.Component = component
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = format
	}

	logger := log.New(cfg)
	log.SetDefault(logger)
	if levelErr != nil {
		logger.Warn("Invalid LOG_LEVEL, using info", log.FieldError, levelErr)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it with validate.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger, validate func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals or by the
// returned cancel func, and a channel that is closed once cleanup has run or
// timed out.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, context.CancelFunc, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}
		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, cancel, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
