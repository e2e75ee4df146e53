// Package cli provides common CLI initialization utilities shared by
// cmd/fintrack, cmd/fintrack-worker and cmd/fintrack-calc.
package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

// LoadEnvFile loads .env for local development. A missing file is fine;
// any other problem is returned.
func LoadEnvFile(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// LoadAndValidateConfig loads .env and the configuration, then sets up the
// process logger for component. It exits the process on invalid config.
func LoadAndValidateConfig(component string) (*config.Config, *log.Logger) {
	envErr := LoadEnvFile()
	cfg := config.Load()

	logger := log.New(cfg.LoggerConfig(component))
	log.SetDefault(logger)

	if envErr != nil {
		logger.Warn("Ignoring unreadable .env file", log.FieldError, envErr.Error())
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg, logger
}

// OpenBackend creates the configured repository or exits the process.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
