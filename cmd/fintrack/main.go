package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/query"
	"fintrack/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	cacheSweepEvery = time.Minute
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	be := cli.OpenBackend(ctx, cfg, logger)
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err.Error())
		}
	}()

	// Events are optional: without a broker the server still serves writes.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err.Error())
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	snapshots := cache.NewLRUCache[[]core.Transaction](cfg.SnapshotCacheSize, cfg.SnapshotCacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(snapshots)
	caches.StartCleanup(cacheSweepEvery)
	defer caches.Stop()

	repo := be.Repository
	transactions := services.NewTransactionService(repo, query.NewEngine(logger), publisher, snapshots, logger)
	loans := services.NewLoanService(repo, logger)
	goals := services.NewGoalService(repo, logger)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		OwnerHeader:        cfg.OwnerHeader,
		Currency:           cfg.Currency,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Deps{
		Transactions: transactions,
		Loans:        loans,
		Goals:        goals,
		Overview:     services.NewOverviewer(transactions, loans, goals),
		Ready:        repo,
	}, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
	}()

	logger.Info("Starting fintrack server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		cancel()
		be.Cleanup()
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
