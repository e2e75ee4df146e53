package main

import (
	"context"
	"errors"
	"os"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/worker"
)

type mirror interface {
	sheets.TransactionMirror
	sheets.TransactionReader
}

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	logger.Info("Starting fintrack-worker", log.FieldOperation, log.OpStartup)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	be := cli.OpenBackend(ctx, cfg, logger)
	defer be.Cleanup()

	m, err := openMirror(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
		be.Cleanup()
		os.Exit(1)
	}
	syncWorker := worker.NewSyncWorker(be.Repository, m, m, logger)

	var wg sync.WaitGroup
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
			be.Cleanup()
			os.Exit(1)
		}
		defer client.Close()
		client.SetPrefetch(cfg.SyncBatchSize)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := client.ConsumeTransactionEvents(ctx, syncWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err.Error())
				cancel()
			}
		}()
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided, running reconcile only")
	}

	if len(cfg.ReconcileOwners) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			syncWorker.RunPeriodicReconcile(ctx, cfg.ReconcileOwners, cfg.SyncInterval)
		}()
	} else {
		logger.Info("Periodic reconcile disabled - no RECONCILE_OWNERS provided")
	}

	<-ctx.Done()
	wg.Wait()
	logger.Info("Worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}

// openMirror returns the Google Sheets mirror when a spreadsheet is
// configured, else an in-process one.
func openMirror(ctx context.Context, cfg *config.Config, logger *log.Logger) (mirror, error) {
	if !cfg.SheetsEnabled() {
		logger.Warn("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, mirroring in memory")
		return memory.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
