package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"cafeledger/internal/amqp"
	"cafeledger/internal/cli"
	"cafeledger/internal/config"
	"cafeledger/internal/log"
	"cafeledger/internal/sheets"
	gsheet "cafeledger/internal/sheets/google"
	mem "cafeledger/internal/sheets/memory"
	"cafeledger/internal/worker"

	"golang.org/x/sync/errgroup"
)

const statsInterval = 5 * time.Minute

func main() {
	dryRun := flag.Bool("dry-run", false, "mirror into process memory instead of Google Sheets")
	flag.Parse()

	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	if !*dryRun {
		if err := cfg.ValidateMirror(); err != nil {
			logger.Error("Mirror configuration invalid", log.FieldError, err)
			os.Exit(1)
		}
	} else if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required")
		os.Exit(1)
	}

	logger.Info("Starting ledger-mirror", "dry_run", *dryRun)

	mirror, err := openMirror(cfg, logger, *dryRun)
	if err != nil {
		logger.Error("Failed to initialize mirror", log.FieldError, err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewMirrorWorker(mirror, logger)
	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Consume(gctx, w.Handle)
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				applied, failed := w.Stats()
				logger.Info("Mirror stats", "applied", applied, "failed", failed)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	applied, failed := w.Stats()
	logger.Info("ledger-mirror stopped", "applied", applied, "failed", failed)
}

func openMirror(cfg *config.Config, logger *log.Logger, dryRun bool) (sheets.Mirror, error) {
	if dryRun {
		return mem.New(), nil
	}
	return gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		OAuthClientJSON:    cfg.GoogleOAuthClientJSON,
		OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
	}, logger)
}
