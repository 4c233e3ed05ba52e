package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/warehouse-directory/internal/adapter/fallback"
	httpadapter "github.com/couchcryptid/warehouse-directory/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/warehouse-directory/internal/adapter/kafka"
	"github.com/couchcryptid/warehouse-directory/internal/adapter/sheets"
	"github.com/couchcryptid/warehouse-directory/internal/config"
	"github.com/couchcryptid/warehouse-directory/internal/directory"
	"github.com/couchcryptid/warehouse-directory/internal/domain"
	"github.com/couchcryptid/warehouse-directory/internal/loader"
	"github.com/couchcryptid/warehouse-directory/internal/observability"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	sheetURL := cfg.SheetURL
	if sheetURL == "" {
		sheetURL = sheets.PublishedCSVURL(cfg.SheetHost, cfg.SpreadsheetID, cfg.SheetName)
	}
	client := sheets.NewClient(sheetURL, cfg.SheetFetchTimeout, logger, metrics)

	var rows []domain.RawRow
	if cfg.FallbackFile != "" {
		rows, err = fallback.LoadFile(cfg.FallbackFile)
		if err != nil {
			logger.Error("failed to load fallback file", "path", cfg.FallbackFile, "error", err)
			os.Exit(1)
		}
		logger.Info("fallback table loaded from file", "path", cfg.FallbackFile, "records", len(rows))
	}

	ld := loader.New(client, rows, logger, metrics)

	// Snapshot feed (enabled via KAFKA_BROKERS). The interface stays nil when
	// disabled so the directory skips publishing.
	var publisher directory.Publisher
	var writer *kafkaadapter.Writer
	if cfg.FeedEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("snapshot feed enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("snapshot feed disabled")
	}

	dir := directory.New(ld, publisher, logger, metrics, directory.WithInterval(cfg.RefreshInterval))
	srv := httpadapter.NewServer(cfg.HTTPAddr, dir, cfg.ManualRefreshPerMinute, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("warehouse directory starting", "sheet_url", client.URL())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return dir.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
