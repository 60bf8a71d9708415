package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"mapannai/internal/config"
	"mapannai/internal/jobs"
	"mapannai/internal/server"
	"mapannai/internal/storage"
	"mapannai/pkg/graceful"
	"mapannai/pkg/kafkaclient"
)

func main() {
	cfg := config.Load()
	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	producer := kafkaclient.NewProducer(cfg.KafkaBroker, cfg.KafkaTopic)
	defer producer.Close()

	submitter := jobs.NewSubmitter(producer, logger)
	poller, err := newPoller(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.New(submitter, poller, logger).Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("http server listening", "addr", cfg.HTTPAddr, "topic", cfg.KafkaTopic)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("http server stopped")
}

func newPoller(cfg config.Config, logger *slog.Logger) (*jobs.Poller, error) {
	store, err := storage.NewStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	return jobs.NewPoller(store, cfg.PollRetryAfter, logger), nil
}
