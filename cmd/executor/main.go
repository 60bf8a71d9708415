package main

import (
	"context"
	"os"

	"mapannai/internal/assemble"
	"mapannai/internal/config"
	"mapannai/internal/enrich"
	"mapannai/internal/jobs"
	"mapannai/internal/narrative"
	"mapannai/internal/storage"
	"mapannai/pkg/genai"
	"mapannai/pkg/googleplaces"
	"mapannai/pkg/graceful"
	"mapannai/pkg/kafkaclient"
)

func main() {
	cfg := config.Load()
	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	store, err := storage.NewStore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Error("failed to prepare bucket", "error", err)
		os.Exit(1)
	}

	model, err := genai.NewModel(ctx, genai.Options{
		Provider:   cfg.LLMProvider,
		Model:      cfg.LLMModel,
		APIKey:     cfg.LLMAPIKey,
		OllamaHost: cfg.OllamaHost,
	})
	if err != nil {
		logger.Error("failed to initialize language model", "error", err)
		os.Exit(1)
	}

	placesClient := googleplaces.NewClient(cfg.PlacesAPIKey, cfg.PlacesLanguage, cfg.PlacesTimeout)

	executor := jobs.NewExecutor(
		cfg,
		placesClient,
		model,
		enrich.NewEnricher(cfg, placesClient, placesClient, store, logger),
		narrative.NewSummarizer(cfg, model, logger),
		assemble.NewAssembler(cfg.ResultTTL),
		store,
		logger,
	)

	consumer := kafkaclient.NewConsumer(cfg.KafkaBroker, cfg.KafkaTopic, cfg.KafkaGroupID, logger)
	consumer.Start(ctx)

	logger.Info("executor started",
		"broker", cfg.KafkaBroker, "topic", cfg.KafkaTopic, "group", cfg.KafkaGroupID,
		"model", model.ModelName())

	for msg := range consumer.Messages() {
		executor.Execute(ctx, msg.Value)
		// Commit regardless of job outcome: the terminal record (or the
		// logged persistence failure) is the source of truth, and a
		// redelivery would rerun a job whose id was already written.
		if err := consumer.Commit(ctx, msg); err != nil {
			logger.Error("commit failed", "error", err)
		}
	}

	consumer.Stop()
	logger.Info("executor stopped")
}
