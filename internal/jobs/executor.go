package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"mapannai/internal/assemble"
	"mapannai/internal/config"
	"mapannai/internal/enrich"
	"mapannai/internal/models"
	"mapannai/internal/narrative"
	"mapannai/internal/pipeline"
	"mapannai/internal/places"
)

type recordStore interface {
	PutJobRecord(ctx context.Context, rec models.JobRecord) error
}

// jobState is the mutable item flowing through the execution pipeline.
type jobState struct {
	params models.JobParams
	places []*models.Place
	result *models.ResultDocument
}

// Executor runs one dispatched job end to end and persists its terminal
// record.
type Executor struct {
	cfg        config.Config
	api        places.PlacesAPI
	llm        places.TextGenerator
	enricher   *enrich.Enricher
	summarizer *narrative.Summarizer
	assembler  *assemble.Assembler
	store      recordStore
	logger     *slog.Logger

	now func() time.Time
}

func NewExecutor(
	cfg config.Config,
	api places.PlacesAPI,
	llm places.TextGenerator,
	enricher *enrich.Enricher,
	summarizer *narrative.Summarizer,
	assembler *assemble.Assembler,
	store recordStore,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		cfg:        cfg,
		api:        api,
		llm:        llm,
		enricher:   enricher,
		summarizer: summarizer,
		assembler:  assembler,
		store:      store,
		logger:     logger,
		now:        time.Now,
	}
}

// Execute decodes the dispatch payload, runs the pipeline and writes
// exactly one terminal record. Pipeline failures produce a failed
// record; a failure to persist that record is logged and swallowed so
// the message can still be committed.
func (e *Executor) Execute(ctx context.Context, payload []byte) {
	var params models.JobParams
	if err := json.Unmarshal(payload, &params); err != nil {
		e.logger.Error("undecodable job payload, dropping", "error", err)
		return
	}
	if params.JobID == "" {
		e.logger.Error("job payload has no job id, dropping")
		return
	}

	logger := e.logger.With("job_id", params.JobID, "main_type", params.MainType)
	logger.Info("job started")
	start := e.now()

	state := &jobState{params: params}
	err := e.buildPipeline().Run(ctx, state)

	rec := models.JobRecord{
		JobID:       params.JobID,
		CompletedAt: e.now().UTC().Format("2006-01-02T15:04:05Z"),
	}
	if err != nil {
		logger.Error("job failed", "error", err, "elapsed", e.now().Sub(start))
		rec.Status = models.StatusFailed
		rec.Error = err.Error()
	} else {
		logger.Info("job completed", "markers", len(state.result.Markers), "elapsed", e.now().Sub(start))
		rec.Status = models.StatusCompleted
		rec.Result = state.result
	}

	if perr := e.store.PutJobRecord(ctx, rec); perr != nil {
		// The poller will keep seeing "processing" until the record
		// expires; nothing else to do without a second store.
		logger.Error("failed to persist job record", "status", rec.Status, "error", perr)
	}
}

func (e *Executor) buildPipeline() *pipeline.Pipeline[jobState] {
	return pipeline.New(
		pipeline.NewStage("resolve", e.resolvePlaces),
		pipeline.NewStage("enrich", e.enrichPlaces),
		pipeline.NewStage("summarize", e.summarizePlaces),
		pipeline.NewStage("assemble", e.assembleResult),
	)
}

func (e *Executor) resolvePlaces(ctx context.Context, state *jobState) error {
	resolver := places.ForCategory(state.params.MainType, e.cfg, e.api, e.llm, e.logger)
	resolved, err := resolver.Resolve(ctx, places.Query{
		Lat:      state.params.Lat,
		Lng:      state.params.Lng,
		MainType: state.params.MainType,
		SubType:  state.params.SubType,
		Budget:   state.params.Budget,
	})
	if err != nil {
		return err
	}
	state.places = resolved
	return nil
}

func (e *Executor) enrichPlaces(ctx context.Context, state *jobState) error {
	enrich.SelectTopReviews(state.places)
	// Image failures are handled inside the enricher; they degrade the
	// result instead of failing the job.
	e.enricher.EnrichImages(ctx, state.params.MainType, state.params.Lat, state.params.Lng, state.places)
	return nil
}

func (e *Executor) summarizePlaces(ctx context.Context, state *jobState) error {
	return e.summarizer.Summarize(ctx, state.params.MainType, state.places)
}

func (e *Executor) assembleResult(_ context.Context, state *jobState) error {
	state.result = e.assembler.Build(state.places, state.params.MainType, state.params.SubType)
	if state.result == nil {
		return fmt.Errorf("assembler produced no document")
	}
	return nil
}
