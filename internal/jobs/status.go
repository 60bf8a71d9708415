package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"mapannai/internal/models"
	"mapannai/internal/storage"
)

type recordReader interface {
	GetJobRecord(ctx context.Context, jobID string) (*models.JobRecord, error)
}

// StatusResponse is the poll answer for a job still in flight or in a
// known terminal state. Unknown persisted statuses bypass this type and
// are served from the raw record.
type StatusResponse struct {
	JobID       string                 `json:"jobId"`
	Status      string                 `json:"status"`
	Message     string                 `json:"message,omitempty"`
	RetryAfter  int                    `json:"retryAfter,omitempty"`
	CompletedAt string                 `json:"completedAt,omitempty"`
	Result      *models.ResultDocument `json:"result,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// Poller answers status polls from the persisted job records.
type Poller struct {
	store      recordReader
	retryAfter int
	logger     *slog.Logger
}

func NewPoller(store recordReader, retryAfter int, logger *slog.Logger) *Poller {
	return &Poller{store: store, retryAfter: retryAfter, logger: logger}
}

// Status resolves one poll. A missing record means the job is still
// processing; polling is idempotent and never mutates anything.
func (p *Poller) Status(ctx context.Context, jobID string) (json.RawMessage, error) {
	rec, err := p.store.GetJobRecord(ctx, jobID)
	if errors.Is(err, storage.ErrNotFound) {
		return marshalStatus(StatusResponse{
			JobID:      jobID,
			Status:     models.StatusProcessing,
			Message:    "任务处理中，请稍后重试",
			RetryAfter: p.retryAfter,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}

	switch rec.Status {
	case models.StatusCompleted:
		return marshalStatus(StatusResponse{
			JobID:       rec.JobID,
			Status:      models.StatusCompleted,
			CompletedAt: rec.CompletedAt,
			Result:      rec.Result,
		})
	case models.StatusFailed:
		return marshalStatus(StatusResponse{
			JobID:       rec.JobID,
			Status:      models.StatusFailed,
			CompletedAt: rec.CompletedAt,
			Error:       rec.Error,
		})
	}

	// A status outside the known set came from a newer or older writer;
	// pass its record through untouched rather than guessing.
	p.logger.Warn("passing through unknown job status", "job_id", jobID, "status", rec.Status)
	if len(rec.Raw) > 0 {
		return rec.Raw, nil
	}
	return marshalStatus(StatusResponse{JobID: rec.JobID, Status: rec.Status})
}

func marshalStatus(resp StatusResponse) (json.RawMessage, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal status response: %w", err)
	}
	return data, nil
}
