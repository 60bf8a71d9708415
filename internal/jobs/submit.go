// Package jobs owns the job lifecycle: accepting submissions, running
// the recommendation pipeline for a dispatched job, and answering
// status polls against the persisted terminal records.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mapannai/internal/models"
)

type dispatcher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// SubmitRequest is the client's recommendation request body.
type SubmitRequest struct {
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	MainType string   `json:"main_type"`
	SubType  string   `json:"sub_type"`
	Budget   string   `json:"budget"`
}

// SubmitResponse acknowledges an accepted job.
type SubmitResponse struct {
	JobID         string `json:"jobId"`
	Status        string `json:"status"`
	Message       string `json:"message"`
	CreatedAt     string `json:"createdAt"`
	PollURL       string `json:"pollUrl"`
	EstimatedTime string `json:"estimatedTime"`
}

// ValidationError marks a rejected submission; handlers map it to a 400.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Submitter validates submissions and dispatches them for asynchronous
// execution.
type Submitter struct {
	dispatch dispatcher
	logger   *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewSubmitter(dispatch dispatcher, logger *slog.Logger) *Submitter {
	return &Submitter{
		dispatch: dispatch,
		logger:   logger,
		now:      time.Now,
		newID:    newJobID,
	}
}

// newJobID yields "job_" plus the 32 hex digits of a random uuid.
func newJobID() string {
	return "job_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Submit validates the request, assigns a job id and publishes the
// dispatch payload. It returns as soon as the broker acknowledges; the
// pipeline runs elsewhere.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	jobID := s.newID()
	createdAt := s.now().UTC().Format("2006-01-02T15:04:05Z")

	params := models.JobParams{
		JobID:     jobID,
		Lat:       *req.Lat,
		Lng:       *req.Lng,
		MainType:  req.MainType,
		SubType:   req.SubType,
		Budget:    req.Budget,
		CreatedAt: createdAt,
	}
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal job params: %w", err)
	}

	if err := s.dispatch.Publish(ctx, jobID, payload); err != nil {
		return nil, fmt.Errorf("dispatch job %s: %w", jobID, err)
	}

	s.logger.Info("job submitted", "job_id", jobID, "main_type", req.MainType, "sub_type", req.SubType)

	return &SubmitResponse{
		JobID:         jobID,
		Status:        models.StatusProcessing,
		Message:       "推荐任务已提交，正在处理中",
		CreatedAt:     createdAt,
		PollURL:       "/recommendation/status/" + jobID,
		EstimatedTime: "30-60秒",
	}, nil
}

func validate(req SubmitRequest) error {
	var missing []string
	if req.Lat == nil {
		missing = append(missing, "lat")
	}
	if req.Lng == nil {
		missing = append(missing, "lng")
	}
	if req.MainType == "" {
		missing = append(missing, "main_type")
	}
	if len(missing) > 0 {
		return &ValidationError{msg: "missing required fields: " + strings.Join(missing, ", ")}
	}
	if !models.KnownCategory(req.MainType) {
		return &ValidationError{msg: fmt.Sprintf("unknown main_type: %s", req.MainType)}
	}
	return nil
}
