package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"mapannai/internal/models"
)

type stubDispatcher struct {
	err      error
	keys     []string
	payloads [][]byte
}

func (s *stubDispatcher) Publish(_ context.Context, key string, value []byte) error {
	if s.err != nil {
		return s.err
	}
	s.keys = append(s.keys, key)
	s.payloads = append(s.payloads, value)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func floatPtr(v float64) *float64 { return &v }

func validRequest() SubmitRequest {
	return SubmitRequest{
		Lat:      floatPtr(35.44),
		Lng:      floatPtr(139.63),
		MainType: models.CategoryFood,
		SubType:  "拉面",
		Budget:   models.BudgetLow,
	}
}

func TestSubmit_AcknowledgesAndDispatches(t *testing.T) {
	dispatch := &stubDispatcher{}
	s := NewSubmitter(dispatch, testLogger())
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	resp, err := s.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if !strings.HasPrefix(resp.JobID, "job_") || len(resp.JobID) != len("job_")+32 {
		t.Errorf("JobID = %q, want job_ plus 32 hex chars", resp.JobID)
	}
	if resp.Status != models.StatusProcessing {
		t.Errorf("Status = %q, want processing", resp.Status)
	}
	if resp.PollURL != "/recommendation/status/"+resp.JobID {
		t.Errorf("PollURL = %q", resp.PollURL)
	}
	if resp.CreatedAt != "2025-06-01T12:00:00Z" {
		t.Errorf("CreatedAt = %q", resp.CreatedAt)
	}
	if resp.Message == "" || resp.EstimatedTime == "" {
		t.Error("acknowledgment missing message or estimate")
	}

	if len(dispatch.keys) != 1 || dispatch.keys[0] != resp.JobID {
		t.Fatalf("dispatch keys = %v, want the job id", dispatch.keys)
	}
	var params models.JobParams
	if err := json.Unmarshal(dispatch.payloads[0], &params); err != nil {
		t.Fatalf("dispatch payload not JSON: %v", err)
	}
	if params.JobID != resp.JobID || params.Lat != 35.44 || params.MainType != models.CategoryFood {
		t.Errorf("dispatched params = %+v", params)
	}
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*SubmitRequest)
	}{
		{"missing lat", func(r *SubmitRequest) { r.Lat = nil }},
		{"missing lng", func(r *SubmitRequest) { r.Lng = nil }},
		{"missing main_type", func(r *SubmitRequest) { r.MainType = "" }},
		{"unknown main_type", func(r *SubmitRequest) { r.MainType = "购物" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatch := &stubDispatcher{}
			s := NewSubmitter(dispatch, testLogger())

			req := validRequest()
			tt.mod(&req)

			_, err := s.Submit(context.Background(), req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Submit() error = %v, want ValidationError", err)
			}
			if len(dispatch.keys) != 0 {
				t.Error("rejected submission was still dispatched")
			}
		})
	}
}

func TestSubmit_DispatchFailurePropagates(t *testing.T) {
	dispatch := &stubDispatcher{err: errors.New("broker unreachable")}
	s := NewSubmitter(dispatch, testLogger())

	_, err := s.Submit(context.Background(), validRequest())
	if err == nil {
		t.Fatal("Submit() error = nil, want dispatch failure")
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		t.Error("dispatch failure reported as a validation error")
	}
}
