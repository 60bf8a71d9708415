// Package server exposes the HTTP API: job submission and status
// polling. Everything long-running happens elsewhere; handlers only
// validate, dispatch and read.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"mapannai/internal/jobs"
)

type submitter interface {
	Submit(ctx context.Context, req jobs.SubmitRequest) (*jobs.SubmitResponse, error)
}

type poller interface {
	Status(ctx context.Context, jobID string) (json.RawMessage, error)
}

type Server struct {
	submitter submitter
	poller    poller
	logger    *slog.Logger
}

func New(sub submitter, poll poller, logger *slog.Logger) *Server {
	return &Server{submitter: sub, poller: poll, logger: logger}
}

// Router builds the HTTP routes with the CORS policy the mobile client
// expects.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Post("/recommendation", s.handleSubmit)
	r.Get("/recommendation/status/{jobID}", s.handleStatus)
	r.Get("/recommendation/status", s.handleStatus)

	return r
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSubmitRequest(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := s.submitter.Submit(r.Context(), req)
	if err != nil {
		var verr *jobs.ValidationError
		if errors.As(err, &verr) {
			s.writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		s.logger.Error("submission failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to submit job")
		return
	}

	s.writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := statusJobID(r)
	if jobID == "" {
		s.writeError(w, http.StatusBadRequest, "missing job id")
		return
	}

	raw, err := s.poller.Status(r.Context(), jobID)
	if err != nil {
		s.logger.Error("status poll failed", "job_id", jobID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load job status")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// decodeSubmitRequest accepts the body either as a JSON object or as a
// JSON string wrapping one, the shape some API gateways forward.
func decodeSubmitRequest(r *http.Request) (jobs.SubmitRequest, error) {
	var req jobs.SubmitRequest

	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return req, err
	}

	var wrapped string
	if err := json.Unmarshal(body, &wrapped); err == nil {
		body = json.RawMessage(wrapped)
	}

	err := json.Unmarshal(body, &req)
	return req, err
}

// statusJobID pulls the job id from the path, falling back to the
// query string and then a JSON body.
func statusJobID(r *http.Request) string {
	if id := chi.URLParam(r, "jobID"); id != "" {
		return id
	}
	if id := r.URL.Query().Get("jobId"); id != "" {
		return id
	}
	if id := r.URL.Query().Get("job_id"); id != "" {
		return id
	}

	var body struct {
		JobID string `json:"jobId"`
		Alt   string `json:"job_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
		if body.JobID != "" {
			return body.JobID
		}
		return body.Alt
	}
	return ""
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
