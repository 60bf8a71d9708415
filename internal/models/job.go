package models

import "encoding/json"

// Job lifecycle states. A job is born processing and is written exactly
// once into a terminal state; the record never changes afterwards.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// JobParams is the dispatch payload handed from the submission stage to
// the executor. Field names match the client request body.
type JobParams struct {
	JobID     string  `json:"job_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	MainType  string  `json:"main_type"`
	SubType   string  `json:"sub_type,omitempty"`
	Budget    string  `json:"budget,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// JobRecord is the terminal state document persisted to object storage
// under the job-result prefix. Exactly one of Result or Error is set.
type JobRecord struct {
	JobID       string          `json:"jobId"`
	Status      string          `json:"status"`
	CompletedAt string          `json:"completedAt"`
	Result      *ResultDocument `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`

	// Raw keeps the undecoded record so that statuses outside the known
	// set can be passed through to the poller verbatim.
	Raw json.RawMessage `json:"-"`
}
