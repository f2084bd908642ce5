package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a verification job in a transport-friendly format.
type Job struct {
	ID           int64           `json:"id"`
	ImageURL     string          `json:"imageUrl"`
	Claim        string          `json:"claim,omitempty"`
	Status       string          `json:"status"`
	Verdict      string          `json:"verdict,omitempty"`
	Confidence   float64         `json:"confidence"`
	Explanation  string          `json:"explanation,omitempty"`
	Cached       bool            `json:"cached"`
	Progress     string          `json:"progress,omitempty"`
	Attempts     int             `json:"attempts"`
	RequestID    string          `json:"requestId,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	Fingerprint  *Fingerprint    `json:"fingerprint,omitempty"`
	Evidence     json.RawMessage `json:"evidence,omitempty"`
	RealContext  json.RawMessage `json:"realContext,omitempty"`
	ClaimContext json.RawMessage `json:"claimContext,omitempty"`
	Issues       json.RawMessage `json:"issues,omitempty"`
	CreatedAt    string          `json:"createdAt,omitempty"`
	UpdatedAt    string          `json:"updatedAt,omitempty"`
	CompletedAt  string          `json:"completedAt,omitempty"`
}

// Fingerprint carries the stored image hashes of a job.
type Fingerprint struct {
	ContentHash    string `json:"contentHash"`
	PerceptualHash string `json:"perceptualHash,omitempty"`
}

// SubmitRequest is the body accepted by POST /api/verify.
type SubmitRequest struct {
	ImageURL  string `json:"image_url"`
	UserClaim string `json:"user_claim"`
}

// SubmitResponse acknowledges a queued verification.
type SubmitResponse struct {
	JobID   int64  `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthResponse is served by GET /health.
type HealthResponse struct {
	Status            string `json:"status"`
	APIKeysConfigured bool   `json:"api_keys_configured"`
}

// ErrorResponse wraps an API error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	Workers     int            `json:"workers"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastJob     *Job           `json:"lastJob,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueDBPath  string         `json:"queueDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	APIBind      string         `json:"apiBind"`
	Providers    []string       `json:"providers"`
	Workflow     WorkflowStatus `json:"workflow"`
}
