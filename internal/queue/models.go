package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"visualverify/internal/verify"
)

// Status represents a job lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

// AllStatuses returns every job status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a string into a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CachedPrefix marks explanations served from the verdict cache.
const CachedPrefix = "[CACHED] "

// Job is a persisted verification request.
type Job struct {
	ID               int64
	ImageURL         string
	Claim            string
	Status           Status
	Verdict          string
	Confidence       float64
	Explanation      string
	EvidenceJSON     string
	RealContextJSON  string
	ClaimContextJSON string
	IssuesJSON       string
	ContentHash      string
	PerceptualHash   string
	Cached           bool
	ErrorMessage     string
	RequestID        string
	Attempts         int
	ProgressStage    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastHeartbeat    *time.Time
	CompletedAt      *time.Time
}

// SetResult records an engine result and marks the job completed.
func (j *Job) SetResult(result verify.Result) error {
	encode := func(v any) (string, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	var err error
	if j.EvidenceJSON, err = encode(result.Evidence); err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}
	if j.RealContextJSON, err = encode(result.RealContext); err != nil {
		return fmt.Errorf("encode real context: %w", err)
	}
	if j.ClaimContextJSON, err = encode(result.ClaimContext); err != nil {
		return fmt.Errorf("encode claim context: %w", err)
	}
	if j.IssuesJSON, err = encode(result.Issues); err != nil {
		return fmt.Errorf("encode issues: %w", err)
	}
	if result.Fingerprint != nil {
		j.ContentHash = result.Fingerprint.ContentHash
		j.PerceptualHash = result.Fingerprint.PerceptualHash
	}
	j.Verdict = string(result.Verdict)
	j.Confidence = result.Confidence
	j.Explanation = result.Explanation
	j.Cached = false
	j.markCompleted()
	return nil
}

// SetCached records a verdict served from the cache and marks the job completed.
func (j *Job) SetCached(entry CacheEntry) {
	j.Verdict = entry.Verdict
	j.Confidence = entry.Confidence
	j.Explanation = CachedPrefix + strings.TrimPrefix(entry.Explanation, CachedPrefix)
	j.ContentHash = entry.ContentHash
	j.PerceptualHash = entry.PerceptualHash
	j.Cached = true
	j.markCompleted()
}

// SetFailed marks the job failed with the supplied message.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.Verdict = string(verify.VerdictError)
	j.Confidence = 0
	j.ErrorMessage = strings.TrimSpace(message)
	j.Explanation = "Error: " + j.ErrorMessage
	j.LastHeartbeat = nil
	now := time.Now().UTC()
	j.CompletedAt = &now
}

func (j *Job) markCompleted() {
	j.Status = StatusCompleted
	j.ErrorMessage = ""
	j.LastHeartbeat = nil
	j.ProgressStage = ""
	now := time.Now().UTC()
	j.CompletedAt = &now
}

// Details decodes the JSON columns written by SetResult. Missing columns
// decode to zero values.
func (j *Job) Details() (JobDetails, error) {
	var details JobDetails
	decode := func(raw string, dst any) error {
		if strings.TrimSpace(raw) == "" {
			return nil
		}
		return json.Unmarshal([]byte(raw), dst)
	}
	if err := decode(j.EvidenceJSON, &details.Evidence); err != nil {
		return details, fmt.Errorf("decode evidence: %w", err)
	}
	if err := decode(j.RealContextJSON, &details.RealContext); err != nil {
		return details, fmt.Errorf("decode real context: %w", err)
	}
	if err := decode(j.ClaimContextJSON, &details.ClaimContext); err != nil {
		return details, fmt.Errorf("decode claim context: %w", err)
	}
	if err := decode(j.IssuesJSON, &details.Issues); err != nil {
		return details, fmt.Errorf("decode issues: %w", err)
	}
	return details, nil
}

// JobDetails carries the decoded structured parts of a completed job.
type JobDetails struct {
	Evidence     []verify.EvidenceItem
	RealContext  *verify.Context
	ClaimContext *verify.Context
	Issues       []verify.Issue
}

// CacheEntry is a cached verdict for an image.
type CacheEntry struct {
	ContentHash    string
	URLKey         string
	PerceptualHash string
	SecondaryHash  string
	Verdict        string
	Confidence     float64
	Explanation    string
	FirstSeen      time.Time
	LastSeen       time.Time
	Hits           int
	// Distance is the perceptual distance for near-duplicate matches.
	Distance int
}

// HealthSummary aggregates job counts for diagnostics.
type HealthSummary struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	CacheRows  int `json:"cacheRows"`
}
