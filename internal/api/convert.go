package api

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"visualverify/internal/queue"
	"visualverify/internal/stage"
	"visualverify/internal/workflow"
)

// FromJob converts a queue record to its API representation.
func FromJob(job *queue.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:           job.ID,
		ImageURL:     job.ImageURL,
		Claim:        job.Claim,
		Status:       string(job.Status),
		Verdict:      job.Verdict,
		Confidence:   job.Confidence,
		Explanation:  job.Explanation,
		Cached:       job.Cached,
		Progress:     job.ProgressStage,
		Attempts:     job.Attempts,
		RequestID:    job.RequestID,
		ErrorMessage: job.ErrorMessage,
		Evidence:     rawJSON(job.EvidenceJSON),
		RealContext:  rawJSON(job.RealContextJSON),
		ClaimContext: rawJSON(job.ClaimContextJSON),
		Issues:       rawJSON(job.IssuesJSON),
		CreatedAt:    FormatTime(job.CreatedAt),
		UpdatedAt:    FormatTime(job.UpdatedAt),
	}
	if job.ContentHash != "" {
		dto.Fingerprint = &Fingerprint{ContentHash: job.ContentHash, PerceptualHash: job.PerceptualHash}
	}
	if job.CompletedAt != nil {
		dto.CompletedAt = FormatTime(*job.CompletedAt)
	}
	return dto
}

// FromJobs converts a slice of queue records into API DTOs.
func FromJobs(jobs []*queue.Job) []Job {
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStatusSummary converts workflow diagnostics into the API shape.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	stats := make(map[string]int, len(summary.QueueStats))
	for status, count := range summary.QueueStats {
		stats[string(status)] = count
	}
	wf := WorkflowStatus{
		Running:     summary.Running,
		Workers:     summary.Workers,
		QueueStats:  stats,
		LastError:   summary.LastError,
		StageHealth: StageHealthSlice(summary.StageHealth),
	}
	if summary.LastJob != nil {
		last := FromJob(summary.LastJob)
		wf.LastJob = &last
	}
	return wf
}

// StageHealthSlice returns stage health sorted by name.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func rawJSON(value string) json.RawMessage {
	value = strings.TrimSpace(value)
	if value == "" || !json.Valid([]byte(value)) {
		return nil
	}
	return json.RawMessage(value)
}
