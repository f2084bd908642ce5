package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"visualverify/internal/logging"
	"visualverify/internal/queue"
	"visualverify/internal/services"
)

func (m *Manager) handleJobFailure(ctx context.Context, logger *slog.Logger, job *queue.Job, jobErr error) {
	m.setLastError(jobErr)

	m.mu.RLock()
	maxAttempts := m.maxAttempts
	m.mu.RUnlock()

	message := strings.TrimSpace(jobErr.Error())
	status := services.FailureStatus(jobErr, job.Attempts, maxAttempts)
	attrs := []logging.Attr{
		logging.String("resolved_status", string(status)),
		logging.Int("attempt", job.Attempts),
		logging.Int("max_attempts", maxAttempts),
		logging.Error(jobErr),
	}

	if status == queue.StatusPending {
		job.Status = queue.StatusPending
		job.ErrorMessage = message
		job.LastHeartbeat = nil
		job.ProgressStage = "retrying"
		logging.WarnWithContext(logger, "job failed; will retry", "job_retry",
			append(attrs,
				logging.String(logging.FieldImpact, "verification is delayed"),
				logging.String(logging.FieldErrorHint, "check network access to the image host and providers"),
			)...,
		)
	} else {
		job.SetFailed(message)
		logging.ErrorWithContext(logger, "job failed", "job_failure",
			append(attrs, logging.Alert("job_failure"))...,
		)
	}

	if err := m.store.Update(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not record job failure")
		} else {
			logger.Error("failed to persist job failure", logging.Error(err))
		}
	}

	m.setLastJob(job)
	if job.Status == queue.StatusFailed {
		m.notifyFailure(ctx, job)
	}
}
