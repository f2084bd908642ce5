package workflow

import (
	"context"
	"errors"

	"visualverify/internal/logging"
	"visualverify/internal/notifications"
	"visualverify/internal/queue"
)

func (m *Manager) notifyVerdict(ctx context.Context, job *queue.Job) {
	m.publish(ctx, notifications.EventVerdict, notifications.Payload{
		"jobID":       job.ID,
		"imageURL":    job.ImageURL,
		"verdict":     job.Verdict,
		"confidence":  job.Confidence,
		"explanation": job.Explanation,
		"cached":      job.Cached,
	})
}

func (m *Manager) notifyFailure(ctx context.Context, job *queue.Job) {
	m.publish(ctx, notifications.EventJobFailed, notifications.Payload{
		"jobID":    job.ID,
		"imageURL": job.ImageURL,
		"error":    job.ErrorMessage,
	})
}

func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, event, payload); err != nil {
		logger := logging.WithContext(ctx, m.logger)
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not send notification")
		} else {
			logger.Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
		}
	}
}
