package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"visualverify/internal/logging"
	"visualverify/internal/queue"
	"visualverify/internal/services"
	"visualverify/internal/stage"
)

func (m *Manager) processJob(ctx context.Context, workerLogger *slog.Logger, job *queue.Job) error {
	m.mu.RLock()
	handler, stageName := m.handler, m.stageName
	m.mu.RUnlock()

	if job.RequestID == "" {
		job.RequestID = uuid.NewString()
	}
	jobCtx := services.WithJobID(ctx, job.ID)
	jobCtx = services.WithStage(jobCtx, stageName)
	jobCtx = services.WithRequestID(jobCtx, job.RequestID)
	logger := logging.WithContext(jobCtx, workerLogger)

	start := time.Now()
	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("image_url", job.ImageURL),
		logging.Int("attempt", job.Attempts),
	)

	if err := handler.Prepare(jobCtx, job); err != nil {
		m.handleJobFailure(jobCtx, logger, job, err)
		return err
	}
	if err := m.store.Update(jobCtx, job); err != nil {
		wrapped := fmt.Errorf("persist job preparation: %w", err)
		logger.Error("failed to persist job preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	if err := m.executeWithHeartbeat(jobCtx, handler, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("job interrupted by shutdown")
			return err
		}
		m.handleJobFailure(jobCtx, logger, job, err)
		return err
	}

	switch {
	case !job.Status.Terminal():
		job.SetFailed(fmt.Sprintf("%s finished without a verdict", stageName))
	case job.Status == queue.StatusCompleted:
		// A retried job may still carry the previous attempt's error.
		job.ErrorMessage = ""
	}
	if err := m.store.Update(jobCtx, job); err != nil {
		wrapped := fmt.Errorf("persist job result: %w", err)
		logger.Error("failed to persist job result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("status", string(job.Status)),
		logging.String("verdict", job.Verdict),
		logging.Float64("confidence", job.Confidence),
		logging.Bool("cached", job.Cached),
		logging.Duration("job_duration", time.Since(start)),
	)
	m.setLastJob(job)
	if job.Status == queue.StatusCompleted {
		m.notifyVerdict(jobCtx, job)
	} else {
		m.notifyFailure(jobCtx, job)
	}
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, job *queue.Job) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, job.ID)

	execErr := handler.Execute(ctx, job)
	hbCancel()
	hbWG.Wait()
	return execErr
}
