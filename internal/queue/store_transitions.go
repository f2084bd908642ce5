package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ClaimNext atomically moves the oldest pending job to processing, stamps its
// heartbeat, and increments its attempt counter. It returns nil, nil when the
// queue is empty.
func (s *Store) ClaimNext(ctx context.Context) (*Job, error) {
	ctx = ensureContext(ctx)
	var job *Job
	err := retryOnBusy(ctx, func() error {
		now := formatTime(time.Now())
		row := s.db.QueryRowContext(ctx,
			`UPDATE jobs
             SET status = ?, attempts = attempts + 1, last_heartbeat = ?, updated_at = ?, progress_stage = NULL
             WHERE id = (SELECT id FROM jobs WHERE status = ? ORDER BY created_at, id LIMIT 1)
             RETURNING `+jobColumns,
			StatusProcessing, now, now, StatusPending,
		)
		claimed, scanErr := scanJob(row)
		if errors.Is(scanErr, sql.ErrNoRows) {
			job = nil
			return nil
		}
		if scanErr != nil {
			return scanErr
		}
		job = claimed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim next job: %w", err)
	}
	return job, nil
}

// SetStage records the workflow step a processing job is in.
func (s *Store) SetStage(ctx context.Context, id int64, stage string) error {
	if _, err := s.exec(ctx,
		`UPDATE jobs SET progress_stage = ?, updated_at = ? WHERE id = ?`,
		nullableString(stage), formatTime(time.Now()), id,
	); err != nil {
		return fmt.Errorf("set stage: %w", err)
	}
	return nil
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight job.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := formatTime(time.Now())
	if _, err := s.exec(ctx,
		`UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ? AND status = ?`,
		now, now, id, StatusProcessing,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStale returns processing jobs whose heartbeat is older than cutoff to pending.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	affected, err := s.execAffected(ctx,
		`UPDATE jobs SET status = ?, last_heartbeat = NULL, progress_stage = NULL, updated_at = ?
         WHERE status = ? AND (last_heartbeat IS NULL OR last_heartbeat < ?)`,
		StatusPending, formatTime(time.Now()), StatusProcessing, formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	return affected, nil
}

// ResetProcessing returns every processing job to pending. Used on daemon start
// when no worker can still own them.
func (s *Store) ResetProcessing(ctx context.Context) (int64, error) {
	affected, err := s.execAffected(ctx,
		`UPDATE jobs SET status = ?, last_heartbeat = NULL, progress_stage = NULL, updated_at = ? WHERE status = ?`,
		StatusPending, formatTime(time.Now()), StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset processing jobs: %w", err)
	}
	return affected, nil
}

// RetryFailed moves failed jobs back to pending and resets their attempt
// counter. With no ids every failed job is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	query := `UPDATE jobs
        SET status = ?, error_message = NULL, explanation = NULL, verdict = NULL, confidence = 0, attempts = 0,
            completed_at = NULL, updated_at = ?
        WHERE status = ?`
	args := []any{StatusPending, formatTime(time.Now()), StatusFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	affected, err := s.execAffected(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed jobs: %w", err)
	}
	return affected, nil
}
