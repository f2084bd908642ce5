package stage

import (
	"context"

	"visualverify/internal/queue"
)

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *queue.Job) error
	Execute(context.Context, *queue.Job) error
	HealthCheck(context.Context) Health
}

// ProgressFunc reports the step a stage is currently in.
type ProgressFunc func(step string)
