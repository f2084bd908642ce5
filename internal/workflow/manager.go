package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"visualverify/internal/config"
	"visualverify/internal/logging"
	"visualverify/internal/notifications"
	"visualverify/internal/queue"
	"visualverify/internal/stage"
)

// DefaultMaxAttempts bounds how often a job is retried after retryable failures.
const DefaultMaxAttempts = 3

// Manager coordinates queue processing using the registered stage handler.
type Manager struct {
	cfg           *config.Config
	store         *queue.Store
	logger        *slog.Logger
	notifier      notifications.Service
	handler       stage.Handler
	stageName     string
	pollInterval  time.Duration
	retryInterval time.Duration
	workers       int
	maxAttempts   int

	heartbeat *HeartbeatMonitor
	wake      chan struct{}

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *queue.Job
}

// NewManager constructs a new workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "workflow-manager")
	workers := cfg.Workflow.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Manager{
		cfg:           cfg,
		store:         store,
		logger:        logger,
		notifier:      notifier,
		pollInterval:  time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		workers:       workers,
		maxAttempts:   DefaultMaxAttempts,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		wake: make(chan struct{}, 1),
	}
}

// ConfigureStage registers the handler every job is run through.
func (m *Manager) ConfigureStage(name string, handler stage.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stageName = name
	m.handler = handler
}

// SetMaxAttempts overrides DefaultMaxAttempts.
func (m *Manager) SetMaxAttempts(n int) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	m.maxAttempts = n
	m.mu.Unlock()
}

// Wake nudges an idle worker to poll the queue immediately.
func (m *Manager) Wake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
