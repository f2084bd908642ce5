package workflow_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visualverify/internal/evidence"
	"visualverify/internal/fetch"
	"visualverify/internal/notifications"
	"visualverify/internal/queue"
	"visualverify/internal/services"
	"visualverify/internal/stage"
	"visualverify/internal/testsupport"
	"visualverify/internal/verification"
	"visualverify/internal/verify"
	"visualverify/internal/workflow"
)

type stubStage struct {
	calls   atomic.Int32
	execute func(call int32, job *queue.Job) error
}

func (s *stubStage) Prepare(_ context.Context, job *queue.Job) error {
	job.ProgressStage = "preparing"
	return nil
}

func (s *stubStage) Execute(_ context.Context, job *queue.Job) error {
	call := s.calls.Add(1)
	if s.execute != nil {
		return s.execute(call, job)
	}
	job.Status = queue.StatusCompleted
	job.Verdict = string(verify.VerdictTrue)
	job.Confidence = 0.9
	job.Explanation = "CONTEXT MATCHES: ok"
	return nil
}

func (s *stubStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("verifier")
}

type recordedEvent struct {
	event   notifications.Event
	payload notifications.Payload
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{event: event, payload: payload})
	return nil
}

func (r *recordingNotifier) snapshot() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetByID(context.Background(), id)
		require.NoError(t, err)
		if job != nil && job.Status == want {
			return job
		}
		time.Sleep(25 * time.Millisecond)
	}
	job, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, job, "job %d not found", id)
	require.Failf(t, "job did not reach status", "job %d status %s, want %s (error %q)", id, job.Status, want, job.ErrorMessage)
	return nil
}

func startManager(t *testing.T, handler stage.Handler) (*workflow.Manager, *queue.Store, *recordingNotifier) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, nil, notifier)
	mgr.ConfigureStage("verifier", handler)
	return mgr, store, notifier
}

func TestManagerCompletesJobAndNotifies(t *testing.T) {
	mgr, store, notifier := startManager(t, &stubStage{})
	job := testsupport.NewJob(t, store, "https://img.example/a.png", "claim")

	require.NoError(t, mgr.Start(context.Background()))
	t.Cleanup(mgr.Stop)

	done := waitForStatus(t, store, job.ID, queue.StatusCompleted)
	assert.Equal(t, string(verify.VerdictTrue), done.Verdict)
	assert.NotEmpty(t, done.RequestID)
	assert.Equal(t, 1, done.Attempts)

	require.Eventually(t, func() bool { return len(notifier.snapshot()) == 1 }, 2*time.Second, 25*time.Millisecond)
	event := notifier.snapshot()[0]
	assert.Equal(t, notifications.EventVerdict, event.event)
	assert.Equal(t, job.ID, event.payload["jobID"])
	assert.Equal(t, "TRUE", event.payload["verdict"])
}

func TestManagerRetriesTransientFailures(t *testing.T) {
	handler := &stubStage{}
	handler.execute = func(call int32, job *queue.Job) error {
		if call == 1 {
			return services.Wrap(services.ErrTransient, "verifier", "download", "connection reset", errors.New("reset"))
		}
		job.Status = queue.StatusCompleted
		job.Verdict = string(verify.VerdictUnverified)
		return nil
	}
	mgr, store, _ := startManager(t, handler)
	job := testsupport.NewJob(t, store, "https://img.example/a.png", "")

	require.NoError(t, mgr.Start(context.Background()))
	t.Cleanup(mgr.Stop)

	done := waitForStatus(t, store, job.ID, queue.StatusCompleted)
	assert.Equal(t, 2, done.Attempts)
	assert.Empty(t, done.ErrorMessage)
	assert.EqualValues(t, 2, handler.calls.Load())
}

func TestManagerFailsAfterMaxAttempts(t *testing.T) {
	handler := &stubStage{execute: func(int32, *queue.Job) error {
		return services.Wrap(services.ErrTimeout, "verifier", "download", "timed out", context.DeadlineExceeded)
	}}
	mgr, store, notifier := startManager(t, handler)
	mgr.SetMaxAttempts(2)
	job := testsupport.NewJob(t, store, "https://img.example/slow.png", "")

	require.NoError(t, mgr.Start(context.Background()))
	t.Cleanup(mgr.Stop)

	failed := waitForStatus(t, store, job.ID, queue.StatusFailed)
	assert.Equal(t, 2, failed.Attempts)
	assert.Contains(t, failed.ErrorMessage, "timed out")
	assert.Equal(t, string(verify.VerdictError), failed.Verdict)

	require.Eventually(t, func() bool { return len(notifier.snapshot()) == 1 }, 2*time.Second, 25*time.Millisecond)
	assert.Equal(t, notifications.EventJobFailed, notifier.snapshot()[0].event)
}

func TestManagerFailsPermanentErrorsImmediately(t *testing.T) {
	handler := &stubStage{execute: func(int32, *queue.Job) error {
		return services.Wrap(services.ErrValidation, "verifier", "download", "not an image", nil)
	}}
	mgr, store, _ := startManager(t, handler)
	job := testsupport.NewJob(t, store, "https://img.example/page.html", "")

	require.NoError(t, mgr.Start(context.Background()))
	t.Cleanup(mgr.Stop)

	failed := waitForStatus(t, store, job.ID, queue.StatusFailed)
	assert.Equal(t, 1, failed.Attempts)
	assert.EqualValues(t, 1, handler.calls.Load())
}

func TestManagerStartRequiresStageAndRejectsDoubleStart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManagerWithNotifier(cfg, store, nil, &recordingNotifier{})
	require.Error(t, mgr.Start(context.Background()))

	mgr.ConfigureStage("verifier", &stubStage{})
	require.NoError(t, mgr.Start(context.Background()))
	t.Cleanup(mgr.Stop)
	require.Error(t, mgr.Start(context.Background()))
}

func TestManagerStatusReportsStageHealth(t *testing.T) {
	mgr, store, _ := startManager(t, &stubStage{})
	testsupport.NewJob(t, store, "https://img.example/a.png", "")

	status := mgr.Status(context.Background())
	assert.False(t, status.Running)
	assert.Equal(t, 1, status.QueueStats[queue.StatusPending])
	require.Contains(t, status.StageHealth, "verifier")
	assert.True(t, status.StageHealth["verifier"].Ready)

	require.NoError(t, mgr.Start(context.Background()))
	assert.True(t, mgr.Status(context.Background()).Running)
	mgr.Stop()
	assert.False(t, mgr.Status(context.Background()).Running)
}

func TestHeartbeatMonitorReclaimsStaleJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	job := testsupport.NewJob(t, store, "https://img.example/a.png", "")

	claimed, err := store.ClaimNext(ctx)
	require.NoError(t, err)
	require.Equal(t, job.ID, claimed.ID)

	fresh := workflow.NewHeartbeatMonitor(store, nil, time.Second, time.Hour)
	reclaimed, err := fresh.ReclaimStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, reclaimed)

	time.Sleep(10 * time.Millisecond)
	stale := workflow.NewHeartbeatMonitor(store, nil, time.Second, time.Millisecond)
	reclaimed, err = stale.ReclaimStale(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reclaimed)

	reloaded, err := store.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusPending, reloaded.Status)
}

func TestManagerRunsRealVerifierEndToEnd(t *testing.T) {
	png := testsupport.PNG(t, 64, 64)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}))
	t.Cleanup(srv.Close)

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	notifier := &recordingNotifier{}
	verifier := verification.NewVerifierWithDependencies(
		cfg.Cache,
		store,
		fetch.New(5*time.Second, "visualverify-test", 1<<20),
		evidence.NewCollector(nil, nil),
		nil,
	)
	mgr := workflow.NewManagerWithNotifier(cfg, store, nil, notifier)
	mgr.ConfigureStage("verifier", verifier)
	job := testsupport.NewJob(t, store, srv.URL+"/photo.png", "protest downtown")

	require.NoError(t, mgr.Start(context.Background()))
	t.Cleanup(mgr.Stop)

	done := waitForStatus(t, store, job.ID, queue.StatusCompleted)
	assert.Equal(t, string(verify.VerdictUnverified), done.Verdict)
	assert.NotEmpty(t, done.ContentHash)
	assert.NotEmpty(t, done.PerceptualHash)
}
