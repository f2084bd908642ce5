package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visualverify/internal/api"
	"visualverify/internal/config"
	"visualverify/internal/daemon"
	"visualverify/internal/evidence"
	"visualverify/internal/fetch"
	"visualverify/internal/notifications"
	"visualverify/internal/queue"
	"visualverify/internal/testsupport"
	"visualverify/internal/verification"
	"visualverify/internal/workflow"
)

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, notifications.Event, notifications.Payload) error {
	return nil
}

func newDaemon(t *testing.T, cfg *config.Config) (*daemon.Daemon, *queue.Store) {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	verifier := verification.NewVerifierWithDependencies(
		cfg.Cache,
		store,
		fetch.New(5*time.Second, "visualverify-test", 1<<20),
		evidence.NewCollector(nil, nil),
		nil,
	)
	mgr := workflow.NewManagerWithNotifier(cfg, store, nil, nopNotifier{})
	mgr.ConfigureStage(verification.StageName, verifier)
	d, err := daemon.New(cfg, store, nil, mgr)
	require.NoError(t, err)
	return d, store
}

func startDaemon(t *testing.T, cfg *config.Config) (*daemon.Daemon, string) {
	t.Helper()
	d, _ := newDaemon(t, cfg)
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(d.Stop)
	return d, "http://" + d.Address()
}

func doJSON(t *testing.T, method, url, token string, body any, dst any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dst != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp.StatusCode
}

func TestDaemonVerifiesSubmittedImage(t *testing.T) {
	png := testsupport.PNG(t, 64, 64)
	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(png)
	}))
	t.Cleanup(images.Close)

	_, base := startDaemon(t, testsupport.NewConfig(t))

	var submitted api.SubmitResponse
	code := doJSON(t, http.MethodPost, base+"/api/verify", "", api.SubmitRequest{
		ImageURL:  images.URL + "/photo.png",
		UserClaim: "protest downtown",
	}, &submitted)
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "pending", submitted.Status)
	require.NotZero(t, submitted.JobID)

	var job api.Job
	require.Eventually(t, func() bool {
		job = api.Job{}
		doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/result/%d", base, submitted.JobID), "", nil, &job)
		return job.Status == "completed"
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, "UNVERIFIED", job.Verdict)
	assert.NotEmpty(t, job.RequestID)
	require.NotNil(t, job.Fingerprint)
	assert.NotEmpty(t, job.Fingerprint.ContentHash)

	var list api.JobListResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"/api/jobs?status=completed", "", nil, &list))
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, submitted.JobID, list.Jobs[0].ID)
}

func TestDaemonRejectsInvalidSubmissions(t *testing.T) {
	_, base := startDaemon(t, testsupport.NewConfig(t))

	var errResp api.ErrorResponse
	code := doJSON(t, http.MethodPost, base+"/api/verify", "", api.SubmitRequest{ImageURL: "ftp://example.com/a.png"}, &errResp)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid image_url", errResp.Error)

	code = doJSON(t, http.MethodPost, base+"/api/verify", "", api.SubmitRequest{}, &errResp)
	assert.Equal(t, http.StatusBadRequest, code)

	resp, err := http.Post(base+"/api/verify", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDaemonResultNotFoundAndBadID(t *testing.T) {
	_, base := startDaemon(t, testsupport.NewConfig(t))

	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, base+"/api/result/999", "", nil, nil))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, base+"/api/result/abc", "", nil, nil))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, base+"/api/jobs?status=bogus", "", nil, nil))
}

func TestDaemonHealthStatusAndIndex(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFeeds("https://news.example/rss"))
	_, base := startDaemon(t, cfg)

	var health api.HealthResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"/health", "", nil, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.False(t, health.APIKeysConfigured)

	var status api.DaemonStatus
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"/api/status", "", nil, &status))
	assert.True(t, status.Running)
	assert.True(t, status.Workflow.Running)
	assert.Equal(t, []string{"feeds"}, status.Providers)
	require.Len(t, status.Workflow.StageHealth, 1)
	assert.Equal(t, verification.StageName, status.Workflow.StageHealth[0].Name)

	resp, err := http.Get(base + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestDaemonRequiresBearerTokenWhenConfigured(t *testing.T) {
	_, base := startDaemon(t, testsupport.NewConfig(t, testsupport.WithAPIToken("secret")))

	assert.Equal(t, http.StatusUnauthorized, doJSON(t, http.MethodGet, base+"/api/status", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, http.MethodGet, base+"/api/status", "wrong", nil, nil))
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"/api/status", "secret", nil, nil))
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"/health", "", nil, nil))
}

func TestDaemonEnforcesSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	require.NoError(t, cfg.EnsureDirectories())

	first, _ := newDaemon(t, cfg)
	require.NoError(t, first.Start(context.Background()))
	t.Cleanup(first.Stop)

	second, _ := newDaemon(t, cfg)
	err := second.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	first.Stop()
	assert.False(t, first.Status(context.Background()).Running)
}
