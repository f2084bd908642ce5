package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"visualverify/internal/queue"
	"visualverify/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "fetch", "download", "status 503", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"fetch", "download", "status 503"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestFailureStatusMapping(t *testing.T) {
	timeout := services.Wrap(services.ErrTimeout, "fetch", "download", "deadline", nil)
	if status := services.FailureStatus(timeout, 1, 3); status != queue.StatusPending {
		t.Fatalf("expected pending for retryable error, got %s", status)
	}
	if status := services.FailureStatus(timeout, 3, 3); status != queue.StatusFailed {
		t.Fatalf("expected failed once attempts are exhausted, got %s", status)
	}
	invalid := services.Wrap(services.ErrValidation, "fetch", "download", "bad url", nil)
	if status := services.FailureStatus(invalid, 0, 3); status != queue.StatusFailed {
		t.Fatalf("expected failed for validation error, got %s", status)
	}
	if status := services.FailureStatus(nil, 0, 3); status != queue.StatusFailed {
		t.Fatalf("expected failed for nil error, got %s", status)
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, 42)
	ctx = services.WithStage(ctx, "verify")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected job id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "verify" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := services.WithRequestID(services.WithStage(context.Background(), ""), "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("blank stage should not be stored")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("blank request id should not be stored")
	}
	if _, ok := services.JobIDFromContext(ctx); ok {
		t.Fatal("job id should be absent")
	}
}
