package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"visualverify/internal/config"
	"visualverify/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "recycled verdict",
			event: notifications.EventVerdict,
			payload: notifications.Payload{
				"verdict":     "RECYCLED",
				"confidence":  0.9,
				"imageURL":    "https://img.example/flood.jpg",
				"explanation": "OLD IMAGE REUSED: Image from 2017 being shared as 2024 event",
			},
			expectTitle:    "visualverify - RECYCLED",
			expectMessage:  "RECYCLED (90% confidence)\nImage: https://img.example/flood.jpg\nOLD IMAGE REUSED: Image from 2017 being shared as 2024 event",
			expectTags:     "visualverify,verdict,recycled,warning",
			expectPriority: "high",
		},
		{
			name:  "job failed",
			event: notifications.EventJobFailed,
			payload: notifications.Payload{
				"imageURL": "https://img.example/missing.jpg",
				"error":    "image host returned 404",
			},
			expectTitle:    "visualverify - Job Failed",
			expectMessage:  "Verification failed for https://img.example/missing.jpg: image host returned 404",
			expectTags:     "visualverify,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "visualverify - Test",
			expectMessage:  "Notification system test",
			expectTags:     "visualverify,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceIgnoresSuppressedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for suppressed event: %s", r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.FlaggedOnly = true

	svc := notifications.NewService(&cfg)
	suppressed := []struct {
		event   notifications.Event
		payload notifications.Payload
	}{
		{notifications.EventVerdict, notifications.Payload{"verdict": "TRUE", "confidence": 0.85}},
		{notifications.EventVerdict, notifications.Payload{"verdict": "UNVERIFIED", "confidence": 0.4}},
		{notifications.EventVerdict, notifications.Payload{"verdict": "ERROR"}},
		{notifications.Event("unknown"), notifications.Payload{"value": "ignored"}},
	}
	for _, s := range suppressed {
		if err := svc.Publish(context.Background(), s.event, s.payload); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", s.event, err)
		}
	}

	cfg.Notifications.Errors = false
	svc = notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventJobFailed, notifications.Payload{"error": "boom"}); err != nil {
		t.Fatalf("expected no error when failure notifications are disabled, got %v", err)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic not found", http.StatusNotFound)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
