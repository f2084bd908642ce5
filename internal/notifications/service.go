package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"visualverify/internal/config"
	"visualverify/internal/verify"
)

const userAgent = "visualverify/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventVerdict   Event = "verdict"
	EventJobFailed Event = "job_failed"
	EventTest      Event = "test"
)

// Payload carries event fields. Known keys: jobID, imageURL, verdict,
// confidence, explanation, cached, error.
type Payload map[string]any

// Service publishes notification events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	n := cfg.Notifications
	topic := strings.TrimSpace(n.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(n.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		verdicts:    n.Verdicts,
		flaggedOnly: n.FlaggedOnly,
		errors:      n.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	verdicts    bool
	flaggedOnly bool
	errors      bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventVerdict:
		if !n.verdicts {
			return message{}, false
		}
		verdict, _ := verify.ParseVerdict(payload.str("verdict"))
		if verdict == verify.VerdictError {
			return message{}, false
		}
		if n.flaggedOnly && !verdict.Flagged() {
			return message{}, false
		}
		return verdictMessage(verdict, payload), true
	case EventJobFailed:
		if !n.errors {
			return message{}, false
		}
		body := "Verification failed"
		if url := payload.str("imageURL"); url != "" {
			body += " for " + url
		}
		if errText := payload.str("error"); errText != "" {
			body += ": " + errText
		}
		return message{
			title:    "visualverify - Job Failed",
			body:     body,
			tags:     []string{"visualverify", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "visualverify - Test",
			body:     "Notification system test",
			tags:     []string{"visualverify", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func verdictMessage(verdict verify.Verdict, payload Payload) message {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%.0f%% confidence)", verdict, payload.float("confidence")*100)
	if url := payload.str("imageURL"); url != "" {
		b.WriteString("\nImage: ")
		b.WriteString(url)
	}
	if explanation := payload.str("explanation"); explanation != "" {
		b.WriteString("\n")
		b.WriteString(explanation)
	}
	msg := message{
		title: "visualverify - " + string(verdict),
		body:  b.String(),
		tags:  []string{"visualverify", "verdict", strings.ToLower(string(verdict))},
	}
	if verdict.Flagged() {
		msg.tags = append(msg.tags, "warning")
		msg.priority = "high"
	}
	return msg
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p Payload) str(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (p Payload) float(key string) float64 {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
