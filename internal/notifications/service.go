package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"jellysports/internal/config"
)

const userAgent = "jellysports/0.1"

// Service is the notification surface used by the daemon.
type Service interface {
	NotifyRejected(ctx context.Context, path, reason string) error
	NotifyUnmatched(ctx context.Context, path, show, title string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when a topic is
// configured and a noop implementation otherwise.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		unmatched: cfg.Notifications.NotifyUnmatched,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	unmatched bool
}

func (n *ntfyService) NotifyRejected(ctx context.Context, path, reason string) error {
	message := fmt.Sprintf("Could not name: %s", filepath.Base(path))
	if reason = strings.TrimSpace(reason); reason != "" {
		message += "\n" + reason
	}
	message += "\nRename the file or add an episode nfo"
	return n.send(ctx, payload{
		title:    "jellysports - Needs Review",
		message:  message,
		tags:     []string{"jellysports", "rejected", "review"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyUnmatched(ctx context.Context, path, show, title string) error {
	if !n.unmatched {
		return nil
	}
	return n.send(ctx, payload{
		title:   "jellysports - No Catalog Match",
		message: fmt.Sprintf("%s\nNamed from the file only: %s / %s", filepath.Base(path), strings.TrimSpace(show), strings.TrimSpace(title)),
		tags:    []string{"jellysports", "unmatched"},
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "jellysports - Error",
		message:  builder.String(),
		tags:     []string{"jellysports", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "jellysports - Test",
		message:  "Notification system test",
		tags:     []string{"jellysports", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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

type noopService struct{}

func (noopService) NotifyRejected(context.Context, string, string) error          { return nil }
func (noopService) NotifyUnmatched(context.Context, string, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error              { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
