package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tarpagad/yt2tg/internal/config"
)

const userAgent = "yt2tg/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyDeliveryCompleted(ctx context.Context, title string) error
	NotifyDeliveryFailed(ctx context.Context, title, reason string) error
	NotifyCycleCompleted(ctx context.Context, delivered, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
		delivery: cfg.Notifications.Delivery,
		cycle:    cfg.Notifications.Cycle,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	delivery bool
	cycle    bool
	errors   bool
}

func (n *ntfyService) NotifyDeliveryCompleted(ctx context.Context, title string) error {
	if !n.delivery {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "yt2tg - Delivered",
		message: fmt.Sprintf("Delivered to Telegram: %s", title),
		tags:    []string{"yt2tg", "delivery", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDeliveryFailed(ctx context.Context, title, reason string) error {
	if !n.delivery {
		return nil
	}
	title = strings.TrimSpace(title)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:    "yt2tg - Delivery Failed",
		message:  fmt.Sprintf("Failed to deliver %s: %s", title, reason),
		tags:     []string{"yt2tg", "delivery", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCycleCompleted(ctx context.Context, delivered, failed int, duration time.Duration) error {
	if !n.cycle {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title string
	var message string
	if failed == 0 {
		title = "yt2tg - Cycle Complete"
		message = fmt.Sprintf("Poll cycle complete: %d items delivered in %s", delivered, durationText)
	} else {
		title = "yt2tg - Cycle Complete (with errors)"
		message = fmt.Sprintf("Poll cycle complete: %d delivered, %d failed in %s", delivered, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"yt2tg", "cycle", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
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

	data := payload{
		title:    "yt2tg - Error",
		message:  builder.String(),
		tags:     []string{"yt2tg", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "yt2tg - Test",
		message:  "Notification system test",
		tags:     []string{"yt2tg", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
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

func (noopService) NotifyDeliveryCompleted(context.Context, string) error               { return nil }
func (noopService) NotifyDeliveryFailed(context.Context, string, string) error          { return nil }
func (noopService) NotifyCycleCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
