package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wax/internal/config"
	"wax/internal/services"
)

const userAgent = "wax/0.1.0"

// Service defines the notification surface exposed to session components.
type Service interface {
	NotifySessionStarted(ctx context.Context, sessionID string, recorders []string) error
	NotifySessionStopped(ctx context.Context, sessionID string, phrases int) error
	NotifyWarning(ctx context.Context, title, detail string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds the configured notifiers. Desktop notifications and ntfy
// can be enabled together; with neither, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	var targets []notifier
	if cfg.Notifications.Desktop {
		targets = append(targets, desktopNotifier{})
	}
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		targets = append(targets, &ntfyNotifier{
			endpoint: topic,
			client:   &http.Client{Timeout: timeout},
		})
	}
	if len(targets) == 0 {
		return noopService{}
	}
	return &service{targets: targets}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

// notifier is a single delivery transport.
type notifier interface {
	send(ctx context.Context, data payload) error
}

type service struct {
	targets []notifier
}

func (s *service) NotifySessionStarted(ctx context.Context, sessionID string, recorders []string) error {
	message := fmt.Sprintf("Recording session %s started", strings.TrimSpace(sessionID))
	if len(recorders) > 0 {
		message = fmt.Sprintf("%s\nRecorders: %s", message, strings.Join(recorders, ", "))
	}
	return s.publish(ctx, payload{
		title:   "wax - Recording",
		message: message,
		tags:    []string{"wax", "session", "started"},
	})
}

func (s *service) NotifySessionStopped(ctx context.Context, sessionID string, phrases int) error {
	noun := "phrases"
	if phrases == 1 {
		noun = "phrase"
	}
	return s.publish(ctx, payload{
		title:   "wax - Recording Stopped",
		message: fmt.Sprintf("Session %s stopped after %d %s", strings.TrimSpace(sessionID), phrases, noun),
		tags:    []string{"wax", "session", "stopped"},
	})
}

func (s *service) NotifyWarning(ctx context.Context, title, detail string) error {
	return s.publish(ctx, payload{
		title:   strings.TrimSpace(title),
		message: strings.TrimSpace(detail),
		tags:    []string{"wax", "warning"},
	})
}

// NotifyError shows err prefixed with "ERROR:". Precondition failures keep
// their own message so the user sees exactly what to fix.
func (s *service) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("ERROR: ")
	builder.WriteString(services.UserMessage(err))
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString("\nWhile: ")
		builder.WriteString(contextLabel)
	}
	return s.publish(ctx, payload{
		title:    "wax - Error",
		message:  builder.String(),
		tags:     []string{"wax", "error", "alert"},
		priority: "high",
	})
}

func (s *service) TestNotification(ctx context.Context) error {
	return s.publish(ctx, payload{
		title:    "wax - Test",
		message:  "Notification system test",
		tags:     []string{"wax", "test"},
		priority: "low",
	})
}

// publish delivers to every target and joins the failures.
func (s *service) publish(ctx context.Context, data payload) error {
	var errs []error
	for _, target := range s.targets {
		if err := target.send(ctx, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type ntfyNotifier struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyNotifier) send(ctx context.Context, data payload) error {
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

func (noopService) NotifySessionStarted(context.Context, string, []string) error { return nil }
func (noopService) NotifySessionStopped(context.Context, string, int) error      { return nil }
func (noopService) NotifyWarning(context.Context, string, string) error          { return nil }
func (noopService) NotifyError(context.Context, error, string) error             { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }

// NewNoop returns a Service that drops every notification.
func NewNoop() Service {
	return noopService{}
}
