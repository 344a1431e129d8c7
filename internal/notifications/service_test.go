package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wax/internal/config"
	"wax/internal/notifications"
	"wax/internal/services"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var requests []capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func ntfyOnlyConfig(endpoint string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.Desktop = false
	cfg.Notifications.NtfyTopic = endpoint
	return &cfg
}

func TestNewServiceReturnsNoopWhenNothingEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.Desktop = false
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyError(context.Background(), errors.New("boom"), ""); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyErrorUsesErrorPrefix(t *testing.T) {
	server, requests := newNtfyServer(t)
	svc := notifications.NewService(ntfyOnlyConfig(server.URL))

	err := svc.NotifyError(context.Background(), services.Precondition("obs", "OBS is not running"), "start session")
	if err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected one request, got %d", len(*requests))
	}
	got := (*requests)[0]
	if got.body != "ERROR: OBS is not running\nWhile: start session" {
		t.Fatalf("unexpected body %q", got.body)
	}
	if got.priority != "high" || got.title != "wax - Error" {
		t.Fatalf("unexpected headers %#v", got)
	}
}

func TestSessionNotifications(t *testing.T) {
	server, requests := newNtfyServer(t)
	svc := notifications.NewService(ntfyOnlyConfig(server.URL))
	ctx := context.Background()

	if err := svc.NotifySessionStarted(ctx, "2026-10-16T09-30-00", []string{"OBS", "Editor", "Git"}); err != nil {
		t.Fatalf("NotifySessionStarted: %v", err)
	}
	if err := svc.NotifySessionStopped(ctx, "2026-10-16T09-30-00", 1); err != nil {
		t.Fatalf("NotifySessionStopped: %v", err)
	}
	if err := svc.NotifyWarning(ctx, "No rules found for grammar", "slap in keys.talon"); err != nil {
		t.Fatalf("NotifyWarning: %v", err)
	}

	got := *requests
	if len(got) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(got))
	}
	if !strings.Contains(got[0].body, "Recorders: OBS, Editor, Git") || got[0].tags != "wax,session,started" {
		t.Fatalf("unexpected start notice %#v", got[0])
	}
	if got[1].body != "Session 2026-10-16T09-30-00 stopped after 1 phrase" {
		t.Fatalf("unexpected stop notice %q", got[1].body)
	}
	if got[2].title != "No rules found for grammar" || got[2].priority != "" {
		t.Fatalf("unexpected warning %#v", got[2])
	}
}

func TestNtfyFailureIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "topic disabled", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	svc := notifications.NewService(ntfyOnlyConfig(server.URL))
	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
