package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"wax/internal/ipc"
	"wax/internal/services"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	deps := []ipc.DependencyStatus{
		{Name: "git", Available: false},
		{Name: "Editor bridge", Available: true, Command: "cursorless-bridge"},
		{Name: "Sim command", Available: false, Optional: true, Detail: "binary \"talon-sim\" not found"},
	}
	lines := dependencyLines(deps, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[ERROR] not available") {
		t.Fatalf("expected error detail in first line, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "[OK] Ready (command: cursorless-bridge)") {
		t.Fatalf("expected ready detail in second line, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[WARN]") {
		t.Fatalf("optional dependency should warn, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "Missing dependencies:") || strings.Contains(lines[3], "Sim command") {
		t.Fatalf("summary should list required dependencies only, got %q", lines[3])
	}
}

func TestSessionLines(t *testing.T) {
	lines := sessionLines(nil, false)
	if len(lines) != 1 || !strings.Contains(lines[0], "Not recording") {
		t.Fatalf("unexpected idle lines %v", lines)
	}

	origin := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	lines = sessionLines(&ipc.SessionInfo{
		ID:          "2026-06-01T10-00-00",
		Recorders:   []string{"obs", "git"},
		Phrases:     3,
		ClockOrigin: &origin,
	}, false)
	joined := strings.Join(lines, "\n")
	for _, want := range []string{"Recording 2026-06-01T10-00-00", "obs, git", "3 (open: no)", "[OK] Started"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in\n%s", want, joined)
		}
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestExitCodes(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.Wrap(services.ErrConfiguration, "recorders", "build", "unknown recorder", nil), 2},
		{services.Precondition("obs", "Please launch OBS"), 3},
		{services.FromKind("no_session", "Nothing is recording"), 4},
		{errors.New("boom"), 1},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
	if got := errorMessage(services.Precondition("obs", "Please launch OBS")); got != "Cannot start recording: Please launch OBS" {
		t.Fatalf("unexpected message %q", got)
	}
}
