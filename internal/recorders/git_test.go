package recorders

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wax/internal/logging"
	"wax/internal/notifications"
	"wax/internal/recording"
	"wax/internal/services"
)

// gitFake answers git invocations per directory name.
type gitFake struct {
	remotes map[string]string
	dirty   map[string]bool
	broken  map[string]bool
	calls   []string
}

func (g *gitFake) Output(_ context.Context, cmd services.Command) ([]byte, error) {
	dir := filepath.Base(cmd.Dir)
	g.calls = append(g.calls, dir+":"+strings.Join(cmd.Args, " "))
	switch strings.Join(cmd.Args, " ") {
	case "config --get remote.origin.url":
		if remote, ok := g.remotes[dir]; ok {
			return []byte(remote + "\n"), nil
		}
		return nil, errors.New("exit status 1")
	case "status --porcelain":
		if g.broken[dir] {
			return nil, errors.New("fatal: not a git repository")
		}
		if g.dirty[dir] {
			return []byte(" M main.talon\n"), nil
		}
		return nil, nil
	case "rev-parse HEAD":
		return []byte("0123abcd\n"), nil
	case "rev-parse --show-prefix":
		if dir == "cursorless-talon" {
			return []byte("cursorless-talon/\n"), nil
		}
		return []byte("\n"), nil
	}
	return nil, errors.New("unexpected git call")
}

type memoryEvents struct {
	records []map[string]any
}

func (m *memoryEvents) Write(record map[string]any) error {
	m.records = append(m.records, record)
	return nil
}

type warningNotifier struct {
	notifications.Service
	warnings []string
}

func (w *warningNotifier) NotifyWarning(_ context.Context, title, detail string) error {
	w.warnings = append(w.warnings, title+": "+detail)
	return nil
}

func userDirWith(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range names {
		if err := os.Mkdir(filepath.Join(root, name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "settings.talon"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return root
}

func TestGitRecorderLogsTrackedDirectories(t *testing.T) {
	userDir := userDirWith(t, "community", "cursorless-talon", "scratch")
	fake := &gitFake{remotes: map[string]string{
		"community":        "https://github.com/talonhub/community",
		"cursorless-talon": "https://github.com/cursorless-dev/cursorless",
	}}
	rec := &GitRecorder{UserDir: userDir, Exec: fake, Logger: logging.NewNop()}
	events := &memoryEvents{}

	extra, err := rec.Start(context.Background(), &recording.Context{Dir: t.TempDir(), Events: events})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if extra != nil {
		t.Fatalf("git recorder adds nothing to initialInfo, got %v", extra)
	}
	if len(events.records) != 2 {
		t.Fatalf("expected one record per tracked directory, got %d", len(events.records))
	}
	first, second := events.records[0], events.records[1]
	if first["type"] != "directoryInfo" || first["localPath"] != filepath.Join(userDir, "community") {
		t.Fatalf("unexpected first record %v", first)
	}
	if first["commitSha"] != "0123abcd" || first["repoPrefix"] != "" {
		t.Fatalf("unexpected revision fields %v", first)
	}
	if second["repoPrefix"] != "cursorless-talon/" || second["repoRemoteUrl"] != "https://github.com/cursorless-dev/cursorless" {
		t.Fatalf("unexpected second record %v", second)
	}
}

func TestGitRecorderDirtyTreeWarnsByDefault(t *testing.T) {
	userDir := userDirWith(t, "community")
	fake := &gitFake{
		remotes: map[string]string{"community": "git@github.com:talonhub/community"},
		dirty:   map[string]bool{"community": true},
	}
	notifier := &warningNotifier{}
	rec := &GitRecorder{UserDir: userDir, Exec: fake, Notifier: notifier}

	if err := rec.CheckCanStart(context.Background()); err != nil {
		t.Fatalf("dirty tree should only warn, got %v", err)
	}
	if len(notifier.warnings) != 1 || !strings.Contains(notifier.warnings[0], "community") {
		t.Fatalf("expected a warning naming the directory, got %v", notifier.warnings)
	}

	rec.RequireClean = true
	err := rec.CheckCanStart(context.Background())
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition failure with require_clean, got %v", err)
	}
	if !strings.Contains(services.UserMessage(err), "Please commit all git changes") {
		t.Fatalf("unexpected message %q", services.UserMessage(err))
	}
}

func TestGitRecorderUnreadableStatusIsNotClean(t *testing.T) {
	userDir := userDirWith(t, "community")
	fake := &gitFake{
		remotes: map[string]string{"community": "git@github.com:talonhub/community"},
		broken:  map[string]bool{"community": true},
	}
	notifier := &warningNotifier{}
	rec := &GitRecorder{UserDir: userDir, Exec: fake, Notifier: notifier}

	if err := rec.CheckCanStart(context.Background()); err != nil {
		t.Fatalf("unreadable status should only warn by default, got %v", err)
	}
	if len(notifier.warnings) != 1 || !strings.Contains(notifier.warnings[0], "community (status unreadable)") {
		t.Fatalf("expected a warning for the unreadable directory, got %v", notifier.warnings)
	}

	rec.RequireClean = true
	err := rec.CheckCanStart(context.Background())
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition failure with require_clean, got %v", err)
	}
	if !strings.Contains(services.UserMessage(err), "not a git repository") {
		t.Fatalf("unexpected message %q", services.UserMessage(err))
	}
}

func TestGitRecorderMissingUserDir(t *testing.T) {
	rec := &GitRecorder{UserDir: filepath.Join(t.TempDir(), "absent"), Exec: &gitFake{}}
	if err := rec.CheckCanStart(context.Background()); err != nil {
		t.Fatalf("missing user dir should not block start: %v", err)
	}
	events := &memoryEvents{}
	if _, err := rec.Start(context.Background(), &recording.Context{Events: events}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(events.records) != 0 {
		t.Fatalf("expected no records, got %v", events.records)
	}
}
