package daemon_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"wax/internal/config"
	"wax/internal/daemon"
	"wax/internal/eventlog"
	"wax/internal/logging"
	"wax/internal/orchestrator"
	"wax/internal/pipeline"
	"wax/internal/recognizer"
	"wax/internal/recorders"
	"wax/internal/recording"
	"wax/internal/services"
	"wax/internal/sessionindex"
	"wax/internal/testsupport"
)

type fixture struct {
	cfg      *config.Config
	keys     *testsupport.KeyLog
	notifier *testsupport.RecordingNotifier
	index    *sessionindex.Index
	daemon   *daemon.Daemon
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithRecorders("hotkey"))
	cfg.Hotkey.StartShortcut = "ctrl+shift+r"
	cfg.Hotkey.StopShortcut = "ctrl+shift+s"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return cfg
}

func newDaemon(t *testing.T, cfg *config.Config, extra ...daemon.Option) *fixture {
	t.Helper()
	f := &fixture{
		cfg:      cfg,
		keys:     &testsupport.KeyLog{},
		notifier: &testsupport.RecordingNotifier{},
		index:    testsupport.MustOpenIndex(t, cfg),
	}

	var mu sync.Mutex
	tick := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}

	opts := []daemon.Option{
		daemon.WithNotifier(f.notifier),
		daemon.WithRecorderDeps(func(deps *recorders.Deps) { deps.Keys = f.keys }),
		daemon.WithOrchestratorOptions(
			orchestrator.WithMarker(&testsupport.FakeMarker{}),
			orchestrator.WithRepositoryRecorder(func() recording.Recorder {
				return testsupport.NewFakeRecorder("git", nil)
			}),
			orchestrator.WithClock(now, func(time.Duration) {}),
		),
	}
	d, err := daemon.New(cfg, f.index, logging.NewNop(), append(opts, extra...)...)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	f.daemon = d
	t.Cleanup(func() { d.Stop() })
	return f
}

func TestDaemonStartStop(t *testing.T) {
	f := newDaemon(t, testConfig(t))
	ctx := context.Background()

	if err := f.daemon.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := f.daemon.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.Session != nil {
		t.Fatal("expected no live session")
	}

	// Second start should fail
	if err := f.daemon.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	f.daemon.Stop()
	status = f.daemon.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestSecondInstanceIsLockedOut(t *testing.T) {
	cfg := testConfig(t)
	first := newDaemon(t, cfg)
	if err := first.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	second, err := daemon.New(cfg, first.index, logging.NewNop(), daemon.WithNotifier(first.notifier))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected lock contention")
	}
}

func TestSessionLifecycleThroughDaemon(t *testing.T) {
	f := newDaemon(t, testConfig(t))
	ctx := context.Background()
	if err := f.daemon.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	info, err := f.daemon.StartSession(ctx, nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if !slices.Equal(info.Recorders, []string{"hotkey", "git"}) {
		t.Fatalf("unexpected recorders %v", info.Recorders)
	}
	if !slices.Equal(f.keys.Pressed(), []string{"r"}) {
		t.Fatalf("expected start shortcut, got %v", f.keys.Pressed())
	}

	status := f.daemon.Status(ctx)
	if status.Session == nil || status.Session.ID != info.ID {
		t.Fatalf("status should report live session %s, got %#v", info.ID, status.Session)
	}

	text := "go left"
	pre, err := f.daemon.PrePhrase(ctx, recognizer.PrePhrase{Text: &text, Now: 100})
	if err != nil {
		t.Fatalf("PrePhrase: %v", err)
	}
	if pre.Outcome != pipeline.OutcomeOpened {
		t.Fatalf("expected opened phrase, got %s", pre.Outcome)
	}
	if err := f.daemon.Screenshot(ctx, "  popup  "); err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	post, err := f.daemon.PostPhrase(ctx, recognizer.PostPhrase{Now: 101})
	if err != nil {
		t.Fatalf("PostPhrase: %v", err)
	}
	if post.Outcome != pipeline.OutcomeClosed || post.PhraseID != pre.PhraseID {
		t.Fatalf("unexpected post result %#v", post)
	}

	stopped, err := f.daemon.StopSession(ctx)
	if err != nil {
		t.Fatalf("StopSession: %v", err)
	}
	if stopped.Phrases != 1 {
		t.Fatalf("expected one phrase, got %d", stopped.Phrases)
	}
	if !slices.Equal(f.keys.Pressed(), []string{"r", "s"}) {
		t.Fatalf("expected stop shortcut, got %v", f.keys.Pressed())
	}

	entries, err := f.daemon.ListSessions(ctx, 10)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != sessionindex.StatusStopped || entries[0].Phrases != 1 {
		t.Fatalf("unexpected index entries %#v", entries)
	}

	if _, err := f.daemon.StopSession(ctx); !errors.Is(err, services.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestStartSessionRejectsUnknownRecorder(t *testing.T) {
	f := newDaemon(t, testConfig(t))
	_, err := f.daemon.StartSession(context.Background(), []string{"camera"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if f.daemon.Status(context.Background()).Session != nil {
		t.Fatal("no session should be live")
	}
}

func TestDaemonStopEndsLiveSession(t *testing.T) {
	f := newDaemon(t, testConfig(t))
	ctx := context.Background()
	if err := f.daemon.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	info, err := f.daemon.StartSession(ctx, []string{"hotkey"})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	f.daemon.Stop()

	entry, err := f.index.Get(ctx, info.ID)
	if err != nil || entry == nil {
		t.Fatalf("Get: %v %v", entry, err)
	}
	if entry.Status != sessionindex.StatusStopped {
		t.Fatalf("shutdown should stop the session, got %s", entry.Status)
	}
}

func TestScreenshotWithoutSession(t *testing.T) {
	f := newDaemon(t, testConfig(t))
	if err := f.daemon.Screenshot(context.Background(), "x"); !errors.Is(err, services.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestStartMarksStaleSessionsInterrupted(t *testing.T) {
	f := newDaemon(t, testConfig(t))
	ctx := context.Background()
	stale := orchestrator.Info{ID: "stale", Dir: "/rec/stale", StartedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := f.index.SessionCreated(ctx, stale); err != nil {
		t.Fatalf("SessionCreated: %v", err)
	}

	if err := f.daemon.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	entry, err := f.index.Get(ctx, "stale")
	if err != nil || entry == nil {
		t.Fatalf("Get: %v %v", entry, err)
	}
	if entry.Status != sessionindex.StatusInterrupted {
		t.Fatalf("expected interrupted, got %s", entry.Status)
	}
}

func TestStartPointsCurrentLogAtRunLog(t *testing.T) {
	cfg := testConfig(t)
	index := testsupport.MustOpenIndex(t, cfg)
	runLog := logging.RunLogPath(cfg.Paths.LogDir, time.Now())
	if err := os.WriteFile(runLog, []byte("run\n"), 0o644); err != nil {
		t.Fatalf("write run log: %v", err)
	}

	d, err := daemon.New(cfg, index, logging.NewNop(), daemon.WithRunLog(runLog))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Stop() })
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	content, err := os.ReadFile(cfg.DaemonLogPath())
	if err != nil {
		t.Fatalf("read current log pointer: %v", err)
	}
	if string(content) != "run\n" {
		t.Fatalf("current log pointer content = %q", content)
	}
	if got := d.Status(context.Background()).LogPath; got != runLog {
		t.Fatalf("status log path = %q, want %q", got, runLog)
	}
}

type simExecutor struct {
	mu    sync.Mutex
	calls []services.Command
}

func (e *simExecutor) Output(_ context.Context, cmd services.Command) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, cmd)
	return []byte("[1] \"go left\"\n   path: user/nav.talon\n   rule: \"go left\"\n"), nil
}

func TestPhraseTraceUsesDaemonExecutor(t *testing.T) {
	cfg := testConfig(t)
	cfg.Recognizer.SimCommand = "sim --verbose"
	exec := &simExecutor{}
	f := newDaemon(t, cfg,
		daemon.WithExecutor(exec),
		daemon.WithPipelineOptions(pipeline.WithIDs(func() string { return "fixed-id" })),
	)
	ctx := context.Background()
	if err := f.daemon.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	info, err := f.daemon.StartSession(ctx, nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	text := "go left"
	pre, err := f.daemon.PrePhrase(ctx, recognizer.PrePhrase{Text: &text, Now: 100})
	if err != nil || pre.PhraseID != "fixed-id" {
		t.Fatalf("expected fixed-id, got %+v %v", pre, err)
	}
	if _, err := f.daemon.PostPhrase(ctx, recognizer.PostPhrase{Now: 101}); err != nil {
		t.Fatalf("PostPhrase: %v", err)
	}

	if len(exec.calls) != 1 {
		t.Fatalf("expected one trace call, got %#v", exec.calls)
	}
	call := exec.calls[0]
	if call.Binary != "sim" || !slices.Equal(call.Args, []string{"--verbose", "go left"}) {
		t.Fatalf("unexpected trace command %#v", call)
	}

	entries, err := f.daemon.ListSessions(ctx, 1)
	if err != nil || len(entries) != 1 || entries[0].ID != info.ID {
		t.Fatalf("ListSessions: %#v %v", entries, err)
	}
	records := testsupport.ReadJSONL(t, filepath.Join(entries[0].Dir, eventlog.FileName))
	command := testsupport.RecordsOfType(records, "talonCommandPhrase")
	if len(command) != 1 || command[0]["id"] != "fixed-id" || command[0]["rawSim"] == nil {
		t.Fatalf("trace must land on the command record, got %v", command)
	}
}
