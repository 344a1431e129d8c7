package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"wax/internal/config"
	"wax/internal/daemon"
	"wax/internal/ipc"
	"wax/internal/logging"
	"wax/internal/orchestrator"
	"wax/internal/recorders"
	"wax/internal/recording"
	"wax/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	keys       *testsupport.KeyLog
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	cfg := testsupport.NewConfig(t, testsupport.WithRecorders("hotkey"), testsupport.WithStubbedBinaries())
	cfg.Hotkey.StartShortcut = "ctrl+shift+r"
	cfg.Hotkey.StopShortcut = "ctrl+shift+s"

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	index := testsupport.MustOpenIndex(t, cfg)
	keys := &testsupport.KeyLog{}

	var mu sync.Mutex
	tick := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}

	d, err := daemon.New(cfg, index, logging.NewNop(),
		daemon.WithNotifier(&testsupport.RecordingNotifier{}),
		daemon.WithRecorderDeps(func(deps *recorders.Deps) { deps.Keys = keys }),
		daemon.WithOrchestratorOptions(
			orchestrator.WithMarker(&testsupport.FakeMarker{}),
			orchestrator.WithRepositoryRecorder(func() recording.Recorder {
				return testsupport.NewFakeRecorder("git", nil)
			}),
			orchestrator.WithClock(now, func(time.Duration) {}),
		),
	)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon start: %v", err)
	}
	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logging.NewNop())
	if err != nil {
		cancel()
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		keys:       keys,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Stop()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, socket, configPath, nil)
}

func runCLIWithInput(t *testing.T, args []string, socket, configPath string, stdin io.Reader) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
recordings_dir = %q
log_dir = %q
user_dir = %q
host_dir = %q

[session]
recorder_delay_ms = 0
default_recorders = ["hotkey"]

[calibration]
duration_ms = 1

[hotkey]
start_shortcut = %q
stop_shortcut = %q
settle_ms = 0

[notifications]
desktop = false
`,
		cfg.Paths.RecordingsDir,
		cfg.Paths.LogDir,
		cfg.Paths.UserDir,
		cfg.Paths.HostDir,
		cfg.Hotkey.StartShortcut,
		cfg.Hotkey.StopShortcut,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
