package daemonctl_test

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"wax/internal/daemon"
	"wax/internal/daemonctl"
	"wax/internal/ipc"
	"wax/internal/logging"
	"wax/internal/testsupport"
)

func TestArgs(t *testing.T) {
	got := daemonctl.Args(daemonctl.LaunchOptions{SocketPath: "/tmp/wax.sock", ConfigPath: " "})
	want := []string{"daemon", "--socket", "/tmp/wax.sock"}
	if !slices.Equal(got, want) {
		t.Fatalf("Args = %v, want %v", got, want)
	}
}

func TestWaitForClientTimesOut(t *testing.T) {
	_, err := daemonctl.WaitForClient(filepath.Join(t.TempDir(), "missing.sock"), 300*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "daemon failed to start") {
		t.Fatalf("expected start failure, got %v", err)
	}
}

func TestLaunchRejectsEmptyExecutable(t *testing.T) {
	if err := daemonctl.Launch(" ", daemonctl.LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable")
	}
}

func TestEnsureRunningReusesLiveDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRecorders("hotkey"))
	index := testsupport.MustOpenIndex(t, cfg)
	d, err := daemon.New(cfg, index, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon start: %v", err)
	}

	socket := filepath.Join(cfg.Paths.LogDir, "wax.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() { srv.Close() })

	// An empty executable would fail to launch, so success proves reuse.
	result, err := daemonctl.EnsureRunning(socket, "", daemonctl.LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureRunning: %v", err)
	}
	if result.Launched || result.PID == 0 {
		t.Fatalf("expected existing daemon, got %+v", result)
	}
}
