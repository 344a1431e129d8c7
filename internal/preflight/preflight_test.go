package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"wax/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckUserDir_MissingPasses(t *testing.T) {
	result := CheckUserDir(filepath.Join(t.TempDir(), "user"))
	if !result.Passed {
		t.Fatalf("missing user dir should pass, got %s", result.Detail)
	}
}

func TestCheckEditor(t *testing.T) {
	bridge := filepath.Join(t.TempDir(), "bridge")
	testsupport.WriteScript(t, bridge, `[ "$1" = ping ] && exit 0; exit 1`)

	if result := CheckEditor(context.Background(), bridge, time.Second); !result.Passed {
		t.Fatalf("expected reachable editor, got %s", result.Detail)
	}

	down := filepath.Join(t.TempDir(), "down")
	testsupport.WriteScript(t, down, "echo 'not running' >&2; exit 3")
	if result := CheckEditor(context.Background(), down, time.Second); result.Passed {
		t.Fatal("expected failure when the bridge cannot reach the editor")
	}

	if result := CheckEditor(context.Background(), "", time.Second); result.Passed {
		t.Fatal("expected failure for unset bridge")
	}
}

func TestCheckOBS_OK(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"op":0,"d":{"obsWebSocketVersion":"5.4.2","rpcVersion":1}}`))
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"op":2,"d":{"negotiatedRpcVersion":1}}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	result := CheckOBS(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), "")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "5.4.2") {
		t.Fatalf("expected server version in detail, got %q", result.Detail)
	}
}

func TestCheckOBS_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	if result := CheckOBS(context.Background(), url, ""); result.Passed {
		t.Fatal("expected failure for closed server")
	}
	if result := CheckOBS(context.Background(), "", ""); result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	cfg.Session.DefaultRecorders = []string{"editor"}
	cfg.Editor.BridgeCommand = ""

	results := RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected directory checks plus editor, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Editor bridge" {
		t.Fatalf("expected only the editor check to fail, got %#v", failed)
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("git"))
	cfg.Recognizer.SimCommand = "definitely-missing-sim --json"
	cfg.Editor.BridgeCommand = ""

	statuses := CheckSystemDeps(cfg)
	if len(statuses) < 2 {
		t.Fatalf("expected git and sim statuses, got %#v", statuses)
	}
	if statuses[0].Name != "git" || !statuses[0].Available {
		t.Fatalf("expected stubbed git to be available, got %#v", statuses[0])
	}
	for _, s := range statuses {
		if s.Name == "Sim command" && (s.Available || !s.Optional) {
			t.Fatalf("sim command should be optional and missing, got %#v", s)
		}
	}
}
