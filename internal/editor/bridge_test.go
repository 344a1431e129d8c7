package editor_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"wax/internal/editor"
	"wax/internal/services"
)

type recordingExecutor struct {
	calls  []services.Command
	output map[string]string
	err    error
}

func (r *recordingExecutor) Output(_ context.Context, cmd services.Command) ([]byte, error) {
	r.calls = append(r.calls, cmd)
	if r.err != nil {
		return nil, r.err
	}
	verb := cmd.Args[len(cmd.Args)-1]
	return []byte(r.output[verb]), nil
}

func TestBridgeRunSendsCommandOnStdin(t *testing.T) {
	exec := &recordingExecutor{output: map[string]string{"run": `{"sessionId": "abc"}` + "\n"}}
	bridge := &editor.Bridge{Command: "cursorless-bridge --socket /tmp/x", Exec: exec}

	out, err := bridge.Run(context.Background(), "cursorless.recordTestCase", map[string]any{"isSilent": true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(out) != `{"sessionId": "abc"}` {
		t.Fatalf("unexpected output %s", out)
	}

	call := exec.calls[0]
	if call.Binary != "cursorless-bridge" || call.Args[0] != "--socket" || call.Args[2] != "run" {
		t.Fatalf("unexpected invocation %#v", call)
	}
	var req struct {
		Command string           `json:"command"`
		Args    []map[string]any `json:"args"`
	}
	if err := json.Unmarshal(call.Stdin, &req); err != nil {
		t.Fatalf("decode stdin: %v", err)
	}
	if req.Command != "cursorless.recordTestCase" || req.Args[0]["isSilent"] != true {
		t.Fatalf("unexpected request %#v", req)
	}
}

func TestBridgeRunEmptyOutputIsNull(t *testing.T) {
	bridge := &editor.Bridge{Command: "bridge", Exec: &recordingExecutor{output: map[string]string{}}}
	out, err := bridge.Run(context.Background(), "cursorless.pauseRecording")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(out) != "null" {
		t.Fatalf("expected null, got %s", out)
	}
}

func TestBridgeMenuShowing(t *testing.T) {
	bridge := &editor.Bridge{Command: "bridge", Exec: &recordingExecutor{output: map[string]string{"menu-showing": "true\n"}}}
	showing, err := bridge.MenuShowing(context.Background())
	if err != nil {
		t.Fatalf("MenuShowing: %v", err)
	}
	if !showing {
		t.Fatal("expected menu showing")
	}
}

func TestBridgeErrors(t *testing.T) {
	failing := &editor.Bridge{Command: "bridge", Exec: &recordingExecutor{err: errors.New("exit status 1")}}
	if err := failing.Ping(context.Background()); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}

	unset := &editor.Bridge{}
	if err := unset.Focus(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}

	garbage := &editor.Bridge{Command: "bridge", Exec: &recordingExecutor{output: map[string]string{"run": "not json"}}}
	if _, err := garbage.Run(context.Background(), "x"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool for invalid json, got %v", err)
	}
}
