// Package editor talks to the host editor through an external bridge
// program. The bridge focuses the editor, reports UI state, and runs editor
// commands, returning their JSON results.
package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"wax/internal/services"
)

// Client drives the editor.
type Client interface {
	// Ping fails when the editor is not running.
	Ping(ctx context.Context) error
	// Focus brings the editor to the foreground.
	Focus(ctx context.Context) error
	// MenuShowing reports whether a menu is open in the active window.
	MenuShowing(ctx context.Context) (bool, error)
	// Run invokes command with args and waits for it to finish.
	Run(ctx context.Context, command string, args ...any) (json.RawMessage, error)
}

// Bridge invokes `<command> <verb>` for every call. The "run" verb receives
// {"command": ..., "args": [...]} on stdin and prints the command's JSON
// result; "menu-showing" prints true or false.
type Bridge struct {
	Command string
	Exec    services.Executor
	Timeout time.Duration
}

type runRequest struct {
	Command string `json:"command"`
	Args    []any  `json:"args"`
}

func (b *Bridge) Ping(ctx context.Context) error {
	_, err := b.invoke(ctx, "ping", nil)
	return err
}

func (b *Bridge) Focus(ctx context.Context) error {
	_, err := b.invoke(ctx, "focus", nil)
	return err
}

func (b *Bridge) MenuShowing(ctx context.Context) (bool, error) {
	out, err := b.invoke(ctx, "menu-showing", nil)
	if err != nil {
		return false, err
	}
	var showing bool
	if err := json.Unmarshal(bytes.TrimSpace(out), &showing); err != nil {
		return false, services.Wrap(services.ErrExternalTool, "editor", "menu-showing", "Unexpected bridge output", err)
	}
	return showing, nil
}

func (b *Bridge) Run(ctx context.Context, command string, args ...any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	stdin, err := json.Marshal(runRequest{Command: command, Args: args})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "editor", command, "Failed to encode command arguments", err)
	}
	out, err := b.invoke(ctx, "run", stdin)
	if err != nil {
		return nil, err
	}
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(out) {
		return nil, services.Wrap(services.ErrExternalTool, "editor", command, fmt.Sprintf("Bridge returned invalid JSON: %.80q", out), nil)
	}
	return json.RawMessage(out), nil
}

func (b *Bridge) invoke(ctx context.Context, verb string, stdin []byte) ([]byte, error) {
	fields := strings.Fields(b.Command)
	if len(fields) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "editor", verb, "editor.bridge_command is not set", nil)
	}
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}
	exec := b.Exec
	if exec == nil {
		exec = services.CommandExecutor{}
	}
	out, err := exec.Output(ctx, services.Command{
		Binary: fields[0],
		Args:   append(append([]string(nil), fields[1:]...), verb),
		Stdin:  stdin,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "editor", verb, "Editor bridge failed", err)
	}
	return out, nil
}
