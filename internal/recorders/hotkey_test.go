package recorders

import (
	"context"
	"errors"
	"testing"
	"time"

	"wax/internal/services"
)

type recordedKeys struct {
	sent []Shortcut
	err  error
}

func (r *recordedKeys) Send(s Shortcut) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, s)
	return nil
}

func TestParseShortcut(t *testing.T) {
	tests := []struct {
		in   string
		want Shortcut
	}{
		{"cmd+shift+5", Shortcut{Key: "5", Super: true, Shift: true}},
		{"ctrl-alt-r", Shortcut{Key: "r", Ctrl: true, Alt: true}},
		{"Enter", Shortcut{Key: "enter"}},
	}
	for _, tt := range tests {
		got, err := ParseShortcut(tt.in)
		if err != nil {
			t.Fatalf("ParseShortcut(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseShortcut(%q) = %#v want %#v", tt.in, got, tt.want)
		}
	}
	for _, bad := range []string{"", "hyper+a", "ctrl+f13"} {
		if _, err := ParseShortcut(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestHotkeyRecorderSendsShortcuts(t *testing.T) {
	keys := &recordedKeys{}
	var slept []time.Duration
	rec := &HotkeyRecorder{
		StartShortcut:   "cmd+shift+5",
		ConfirmShortcut: "enter",
		StopShortcut:    "cmd+ctrl+esc",
		Settle:          3 * time.Second,
		Keys:            keys,
		sleep:           func(d time.Duration) { slept = append(slept, d) },
	}
	ctx := context.Background()

	if err := rec.CheckCanStart(ctx); err != nil {
		t.Fatalf("CheckCanStart: %v", err)
	}
	if _, err := rec.Start(ctx, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := rec.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if len(keys.sent) != 3 || keys.sent[0].Key != "5" || keys.sent[1].Key != "enter" || keys.sent[2].Key != "esc" {
		t.Fatalf("unexpected key sequence %#v", keys.sent)
	}
	if len(slept) != 2 || slept[0] != confirmDelay || slept[1] != 3*time.Second {
		t.Fatalf("unexpected waits %v", slept)
	}
}

func TestHotkeyRecorderPreconditionAndFailure(t *testing.T) {
	rec := &HotkeyRecorder{StartShortcut: "cmd+shift+5", Keys: &recordedKeys{}}
	if err := rec.CheckCanStart(context.Background()); !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("missing stop shortcut should fail precondition, got %v", err)
	}

	failing := &HotkeyRecorder{StartShortcut: "a", StopShortcut: "b", Keys: &recordedKeys{err: errors.New("uinput denied")}}
	if _, err := failing.Start(context.Background(), nil); !errors.Is(err, services.ErrStartFailed) {
		t.Fatalf("expected ErrStartFailed, got %v", err)
	}
}
