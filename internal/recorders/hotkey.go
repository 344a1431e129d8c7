package recorders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wax/internal/recording"
	"wax/internal/services"
)

// HotkeyName selects the keyboard-shortcut screen recorder.
const HotkeyName = "hotkey"

// confirmDelay is the pause between the start shortcut and its confirmation
// key, giving the OS capture UI time to appear.
const confirmDelay = 500 * time.Millisecond

// Shortcut is one key chord.
type Shortcut struct {
	Key   string
	Ctrl  bool
	Shift bool
	Alt   bool
	Super bool
}

// ParseShortcut parses chords such as "cmd+shift+5" or "ctrl-alt-r".
func ParseShortcut(combo string) (Shortcut, error) {
	var s Shortcut
	parts := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(combo)), func(r rune) bool {
		return r == '+' || r == '-'
	})
	if len(parts) == 0 {
		return s, fmt.Errorf("empty shortcut")
	}
	for _, mod := range parts[:len(parts)-1] {
		switch mod {
		case "ctrl", "control":
			s.Ctrl = true
		case "shift":
			s.Shift = true
		case "alt", "option", "opt":
			s.Alt = true
		case "cmd", "super", "win", "meta":
			s.Super = true
		default:
			return s, fmt.Errorf("unknown modifier %q in %q", mod, combo)
		}
	}
	s.Key = parts[len(parts)-1]
	if !knownKey(s.Key) {
		return s, fmt.Errorf("unsupported key %q in %q", s.Key, combo)
	}
	return s, nil
}

// KeySender presses shortcuts.
type KeySender interface {
	Send(s Shortcut) error
}

// HotkeyRecorder drives an OS screen recorder with keyboard shortcuts.
type HotkeyRecorder struct {
	recording.Base

	StartShortcut   string
	ConfirmShortcut string
	StopShortcut    string
	Settle          time.Duration
	Keys            KeySender

	sleep func(time.Duration)
}

func (h *HotkeyRecorder) Name() string { return HotkeyName }

func (h *HotkeyRecorder) CheckCanStart(context.Context) error {
	for _, combo := range []string{h.StartShortcut, h.StopShortcut} {
		if _, err := ParseShortcut(combo); err != nil {
			return services.Precondition(HotkeyName, "Invalid recording shortcut: "+err.Error())
		}
	}
	if h.ConfirmShortcut != "" {
		if _, err := ParseShortcut(h.ConfirmShortcut); err != nil {
			return services.Precondition(HotkeyName, "Invalid confirm shortcut: "+err.Error())
		}
	}
	if h.Keys == nil {
		return services.Precondition(HotkeyName, "Keyboard events are unavailable on this system")
	}
	return nil
}

func (h *HotkeyRecorder) Start(context.Context, *recording.Context) (map[string]any, error) {
	if err := h.press(h.StartShortcut); err != nil {
		return nil, services.Wrap(services.ErrStartFailed, HotkeyName, "start", "Failed to send start shortcut", err)
	}
	if h.ConfirmShortcut != "" {
		h.wait(confirmDelay)
		if err := h.press(h.ConfirmShortcut); err != nil {
			return nil, services.Wrap(services.ErrStartFailed, HotkeyName, "confirm", "Failed to send confirm shortcut", err)
		}
	}
	h.wait(h.Settle)
	return nil, nil
}

func (h *HotkeyRecorder) Stop(context.Context) error {
	if err := h.press(h.StopShortcut); err != nil {
		return services.Wrap(services.ErrExternalTool, HotkeyName, "stop", "Failed to send stop shortcut", err)
	}
	return nil
}

func (h *HotkeyRecorder) press(combo string) error {
	shortcut, err := ParseShortcut(combo)
	if err != nil {
		return err
	}
	return h.Keys.Send(shortcut)
}

func (h *HotkeyRecorder) wait(d time.Duration) {
	if d <= 0 {
		return
	}
	if h.sleep != nil {
		h.sleep(d)
		return
	}
	time.Sleep(d)
}
