package recorders

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"wax/internal/config"
	"wax/internal/editor"
	"wax/internal/notifications"
	"wax/internal/recording"
	"wax/internal/services"
)

// Deps carries the collaborators recorder variants need.
type Deps struct {
	Config   *config.Config
	Exec     services.Executor
	Editor   editor.Client
	Keys     KeySender
	DialOBS  OBSDialer
	Notifier notifications.Service
	Logger   *slog.Logger
}

// Names lists the selectable recorders in a stable order.
func Names() []string {
	return []string{OBSName, HotkeyName, EditorName}
}

// Build constructs fresh recorders for the given names. At most
// session.max_recorders may be selected; the git recorder is never selected
// by name because the orchestrator appends it.
func Build(names []string, deps Deps) ([]recording.Recorder, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "recorders", "build", "Config is required", nil)
	}
	if len(names) > cfg.Session.MaxRecorders {
		return nil, services.Wrap(services.ErrConfiguration, "recorders", "build",
			fmt.Sprintf("%d recorders requested; at most %d allowed", len(names), cfg.Session.MaxRecorders), nil)
	}

	seen := make(map[string]struct{}, len(names))
	out := make([]recording.Recorder, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if _, dup := seen[name]; dup {
			return nil, services.Wrap(services.ErrConfiguration, "recorders", "build", fmt.Sprintf("recorder %q selected twice", name), nil)
		}
		seen[name] = struct{}{}

		switch name {
		case OBSName:
			out = append(out, &OBSRecorder{
				URL:      cfg.OBS.URL,
				Password: cfg.OBS.Password,
				Dial:     deps.DialOBS,
				Logger:   deps.Logger,
			})
		case HotkeyName:
			keys := deps.Keys
			if keys == nil {
				keys = &SystemKeys{}
			}
			out = append(out, &HotkeyRecorder{
				StartShortcut:   cfg.Hotkey.StartShortcut,
				ConfirmShortcut: cfg.Hotkey.ConfirmShortcut,
				StopShortcut:    cfg.Hotkey.StopShortcut,
				Settle:          cfg.HotkeySettle(),
				Keys:            keys,
			})
		case EditorName:
			client := deps.Editor
			if client == nil && cfg.Editor.BridgeCommand != "" {
				client = &editor.Bridge{Command: cfg.Editor.BridgeCommand, Exec: deps.Exec, Timeout: cfg.EditorTimeout()}
			}
			out = append(out, &EditorRecorder{
				Client:          client,
				MarkScreenshots: cfg.Editor.MarkScreenshots,
				Logger:          deps.Logger,
			})
		default:
			return nil, services.Wrap(services.ErrConfiguration, "recorders", "build",
				fmt.Sprintf("unknown recorder %q (choices: %s)", raw, strings.Join(Names(), ", ")), nil)
		}
	}
	return out, nil
}

// NewGit constructs the implicit repository recorder.
func NewGit(deps Deps) *GitRecorder {
	g := &GitRecorder{
		Exec:     deps.Exec,
		Notifier: deps.Notifier,
		Logger:   deps.Logger,
	}
	if deps.Config != nil {
		g.Binary = deps.Config.Git.Binary
		g.UserDir = deps.Config.Paths.UserDir
		g.RequireClean = deps.Config.Git.RequireClean
	}
	return g
}

// CapturesScreen reports whether the named recorder produces screen video
// that needs a visible calibration flash for alignment.
func CapturesScreen(name string) bool {
	return name == OBSName || name == HotkeyName
}

// DisplayName renders a recorder name for people.
func DisplayName(name string) string {
	switch name {
	case OBSName:
		return "OBS"
	default:
		return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
	}
}

// DisplayNames maps DisplayName over recorders.
func DisplayNames(list []recording.Recorder) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, DisplayName(r.Name()))
	}
	return out
}
