package recorders

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"wax/internal/editor"
	"wax/internal/logging"
	"wax/internal/recording"
	"wax/internal/services"
)

// EditorName selects the editor-state recorder.
const EditorName = "editor"

// Editor commands and the fixed highlight slot used for mark screenshots.
const (
	cmdRecordTestCase  = "cursorless.recordTestCase"
	cmdTakeSnapshot    = "cursorless.takeSnapshot"
	cmdPauseRecording  = "cursorless.pauseRecording"
	cmdResumeRecording = "cursorless.resumeRecording"
	cmdCommand         = "cursorless.command"
	highlightID        = "highlight1"
	markScreenshotName = "decoratedMarks.all"
	markSettleDelay    = 50 * time.Millisecond
	commandVersion     = 7
)

// EditorRecorder snapshots editor state around every phrase. Starting it
// makes the editor show its own calibration cue, so it runs last.
type EditorRecorder struct {
	recording.Base

	Client          editor.Client
	MarkScreenshots bool
	Logger          *slog.Logger

	snapshotsDir string
	screenshots  recording.Screenshotter
	sleep        func(time.Duration)
}

func (e *EditorRecorder) Name() string { return EditorName }

func (e *EditorRecorder) HasCalibrationDisplay() bool { return true }

func (e *EditorRecorder) CheckCanStart(ctx context.Context) error {
	return e.requireRunning(ctx)
}

func (e *EditorRecorder) CheckCanStop(ctx context.Context) error {
	return e.requireRunning(ctx)
}

func (e *EditorRecorder) requireRunning(ctx context.Context) error {
	if e.Client == nil {
		return services.Precondition(EditorName, "Editor bridge is not configured")
	}
	if err := e.Client.Ping(ctx); err != nil {
		return services.Precondition(EditorName, "Editor must be running")
	}
	return nil
}

// Start creates the commands and snapshots directories and begins the
// editor's own test case recording. Its descriptor is returned for initialInfo.
func (e *EditorRecorder) Start(ctx context.Context, rc *recording.Context) (map[string]any, error) {
	if err := e.Client.Focus(ctx); err != nil {
		return nil, services.Wrap(services.ErrStartFailed, EditorName, "focus", "Failed to focus editor", err)
	}
	commandsDir := rc.Path("commands")
	snapshotsDir := rc.Path("snapshots")
	for _, dir := range []string{commandsDir, snapshotsDir} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrStartFailed, EditorName, "mkdir", dir, err)
		}
	}

	payload, err := e.Client.Run(ctx, cmdRecordTestCase, map[string]any{
		"isSilent":               true,
		"directory":              commandsDir,
		"extraSnapshotFields":    []string{"timeOffsetSeconds"},
		"showCalibrationDisplay": true,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrStartFailed, EditorName, cmdRecordTestCase, "Editor refused to start recording", err)
	}
	e.snapshotsDir = snapshotsDir
	e.screenshots = rc.Screenshots
	return map[string]any{"extensionRecordStartPayload": payload}, nil
}

func (e *EditorRecorder) CapturePrePhrase(ctx context.Context, phrase *recording.PhraseInfo) error {
	marks := slices.Collect(recording.DecoratedMarks(phrase.Captures))
	if err := e.snapshot(ctx, phrase.ID, "prePhrase", marks); err != nil {
		return err
	}
	if e.MarkScreenshots && len(marks) > 0 {
		return e.markScreenshot(ctx, marks)
	}
	return nil
}

func (e *EditorRecorder) CapturePostPhrase(ctx context.Context, phrase *recording.PhraseInfo) error {
	return e.snapshot(ctx, phrase.ID, "postPhrase", []recording.Mark{})
}

func (e *EditorRecorder) Stop(ctx context.Context) error {
	if err := e.Client.Focus(ctx); err != nil {
		return services.Wrap(services.ErrExternalTool, EditorName, "focus", "Failed to focus editor", err)
	}
	if _, err := e.Client.Run(ctx, cmdRecordTestCase); err != nil {
		return services.Wrap(services.ErrExternalTool, EditorName, cmdRecordTestCase, "Editor refused to stop recording", err)
	}
	return nil
}

type snapshotMetadata struct {
	PhraseID string `json:"phraseId" yaml:"phraseId"`
	Type     string `json:"type" yaml:"type"`
}

type fallbackSnapshot struct {
	Metadata      snapshotMetadata `yaml:"metadata"`
	IsMenuShowing bool             `yaml:"isMenuShowing,omitempty"`
	Error         string           `yaml:"error,omitempty"`
}

// snapshot asks the editor to write a snapshot file. While a menu is open, or
// when the editor fails, a placeholder file is written in its place so every
// phrase has both snapshot files.
func (e *EditorRecorder) snapshot(ctx context.Context, phraseID, kind string, marks []recording.Mark) error {
	path := filepath.Join(e.snapshotsDir, fmt.Sprintf("%s-%s.yaml", phraseID, kind))
	metadata := snapshotMetadata{PhraseID: phraseID, Type: kind}

	showing, err := e.Client.MenuShowing(ctx)
	if err != nil {
		logging.NewComponentLogger(e.Logger, "editor_recorder").Debug("menu state unavailable; taking snapshot anyway",
			logging.Error(err))
	}
	if showing {
		return writeFallback(path, fallbackSnapshot{Metadata: metadata, IsMenuShowing: true})
	}

	// The bridge tracks whether the command client already emitted its own
	// pre-phrase signal, so the flag is always false here.
	if _, err := e.Client.Run(ctx, cmdTakeSnapshot, path, metadata, marks, false); err != nil {
		return writeFallback(path, fallbackSnapshot{Metadata: metadata, Error: err.Error()})
	}
	return nil
}

func writeFallback(path string, snap fallbackSnapshot) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return services.Wrap(services.ErrCapture, EditorName, "snapshot", "Failed to encode placeholder snapshot", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrCapture, EditorName, "snapshot", "Failed to write placeholder snapshot", err)
	}
	return nil
}

// markScreenshot highlights every decorated mark, screenshots them, and clears
// the highlight. The editor's recording is paused throughout so the highlight
// commands do not show up as test cases.
func (e *EditorRecorder) markScreenshot(ctx context.Context, marks []recording.Mark) (err error) {
	if _, err := e.Client.Run(ctx, cmdPauseRecording); err != nil {
		return services.Wrap(services.ErrCapture, EditorName, cmdPauseRecording, "Failed to pause editor recording", err)
	}
	defer func() {
		if _, resumeErr := e.Client.Run(ctx, cmdResumeRecording); resumeErr != nil && err == nil {
			err = services.Wrap(services.ErrCapture, EditorName, cmdResumeRecording, "Failed to resume editor recording", resumeErr)
		}
	}()

	elements := make([]map[string]any, 0, len(marks))
	for _, mark := range marks {
		elements = append(elements, map[string]any{"type": "primitive", "mark": mark})
	}
	if err := e.highlight(ctx, map[string]any{"type": "list", "elements": elements}); err != nil {
		return err
	}

	e.wait(markSettleDelay)
	var shotErr error
	if e.screenshots != nil {
		shotErr = e.screenshots.Take(markScreenshotName)
	}

	clearErr := e.highlight(ctx, map[string]any{"type": "primitive", "mark": map[string]string{"type": "nothing"}})
	if shotErr != nil {
		return shotErr
	}
	return clearErr
}

func (e *EditorRecorder) highlight(ctx context.Context, target map[string]any) error {
	_, err := e.Client.Run(ctx, cmdCommand, map[string]any{
		"version":              commandVersion,
		"spokenForm":           "highlight",
		"usePrePhraseSnapshot": false,
		"action": map[string]any{
			"name":        "highlight",
			"target":      target,
			"highlightId": highlightID,
		},
	})
	if err != nil {
		return services.Wrap(services.ErrCapture, EditorName, "highlight", "Failed to highlight marks", err)
	}
	return nil
}

func (e *EditorRecorder) wait(d time.Duration) {
	if e.sleep != nil {
		e.sleep(d)
		return
	}
	time.Sleep(d)
}
