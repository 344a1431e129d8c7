package recording

import (
	"context"
	"path/filepath"
)

// Recorder captures one dimension of session state.
//
// CheckCanStart and CheckCanStop must not have side effects. Start may return
// extra fields that are merged into the session's initialInfo record.
type Recorder interface {
	Name() string
	HasCalibrationDisplay() bool
	CheckCanStart(ctx context.Context) error
	CheckCanStop(ctx context.Context) error
	Start(ctx context.Context, rc *Context) (map[string]any, error)
	CapturePrePhrase(ctx context.Context, phrase *PhraseInfo) error
	CapturePostPhrase(ctx context.Context, phrase *PhraseInfo) error
	Stop(ctx context.Context) error
}

// Base provides no-op implementations of every Recorder hook except Name.
// Variants embed it and override what they need.
type Base struct{}

func (Base) HasCalibrationDisplay() bool { return false }

func (Base) CheckCanStart(context.Context) error { return nil }

func (Base) CheckCanStop(context.Context) error { return nil }

func (Base) Start(context.Context, *Context) (map[string]any, error) { return nil, nil }

func (Base) CapturePrePhrase(context.Context, *PhraseInfo) error { return nil }

func (Base) CapturePostPhrase(context.Context, *PhraseInfo) error { return nil }

func (Base) Stop(context.Context) error { return nil }

// EventWriter appends one record to the session event log.
type EventWriter interface {
	Write(record map[string]any) error
}

// Screenshotter adds a named artifact to the current capture window.
type Screenshotter interface {
	Take(name string) error
}

// Context is created once per session and handed to every recorder's Start.
// It is never mutated after the orchestrator builds it.
type Context struct {
	// Dir is the session directory holding the event log.
	Dir         string
	Events      EventWriter
	Screenshots Screenshotter
}

// Path joins elem onto the session directory.
func (c *Context) Path(elem ...string) string {
	return filepath.Join(append([]string{c.Dir}, elem...)...)
}

// PhraseInfo identifies one recognized command within a session. At most one
// is open at a time.
type PhraseInfo struct {
	ID       string
	Captures []CaptureList
}
