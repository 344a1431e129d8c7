package testsupport

import (
	"context"
	"sync"

	"wax/internal/recording"
)

// CallLog records hook invocations across fake recorders in call order.
// Entries look like "obs:start".
type CallLog struct {
	mu    sync.Mutex
	calls []string
}

// Add appends one entry.
func (l *CallLog) Add(entry string) {
	l.mu.Lock()
	l.calls = append(l.calls, entry)
	l.mu.Unlock()
}

// Calls returns a copy of the entries.
func (l *CallLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// Count returns how many times entry was recorded.
func (l *CallLog) Count(entry string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, call := range l.calls {
		if call == entry {
			n++
		}
	}
	return n
}

// Index returns the position of the first matching entry, or -1.
func (l *CallLog) Index(entry string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, call := range l.calls {
		if call == entry {
			return i
		}
	}
	return -1
}

// FakeRecorder is a scripted recording.Recorder. Each hook logs
// "<name>:<hook>" to Log and then returns the matching error field.
type FakeRecorder struct {
	RecorderName string
	Calibration  bool
	Log          *CallLog

	CheckStartErr error
	CheckStopErr  error
	StartErr      error
	StopErr       error
	PreErr        error
	PostErr       error

	// Extra is returned from Start for initialInfo.
	Extra map[string]any
	// OnStart and OnPre run before the hook returns, for recorders that need
	// to write records or take screenshots.
	OnStart func(rc *recording.Context) error
	OnPre   func(phrase *recording.PhraseInfo)
	OnPost  func(phrase *recording.PhraseInfo)

	Phrases []string
}

// NewFakeRecorder returns a recorder that succeeds at everything.
func NewFakeRecorder(name string, log *CallLog) *FakeRecorder {
	return &FakeRecorder{RecorderName: name, Log: log}
}

func (f *FakeRecorder) record(hook string) {
	if f.Log != nil {
		f.Log.Add(f.RecorderName + ":" + hook)
	}
}

func (f *FakeRecorder) Name() string { return f.RecorderName }

func (f *FakeRecorder) HasCalibrationDisplay() bool { return f.Calibration }

func (f *FakeRecorder) CheckCanStart(context.Context) error {
	f.record("check_start")
	return f.CheckStartErr
}

func (f *FakeRecorder) CheckCanStop(context.Context) error {
	f.record("check_stop")
	return f.CheckStopErr
}

func (f *FakeRecorder) Start(_ context.Context, rc *recording.Context) (map[string]any, error) {
	f.record("start")
	if f.StartErr != nil {
		return nil, f.StartErr
	}
	if f.OnStart != nil {
		if err := f.OnStart(rc); err != nil {
			return nil, err
		}
	}
	return f.Extra, nil
}

func (f *FakeRecorder) CapturePrePhrase(_ context.Context, phrase *recording.PhraseInfo) error {
	f.record("pre")
	f.Phrases = append(f.Phrases, phrase.ID)
	if f.OnPre != nil {
		f.OnPre(phrase)
	}
	return f.PreErr
}

func (f *FakeRecorder) CapturePostPhrase(_ context.Context, phrase *recording.PhraseInfo) error {
	f.record("post")
	if f.OnPost != nil {
		f.OnPost(phrase)
	}
	return f.PostErr
}

func (f *FakeRecorder) Stop(context.Context) error {
	f.record("stop")
	return f.StopErr
}
