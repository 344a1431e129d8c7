// Package screenshots records per-phrase screenshot artifacts.
//
// In timestamp-only mode an artifact is just the session offset at which it
// was taken, to be extracted from video later. In full-capture mode the
// display is grabbed synchronously and the PNG is written on a timer so disk
// I/O never delays phrase capture.
package screenshots

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kbinani/screenshot"

	"wax/internal/eventlog"
	"wax/internal/logging"
	"wax/internal/services"
)

// DirName is the screenshots directory inside a session directory.
const DirName = "screenshots"

const fileTimeLayout = "2006-01-02T15-04-05"

// Artifact is one named screenshot. Filename is nil in timestamp-only mode.
type Artifact struct {
	Filename   *string `json:"filename"`
	TimeOffset float64 `json:"timeOffset"`
}

// Grabber captures a display.
type Grabber interface {
	Grab(display int) (image.Image, error)
}

// DisplayGrabber captures real displays.
type DisplayGrabber struct{}

// Grab captures the given display index.
func (DisplayGrabber) Grab(display int) (image.Image, error) {
	if n := screenshot.NumActiveDisplays(); display >= n {
		return nil, fmt.Errorf("display %d not available (%d active)", display, n)
	}
	return screenshot.CaptureDisplay(display)
}

// Options configures a Subsystem.
type Options struct {
	// SessionDir is the session directory; screenshots go in its DirName child.
	SessionDir    string
	TimestampOnly bool
	WriteDelay    time.Duration
	Display       int
	Clock         *eventlog.Clock
	Grabber       Grabber
	Logger        *slog.Logger
	// Now supplies the wall clock used for filenames.
	Now func() time.Time
}

// Subsystem captures screenshots and keeps the name to artifact map for the
// current capture window.
type Subsystem struct {
	dir           string
	timestampOnly bool
	delay         time.Duration
	display       int
	clock         *eventlog.Clock
	grabber       Grabber
	logger        *slog.Logger
	now           func() time.Time

	mu      sync.Mutex
	window  map[string]Artifact
	pending sync.WaitGroup
}

// New creates the screenshots directory and returns a ready Subsystem.
func New(opts Options) (*Subsystem, error) {
	if opts.Clock == nil {
		return nil, services.Wrap(services.ErrConfiguration, "screenshots", "init", "Session clock is required", nil)
	}
	dir := filepath.Join(opts.SessionDir, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrLogIO, "screenshots", "init", "Failed to create screenshots directory", err)
	}
	grabber := opts.Grabber
	if grabber == nil {
		grabber = DisplayGrabber{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Subsystem{
		dir:           dir,
		timestampOnly: opts.TimestampOnly,
		delay:         opts.WriteDelay,
		display:       opts.Display,
		clock:         opts.Clock,
		grabber:       grabber,
		logger:        logging.NewComponentLogger(opts.Logger, "screenshots"),
		now:           now,
		window:        map[string]Artifact{},
	}, nil
}

// Dir returns the screenshots directory.
func (s *Subsystem) Dir() string {
	return s.dir
}

// Begin opens a new capture window, discarding the previous map.
func (s *Subsystem) Begin() {
	s.mu.Lock()
	s.window = map[string]Artifact{}
	s.mu.Unlock()
}

// Window returns a copy of the artifacts taken in the current window.
func (s *Subsystem) Window() map[string]Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Artifact, len(s.window))
	for name, artifact := range s.window {
		out[name] = artifact
	}
	return out
}

// Take records a screenshot named name in the current window. The offset is
// measured before any pixels are grabbed.
func (s *Subsystem) Take(name string) error {
	offset, ok := s.clock.Elapsed()
	if !ok {
		return services.Wrap(services.ErrCapture, "screenshots", "take", name, services.ErrClockNotMarked)
	}

	artifact := Artifact{TimeOffset: offset}
	if !s.timestampOnly {
		img, err := s.grabber.Grab(s.display)
		if err != nil {
			return services.Wrap(services.ErrCapture, "screenshots", "grab", name, err)
		}
		filename := fileName(s.now())
		artifact.Filename = &filename
		s.schedule(filepath.Join(s.dir, filename), img)
	}

	s.mu.Lock()
	s.window[name] = artifact
	s.mu.Unlock()
	return nil
}

func (s *Subsystem) schedule(path string, img image.Image) {
	s.pending.Add(1)
	time.AfterFunc(s.delay, func() {
		defer s.pending.Done()
		if err := writePNG(path, img); err != nil {
			logging.WarnWithContext(s.logger, "screenshot write failed", "screenshot_write_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check free space and permissions in the session directory"),
				logging.String(logging.FieldImpact, "log references a missing screenshot file"),
			)
		}
	})
}

// Wait blocks until every scheduled write has finished.
func (s *Subsystem) Wait() {
	s.pending.Wait()
}

// fileName renders t as a UTC timestamp with microseconds.
func fileName(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s-%06d.png", t.Format(fileTimeLayout), t.Nanosecond()/int(time.Microsecond))
}

func writePNG(path string, img image.Image) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
