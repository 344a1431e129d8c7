package screenshots_test

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wax/internal/eventlog"
	"wax/internal/screenshots"
	"wax/internal/services"
)

type fakeGrabber struct {
	calls int
	err   error
}

func (g *fakeGrabber) Grab(int) (image.Image, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 0x1b, B: 0x26, A: 0xff})
	return img, nil
}

func markedClock(t *testing.T, start time.Time, current *time.Time) *eventlog.Clock {
	t.Helper()
	*current = start
	clock := eventlog.NewClockWithNow(func() time.Time { return *current })
	if _, err := clock.Mark(); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	return clock
}

func TestTimestampOnlyRecordsOffsetWithoutFile(t *testing.T) {
	var now time.Time
	clock := markedClock(t, time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC), &now)
	grabber := &fakeGrabber{}
	sub, err := screenshots.New(screenshots.Options{
		SessionDir:    t.TempDir(),
		TimestampOnly: true,
		Clock:         clock,
		Grabber:       grabber,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	now = now.Add(1500 * time.Millisecond)
	if err := sub.Take("preCommand"); err != nil {
		t.Fatalf("Take: %v", err)
	}

	window := sub.Window()
	artifact, ok := window["preCommand"]
	if !ok {
		t.Fatalf("expected artifact in window, got %v", window)
	}
	if artifact.Filename != nil {
		t.Fatalf("timestamp-only artifacts carry no filename, got %q", *artifact.Filename)
	}
	if artifact.TimeOffset != 1.5 {
		t.Fatalf("unexpected offset %v", artifact.TimeOffset)
	}
	if grabber.calls != 0 {
		t.Fatal("timestamp-only mode must not grab pixels")
	}
}

func TestFullCaptureWritesPNGAfterDelay(t *testing.T) {
	var now time.Time
	clock := markedClock(t, time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC), &now)
	sessionDir := t.TempDir()
	sub, err := screenshots.New(screenshots.Options{
		SessionDir: sessionDir,
		WriteDelay: 10 * time.Millisecond,
		Clock:      clock,
		Grabber:    &fakeGrabber{},
		Now: func() time.Time {
			return time.Date(2026, 10, 16, 9, 0, 2, 123456000, time.UTC)
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := sub.Take("postCommand"); err != nil {
		t.Fatalf("Take: %v", err)
	}
	artifact := sub.Window()["postCommand"]
	if artifact.Filename == nil {
		t.Fatal("expected filename in full-capture mode")
	}
	if want := "2026-10-16T09-00-02-123456.png"; *artifact.Filename != want {
		t.Fatalf("unexpected filename %q want %q", *artifact.Filename, want)
	}

	sub.Wait()
	info, err := os.Stat(filepath.Join(sessionDir, screenshots.DirName, *artifact.Filename))
	if err != nil {
		t.Fatalf("expected png on disk: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected non-empty png")
	}
}

func TestWindowsAreIndependent(t *testing.T) {
	var now time.Time
	clock := markedClock(t, time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC), &now)
	sub, err := screenshots.New(screenshots.Options{SessionDir: t.TempDir(), TimestampOnly: true, Clock: clock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sub.Begin()
	now = now.Add(time.Second)
	if err := sub.Take("x"); err != nil {
		t.Fatalf("Take: %v", err)
	}
	pre := sub.Window()

	sub.Begin()
	if len(sub.Window()) != 0 {
		t.Fatal("Begin must reset the window")
	}
	now = now.Add(time.Second)
	if err := sub.Take("x"); err != nil {
		t.Fatalf("Take: %v", err)
	}
	post := sub.Window()

	if pre["x"].TimeOffset != 1 || post["x"].TimeOffset != 2 {
		t.Fatalf("windows should hold independent artifacts, got pre=%v post=%v", pre, post)
	}
}

func TestTakeFailsBeforeClockIsMarked(t *testing.T) {
	sub, err := screenshots.New(screenshots.Options{SessionDir: t.TempDir(), TimestampOnly: true, Clock: eventlog.NewClock()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = sub.Take("early")
	if !errors.Is(err, services.ErrCapture) || !errors.Is(err, services.ErrClockNotMarked) {
		t.Fatalf("expected capture error wrapping clock error, got %v", err)
	}
}

func TestGrabFailureIsCaptureError(t *testing.T) {
	var now time.Time
	clock := markedClock(t, time.Now(), &now)
	sub, err := screenshots.New(screenshots.Options{
		SessionDir: t.TempDir(),
		Clock:      clock,
		Grabber:    &fakeGrabber{err: errors.New("no display")},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sub.Take("preCommand"); !errors.Is(err, services.ErrCapture) {
		t.Fatalf("expected ErrCapture, got %v", err)
	}
	if _, ok := sub.Window()["preCommand"]; ok {
		t.Fatal("failed grab should not leave an artifact")
	}
}
