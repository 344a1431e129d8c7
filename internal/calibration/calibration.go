// Package calibration flashes the marker that aligns the session clock with
// screen recordings.
//
// The clock origin must be captured while the marker is still visible, so a
// Marker calls atDismiss immediately before taking the marker down.
package calibration

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"wax/internal/logging"
	"wax/internal/services"
)

// Marker shows the calibration marker for a fixed duration.
type Marker interface {
	Flash(ctx context.Context, atDismiss func() error) error
}

// New returns a CommandMarker when command is set and a TimerMarker otherwise.
func New(command, color string, duration time.Duration, logger *slog.Logger) Marker {
	if strings.TrimSpace(command) == "" {
		return TimerMarker{Duration: duration, Logger: logger}
	}
	return &CommandMarker{Command: command, Color: color, Duration: duration, Logger: logger}
}

// Visible reports whether m puts anything on screen. A TimerMarker does not.
func Visible(m Marker) bool {
	_, timing := m.(TimerMarker)
	return !timing
}

// TimerMarker paints nothing. It waits for the duration and then fires the
// dismissal callback, which is enough for sessions without screen video.
type TimerMarker struct {
	Duration time.Duration
	Logger   *slog.Logger
}

func (m TimerMarker) Flash(ctx context.Context, atDismiss func() error) error {
	logger := logging.NewComponentLogger(m.Logger, "calibration")
	logger.Debug("no marker command configured; timing calibration only",
		logging.String(logging.FieldEventType, "calibration_timer"),
	)
	if err := sleep(ctx, m.Duration); err != nil {
		return err
	}
	return atDismiss()
}

// readyTimeout bounds how long the marker program may take to paint.
const (
	readyTimeout = 5 * time.Second
	exitTimeout  = 2 * time.Second
)

// CommandMarker runs an external painter:
//
//	<command> --color #1b0026 --duration 50
//
// The painter prints one line once the marker is visible and takes the marker
// down when its stdin is closed.
type CommandMarker struct {
	Command  string
	Color    string
	Duration time.Duration
	Logger   *slog.Logger
}

func (m *CommandMarker) Flash(ctx context.Context, atDismiss func() error) error {
	logger := logging.NewComponentLogger(m.Logger, "calibration")
	fields := strings.Fields(m.Command)
	args := append(fields[1:], "--color", m.Color, "--duration", strconv.FormatInt(m.Duration.Milliseconds(), 10))
	cmd := exec.CommandContext(ctx, fields[0], args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "calibration", "marker", "Failed to open marker stdin", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "calibration", "marker", "Failed to open marker stdout", err)
	}
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "calibration", "marker", "Failed to launch marker command", err)
	}

	ready := make(chan error, 1)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		reader := bufio.NewReader(stdout)
		_, err := reader.ReadString('\n')
		if err == io.EOF {
			err = errors.New("marker exited before it was shown")
		}
		ready <- err
		_, _ = io.Copy(io.Discard, reader)
	}()

	var flashErr error
	select {
	case err := <-ready:
		if err != nil {
			flashErr = services.Wrap(services.ErrExternalTool, "calibration", "marker", "Marker command did not report ready", err)
		}
	case <-time.After(readyTimeout):
		flashErr = services.Wrap(services.ErrExternalTool, "calibration", "marker", fmt.Sprintf("Marker not shown within %s", readyTimeout), nil)
	case <-ctx.Done():
		flashErr = ctx.Err()
	}

	if flashErr == nil {
		logger.Debug("calibration marker visible", logging.String("color", m.Color))
		if flashErr = sleep(ctx, m.Duration); flashErr == nil {
			flashErr = atDismiss()
		}
	}

	_ = stdin.Close()
	if flashErr != nil {
		_ = cmd.Process.Kill()
	}
	select {
	case <-drained:
	case <-time.After(exitTimeout):
		_ = cmd.Process.Kill()
		<-drained
	}
	if err := cmd.Wait(); err != nil && flashErr == nil {
		logging.WarnWithContext(logger, "marker command exited with error", "calibration_marker_exit",
			logging.Error(err),
			logging.String(logging.FieldImpact, "session started; marker may have lingered on screen"),
		)
	}
	return flashErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
