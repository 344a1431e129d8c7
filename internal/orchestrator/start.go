package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"wax/internal/calibration"
	"wax/internal/eventlog"
	"wax/internal/logging"
	"wax/internal/recorders"
	"wax/internal/recording"
	"wax/internal/screenshots"
	"wax/internal/services"
)

const (
	sessionDirLayout = "2006-01-02T15-04-05"
	// startTimestampLayout matches the naive UTC ISO-8601 form post-processors
	// already parse.
	startTimestampLayout = "2006-01-02T15:04:05.000000"
)

// Order returns recorders with every calibration-display recorder moved to
// the end. Relative order within each group is preserved.
func Order(list []recording.Recorder) []recording.Recorder {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b recording.Recorder) int {
		switch {
		case a.HasCalibrationDisplay() == b.HasCalibrationDisplay():
			return 0
		case a.HasCalibrationDisplay():
			return 1
		default:
			return -1
		}
	})
	return out
}

// Start begins a session with the selected recorders plus the implicit
// repository recorder. On error no session is live.
func (o *Orchestrator) Start(ctx context.Context, selected []recording.Recorder) (*Session, error) {
	if o.Live() != nil {
		return nil, services.Wrap(services.ErrSessionActive, "orchestrator", "start", "Stop the current recording first", nil)
	}
	if limit := o.cfg.Session.MaxRecorders; len(selected) > limit {
		return nil, services.Wrap(services.ErrConfiguration, "orchestrator", "start",
			fmt.Sprintf("%d recorders selected; at most %d allowed", len(selected), limit), nil)
	}

	list := Order(append(slices.Clone(selected), o.implicit()))

	for _, r := range list {
		if err := r.CheckCanStart(ctx); err != nil {
			o.logger.Warn("recorder not ready",
				logging.Recorder(r.Name()),
				logging.Error(err),
				logging.String(logging.FieldEventType, "precondition_failed"),
				logging.String(logging.FieldErrorHint, services.UserMessage(err)),
				logging.String(logging.FieldImpact, "session not started"),
			)
			o.notifyError(ctx, err, "Starting recording")
			return nil, err
		}
	}

	o.checkMarkerVisible(ctx, list)

	session, err := o.createSession()
	if err != nil {
		o.notifyError(ctx, err, "Starting recording")
		return nil, err
	}
	ctx = services.WithSessionID(ctx, session.ID)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("session directory created",
		logging.String("dir", session.Dir),
		logging.Strings("recorders", recorderNames(list)),
		logging.String(logging.FieldEventType, "session_created"),
	)
	if o.listener != nil {
		if err := o.listener.SessionCreated(ctx, session.Info()); err != nil {
			logger.Warn("session index update failed", logging.Error(err),
				logging.String(logging.FieldEventType, "session_index_failed"),
				logging.String(logging.FieldErrorHint, "check the session index database"),
				logging.String(logging.FieldImpact, "session missing from wax sessions"),
			)
		}
	}

	// Live before any recorder starts so phrase hooks see this session.
	o.setLive(session)

	initialInfo := map[string]any{}
	for _, r := range list {
		o.pause()
		extra, err := r.Start(ctx, session.Context)
		if err != nil {
			o.rollback(ctx, session, fmt.Errorf("%s: %w", recorders.DisplayName(r.Name()), err))
			return nil, err
		}
		session.addRecorder(r)
		maps.Copy(initialInfo, extra)
		logger.Info("recorder started",
			logging.Recorder(r.Name()),
			logging.String(logging.FieldEventType, "recorder_started"),
		)
	}

	err = o.marker.Flash(ctx, func() error {
		origin, err := session.Clock.Mark()
		if err != nil {
			return err
		}
		record := map[string]any{
			"type":     "initialInfo",
			"version":  o.cfg.Session.FormatVersion,
			"talonDir": o.cfg.Paths.HostDir,
		}
		maps.Copy(record, initialInfo)
		if err := session.Log.Write(record); err != nil {
			return err
		}
		return session.Log.Write(map[string]any{
			"type":              "initialTiming",
			"startTimestampISO": origin.UTC().Format(startTimestampLayout),
		})
	})
	if err != nil {
		if !errors.Is(err, services.ErrLogIO) {
			err = services.Wrap(services.ErrStartFailed, "calibration", "flash", "Calibration marker failed", err)
		}
		o.rollback(ctx, session, err)
		return nil, err
	}

	info := session.Info()
	logger.Info("recording started",
		logging.Strings("recorders", info.Recorders),
		logging.String("clock_origin", info.ClockOrigin.UTC().Format(startTimestampLayout)),
		logging.String(logging.FieldEventType, "session_started"),
	)
	if err := o.notifier.NotifySessionStarted(ctx, session.ID, recorders.DisplayNames(session.Recorders())); err != nil {
		logger.Debug("start notification failed", logging.Error(err))
	}
	return session, nil
}

// checkMarkerVisible warns when screen video will be recorded but nothing
// paints the calibration flash, so the footage has no alignment frame.
func (o *Orchestrator) checkMarkerVisible(ctx context.Context, list []recording.Recorder) {
	if calibration.Visible(o.marker) {
		return
	}
	var screen []string
	for _, r := range list {
		if r.HasCalibrationDisplay() {
			return
		}
		if recorders.CapturesScreen(r.Name()) {
			screen = append(screen, recorders.DisplayName(r.Name()))
		}
	}
	if len(screen) == 0 {
		return
	}
	detail := fmt.Sprintf("%s footage will have no calibration flash; set calibration.command or add the editor recorder",
		strings.Join(screen, ", "))
	logging.WarnWithContext(o.logger, "no visible calibration marker", "calibration_marker_missing",
		logging.Strings("recorders", screen),
		logging.String(logging.FieldErrorHint, "set calibration.command"),
		logging.String(logging.FieldImpact, "screen video cannot be aligned to the event log"),
	)
	if err := o.notifier.NotifyWarning(ctx, "Calibration marker not shown", detail); err != nil {
		o.logger.Debug("warning notification failed", logging.Error(err))
	}
}

func (o *Orchestrator) createSession() (*Session, error) {
	startedAt := o.now()
	root := o.cfg.Paths.RecordingsDir
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrLogIO, "orchestrator", "mkdir", "Failed to create recordings directory", err)
	}
	dir := filepath.Join(root, startedAt.Format(sessionDirLayout))
	// Mkdir rather than MkdirAll: an existing directory means another session
	// claimed this second.
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrLogIO, "orchestrator", "mkdir", "Failed to create session directory", err)
	}

	log, err := eventlog.Create(filepath.Join(dir, eventlog.FileName))
	if err != nil {
		return nil, err
	}
	clock := eventlog.NewClock()
	shots, err := screenshots.New(screenshots.Options{
		SessionDir:    dir,
		TimestampOnly: o.cfg.Screenshots.TimestampOnly,
		WriteDelay:    o.cfg.ScreenshotWriteDelay(),
		Display:       o.cfg.Screenshots.Display,
		Clock:         clock,
		Grabber:       o.grabber,
		Logger:        o.logger,
	})
	if err != nil {
		log.Close()
		return nil, err
	}

	return &Session{
		ID:          uuid.NewString(),
		Dir:         dir,
		StartedAt:   startedAt,
		Context:     &recording.Context{Dir: dir, Events: log, Screenshots: shots},
		Log:         log,
		Clock:       clock,
		Screenshots: shots,
	}, nil
}

// rollback stops every started recorder in start order, ignoring their
// errors, and leaves no session live.
func (o *Orchestrator) rollback(ctx context.Context, session *Session, cause error) {
	logger := logging.WithContext(ctx, o.logger)
	logging.ErrorWithContext(logger, "session start failed; stopping started recorders", "session_start_failed",
		logging.Error(cause),
		logging.Strings("started", recorderNames(session.Recorders())),
		logging.String(logging.FieldErrorHint, services.UserMessage(cause)),
	)
	for _, r := range session.Recorders() {
		o.pause()
		if err := r.Stop(ctx); err != nil {
			logger.Debug("rollback stop failed",
				logging.Recorder(r.Name()),
				logging.Error(err),
			)
		}
	}
	o.setLive(nil)
	session.Screenshots.Wait()
	if err := session.Log.Close(); err != nil {
		logger.Debug("event log close failed", logging.Error(err))
	}
	if o.listener != nil {
		if err := o.listener.SessionFailed(ctx, session.Info(), cause); err != nil {
			logger.Debug("session index update failed", logging.Error(err))
		}
	}
	o.notifyError(ctx, cause, "Starting recording")
}

func recorderNames(list []recording.Recorder) []string {
	names := make([]string, 0, len(list))
	for _, r := range list {
		names = append(names, r.Name())
	}
	return names
}
