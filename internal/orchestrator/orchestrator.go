package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"wax/internal/calibration"
	"wax/internal/config"
	"wax/internal/logging"
	"wax/internal/notifications"
	"wax/internal/recorders"
	"wax/internal/recording"
	"wax/internal/screenshots"
)

// Listener observes session lifecycle transitions. The session index
// implements it.
type Listener interface {
	SessionCreated(ctx context.Context, info Info) error
	SessionFailed(ctx context.Context, info Info, cause error) error
	SessionStopped(ctx context.Context, info Info) error
}

// Orchestrator starts and stops sessions. It holds at most one live session.
type Orchestrator struct {
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
	marker   calibration.Marker
	grabber  screenshots.Grabber
	listener Listener
	implicit func() recording.Recorder
	sleep    func(time.Duration)
	now      func() time.Time

	mu   sync.RWMutex
	live *Session
}

// Option configures optional Orchestrator behavior.
type Option func(*Orchestrator)

// WithMarker replaces the marker built from the calibration config.
func WithMarker(marker calibration.Marker) Option {
	return func(o *Orchestrator) { o.marker = marker }
}

// WithGrabber replaces the display grabber used in full-capture mode.
func WithGrabber(grabber screenshots.Grabber) Option {
	return func(o *Orchestrator) { o.grabber = grabber }
}

// WithListener registers a lifecycle listener.
func WithListener(listener Listener) Option {
	return func(o *Orchestrator) { o.listener = listener }
}

// WithRepositoryRecorder replaces the factory for the implicit recorder that
// is appended to every session.
func WithRepositoryRecorder(factory func() recording.Recorder) Option {
	return func(o *Orchestrator) { o.implicit = factory }
}

// WithClock overrides the wall clock and sleep used by the choreography.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// New constructs an orchestrator.
func New(cfg *config.Config, logger *slog.Logger, notifier notifications.Service, opts ...Option) *Orchestrator {
	if notifier == nil {
		notifier = notifications.NewNoop()
	}
	o := &Orchestrator{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "orchestrator"),
		notifier: notifier,
		sleep:    time.Sleep,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.marker == nil {
		o.marker = calibration.New(cfg.Calibration.Command, cfg.Calibration.Color, cfg.CalibrationDuration(), logger)
	}
	if o.implicit == nil {
		o.implicit = func() recording.Recorder {
			return recorders.NewGit(recorders.Deps{Config: cfg, Notifier: notifier, Logger: logger})
		}
	}
	return o
}

// Live returns the live session, or nil.
func (o *Orchestrator) Live() *Session {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.live
}

func (o *Orchestrator) setLive(s *Session) {
	o.mu.Lock()
	o.live = s
	o.mu.Unlock()
}

func (o *Orchestrator) pause() {
	if d := o.cfg.RecorderDelay(); d > 0 {
		o.sleep(d)
	}
}

func (o *Orchestrator) notifyError(ctx context.Context, err error, label string) {
	if notifyErr := o.notifier.NotifyError(ctx, err, label); notifyErr != nil {
		o.logger.Debug("error notification failed", logging.Error(notifyErr))
	}
}
