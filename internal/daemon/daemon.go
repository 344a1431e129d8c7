package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"wax/internal/config"
	"wax/internal/deps"
	"wax/internal/logging"
	"wax/internal/notifications"
	"wax/internal/orchestrator"
	"wax/internal/pipeline"
	"wax/internal/preflight"
	"wax/internal/recognizer"
	"wax/internal/recorders"
	"wax/internal/recording"
	"wax/internal/services"
	"wax/internal/sessionindex"
)

// Daemon owns the orchestrator and pipeline and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
	index    *sessionindex.Index
	orch     *orchestrator.Orchestrator
	pipe     *pipeline.Pipeline
	recDeps  recorders.Deps
	logPath  string

	lockPath string
	lock     *flock.Flock

	// mu serializes session operations.
	mu      sync.Mutex
	running atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LockFilePath string
	LogPath      string
	IndexPath    string
	Session      *orchestrator.Info
	Dependencies []deps.Status
}

// Option configures optional Daemon collaborators.
type Option func(*options)

type options struct {
	notifier     notifications.Service
	exec         services.Executor
	recDeps      func(*recorders.Deps)
	orchestrator []orchestrator.Option
	pipeline     []pipeline.Option
	runLog       string
}

// WithNotifier replaces the notifier built from config.
func WithNotifier(n notifications.Service) Option {
	return func(o *options) { o.notifier = n }
}

// WithExecutor replaces the executor used for external programs.
func WithExecutor(exec services.Executor) Option {
	return func(o *options) { o.exec = exec }
}

// WithRecorderDeps adjusts the collaborators handed to recorder variants.
func WithRecorderDeps(fn func(*recorders.Deps)) Option {
	return func(o *options) { o.recDeps = fn }
}

// WithRunLog records the per-run log file the logger writes to. Once the
// lock is held, the daemon points <log_dir>/wax-daemon.log at it and prunes
// older runs.
func WithRunLog(path string) Option {
	return func(o *options) { o.runLog = path }
}

// WithOrchestratorOptions forwards options to the orchestrator.
func WithOrchestratorOptions(opts ...orchestrator.Option) Option {
	return func(o *options) { o.orchestrator = append(o.orchestrator, opts...) }
}

// WithPipelineOptions forwards options to the phrase pipeline.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(o *options) { o.pipeline = append(o.pipeline, opts...) }
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, index *sessionindex.Index, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || index == nil || logger == nil {
		return nil, errors.New("daemon requires config, session index, and logger")
	}

	o := options{exec: services.CommandExecutor{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.notifier == nil {
		o.notifier = notifications.NewService(cfg)
	}

	recDeps := recorders.Deps{
		Config:   cfg,
		Exec:     o.exec,
		DialOBS:  recorders.DialOBS,
		Notifier: o.notifier,
		Logger:   logger,
	}
	if o.recDeps != nil {
		o.recDeps(&recDeps)
	}

	orchOpts := append([]orchestrator.Option{
		orchestrator.WithListener(index),
		orchestrator.WithRepositoryRecorder(func() recording.Recorder { return recorders.NewGit(recDeps) }),
	}, o.orchestrator...)
	orch := orchestrator.New(cfg, logger, o.notifier, orchOpts...)

	logPath := cfg.DaemonLogPath()
	if o.runLog != "" {
		logPath = o.runLog
	}

	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		notifier: o.notifier,
		index:    index,
		orch:     orch,
		pipe:     pipeline.New(cfg, orch, o.notifier, logger, o.exec, o.pipeline...),
		recDeps:  recDeps,
		logPath:  logPath,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}, nil
}

// Start acquires the daemon lock and runs preflight checks.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another wax daemon instance is already running")
	}

	if marked, err := d.index.MarkInterrupted(ctx); err != nil {
		d.logger.Warn("failed to mark interrupted sessions", logging.Error(err))
	} else if marked > 0 {
		d.logger.Info("sessions from a previous daemon marked interrupted",
			logging.Int("count", int(marked)),
			logging.String(logging.FieldEventType, "sessions_interrupted"),
		)
	}

	if pointer := d.cfg.DaemonLogPath(); d.logPath != pointer {
		if err := logging.PointCurrentLog(pointer, d.logPath); err != nil {
			d.logger.Warn("failed to update current log pointer", logging.Error(err), logging.String("path", pointer))
		}
		logging.PruneRunLogs(d.logger, d.cfg.Paths.LogDir, d.cfg.Logging.RetentionDays, d.logPath)
	}

	for _, result := range preflight.Failed(preflight.RunAll(ctx, d.cfg)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "sessions using this resource will fail to start"),
		)
	}
	for _, missing := range deps.Missing(preflight.CheckSystemDeps(d.cfg)) {
		logging.WarnWithContext(d.logger, "required dependency missing", "dependency_missing",
			logging.String("dependency", missing.Name),
			logging.String("detail", missing.Detail),
			logging.String(logging.FieldErrorHint, missing.Description),
		)
	}

	d.running.Store(true)
	d.logger.Info("wax daemon started",
		logging.String("lock", d.lockPath),
		logging.String("index", d.index.Path()),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Stop ends a live session and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	if d.orch.Live() != nil {
		if _, err := d.orch.Stop(context.Background()); err != nil {
			d.logger.Warn("live session stopped with errors during shutdown", logging.Error(err))
		}
	}
	d.mu.Unlock()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("wax daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.index != nil {
		return d.index.Close()
	}
	return nil
}

// StartSession builds the named recorders and starts a session. With no
// names, session.default_recorders is used.
func (d *Daemon) StartSession(ctx context.Context, names []string) (orchestrator.Info, error) {
	if len(names) == 0 {
		names = d.cfg.Session.DefaultRecorders
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	list, err := recorders.Build(names, d.recDeps)
	if err != nil {
		return orchestrator.Info{}, err
	}
	session, err := d.orch.Start(ctx, list)
	if err != nil {
		return orchestrator.Info{}, err
	}
	return session.Info(), nil
}

// StopSession stops the live session.
func (d *Daemon) StopSession(ctx context.Context) (orchestrator.Info, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.orch.Stop(ctx)
}

// PrePhrase routes a pre-phrase event to the pipeline.
func (d *Daemon) PrePhrase(ctx context.Context, event recognizer.PrePhrase) (pipeline.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pipe.PrePhrase(ctx, event)
}

// PostPhrase routes a post-phrase event to the pipeline.
func (d *Daemon) PostPhrase(ctx context.Context, event recognizer.PostPhrase) (pipeline.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pipe.PostPhrase(ctx, event)
}

// Screenshot takes a named screenshot inside the open capture window.
func (d *Daemon) Screenshot(ctx context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pipe.Screenshot(ctx, strings.TrimSpace(name))
}

// ListSessions returns indexed sessions, newest first.
func (d *Daemon) ListSessions(ctx context.Context, limit int) ([]sessionindex.Entry, error) {
	return d.index.List(ctx, limit)
}

// NotificationTest reports the channels a test notification went through.
type NotificationTest struct {
	Sent     bool
	Channels []string
	Message  string
}

// TestNotification sends a test notification through every configured channel.
func (d *Daemon) TestNotification(ctx context.Context) (NotificationTest, error) {
	var channels []string
	if d.cfg.Notifications.Desktop {
		channels = append(channels, "desktop")
	}
	if topic := strings.TrimSpace(d.cfg.Notifications.NtfyTopic); topic != "" {
		channels = append(channels, "ntfy:"+topic)
	}
	if len(channels) == 0 {
		return NotificationTest{Message: "notifications disabled; set notifications.desktop or notifications.ntfy_topic"}, nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return NotificationTest{Channels: channels}, fmt.Errorf("send test notification: %w", err)
	}
	return NotificationTest{Sent: true, Channels: channels}, nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		LogPath:      d.logPath,
		IndexPath:    d.index.Path(),
		Dependencies: preflight.CheckSystemDeps(d.cfg),
	}
	if live := d.orch.Live(); live != nil {
		info := live.Info()
		status.Session = &info
	}
	return status
}
