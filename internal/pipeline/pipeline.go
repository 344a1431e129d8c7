package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"wax/internal/config"
	"wax/internal/eventlog"
	"wax/internal/logging"
	"wax/internal/notifications"
	"wax/internal/orchestrator"
	"wax/internal/recognizer"
	"wax/internal/recorders"
	"wax/internal/recording"
	"wax/internal/services"
)

// Screenshot names taken around every phrase.
const (
	PreCommandScreenshot  = "preCommand"
	PostCommandScreenshot = "postCommand"
)

// SessionSource yields the live session, or nil when nothing is recording.
type SessionSource interface {
	Live() *orchestrator.Session
}

// Outcome says what a phrase event did.
type Outcome string

const (
	// OutcomeSkipped means no session was ready, or no phrase was open.
	OutcomeSkipped Outcome = "skipped"
	OutcomeIgnored Outcome = "ignored"
	OutcomeOpened  Outcome = "opened"
	OutcomeClosed  Outcome = "closed"
)

// Result reports the handling of one event.
type Result struct {
	Outcome  Outcome
	PhraseID string
	// Warnings counts capture failures that were reported and skipped.
	Warnings int
}

// Pipeline handles phrase events for whichever session is live.
type Pipeline struct {
	sessions  SessionSource
	tracer    recognizer.Tracer
	rulesRoot string
	notifier  notifications.Service
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures optional Pipeline behavior.
type Option func(*Pipeline)

// WithTracer sets the tracer used when an event carries no trace of its own.
func WithTracer(tracer recognizer.Tracer) Option {
	return func(p *Pipeline) { p.tracer = tracer }
}

// WithIDs replaces the phrase id generator.
func WithIDs(newID func() string) Option {
	return func(p *Pipeline) { p.newID = newID }
}

// WithNow replaces the local clock used to stamp event arrival.
func WithNow(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New constructs a pipeline. A tracer is configured from
// recognizer.sim_command when set.
func New(cfg *config.Config, sessions SessionSource, notifier notifications.Service, logger *slog.Logger, exec services.Executor, opts ...Option) *Pipeline {
	if notifier == nil {
		notifier = notifications.NewNoop()
	}
	p := &Pipeline{
		sessions:  sessions,
		rulesRoot: cfg.Recognizer.RulesRoot,
		notifier:  notifier,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if cfg.Recognizer.SimCommand != "" {
		p.tracer = recognizer.CommandTracer{Command: cfg.Recognizer.SimCommand, Exec: exec}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ready returns the live session once its clock is marked. Phrases that
// arrive while recorders are still starting are skipped.
func (p *Pipeline) ready() *orchestrator.Session {
	session := p.sessions.Live()
	if session == nil {
		return nil
	}
	if _, marked := session.Clock.Origin(); !marked {
		p.logger.Debug("phrase before calibration; skipping",
			logging.String(logging.FieldSessionID, session.ID))
		return nil
	}
	return session
}

// PrePhrase handles a pre-phrase event.
func (p *Pipeline) PrePhrase(ctx context.Context, event recognizer.PrePhrase) (Result, error) {
	receivedAt := p.now()
	session := p.ready()
	if session == nil {
		return Result{Outcome: OutcomeSkipped}, nil
	}
	clock := session.Clock
	preStart := eventlog.Seconds(clock.Offset(receivedAt))
	host := func(t *float64) any {
		if t == nil {
			return nil
		}
		return eventlog.Seconds(clock.HostOffset(receivedAt, event.Now, *t))
	}

	words := make([]any, 0, len(event.Words))
	for _, w := range event.Words {
		words = append(words, map[string]any{
			"start": host(w.Start),
			"end":   host(w.End),
			"text":  w.Text,
		})
	}
	speechTimeout := optional(event.SpeechTimeout)

	phraseID := p.newID()
	ctx = services.WithPhraseID(services.WithSessionID(ctx, session.ID), phraseID)
	logger := logging.WithContext(ctx, p.logger)

	if event.Ignored() {
		session.ClosePhrase()
		err := session.Log.Write(map[string]any{
			"type":      "talonIgnoredPhrase",
			"id":        phraseID,
			"raw_words": words,
			"timeOffsets": map[string]any{
				"speechStart":            host(event.SpeechStart),
				"prePhraseCallbackStart": preStart,
			},
			"speechTimeout": speechTimeout,
		})
		if err != nil {
			return Result{}, err
		}
		logger.Debug("ignored phrase logged", logging.Int("words", len(event.Words)))
		return Result{Outcome: OutcomeIgnored, PhraseID: phraseID}, nil
	}

	text := event.PhraseText()
	rawSim, commands := p.trace(ctx, text, event.Sim)
	annotateCaptures(commands, event.Parsed)

	phrase := &recording.PhraseInfo{ID: phraseID, Captures: event.Parsed}
	session.OpenPhrase(phrase)

	result := Result{Outcome: OutcomeOpened, PhraseID: phraseID}
	session.Screenshots.Begin()
	if err := session.Screenshots.Take(PreCommandScreenshot); err != nil {
		result.Warnings++
		p.reportCapture(ctx, "screenshots", err)
	}
	for _, r := range session.Recorders() {
		if err := r.CapturePrePhrase(services.WithRecorder(ctx, r.Name()), phrase); err != nil {
			if errors.Is(err, services.ErrLogIO) {
				return result, err
			}
			result.Warnings++
			p.reportCapture(ctx, r.Name(), err)
		}
	}

	err := session.Log.Write(map[string]any{
		"type": "talonCommandPhrase",
		"id":   phraseID,
		"timeOffsets": map[string]any{
			"speechStart":            host(event.SpeechStart),
			"prePhraseCallbackStart": preStart,
			"prePhraseCallbackEnd":   eventlog.Seconds(clock.Elapsed()),
		},
		"speechTimeout": speechTimeout,
		"phrase":        text,
		"raw_words":     words,
		"rawSim":        rawSim,
		"commands":      commandsValue(commands),
		"modes":         stringsValue(event.Modes),
		"tags":          stringsValue(event.Tags),
		"screenshots":   session.Screenshots.Window(),
	})
	if err != nil {
		return result, err
	}
	logger.Info("phrase captured",
		logging.String("phrase", text),
		logging.Int("commands", len(commands)),
		logging.Int("warnings", result.Warnings),
		logging.String(logging.FieldEventType, "phrase_captured"),
	)
	return result, nil
}

// PostPhrase handles a post-phrase event for the open phrase.
func (p *Pipeline) PostPhrase(ctx context.Context, _ recognizer.PostPhrase) (Result, error) {
	receivedAt := p.now()
	session := p.ready()
	if session == nil {
		return Result{Outcome: OutcomeSkipped}, nil
	}
	phrase := session.Phrase()
	if phrase == nil {
		return Result{Outcome: OutcomeSkipped}, nil
	}
	clock := session.Clock
	postStart := eventlog.Seconds(clock.Offset(receivedAt))
	ctx = services.WithPhraseID(services.WithSessionID(ctx, session.ID), phrase.ID)

	result := Result{Outcome: OutcomeClosed, PhraseID: phrase.ID}
	session.Screenshots.Begin()
	for _, r := range session.Recorders() {
		if err := r.CapturePostPhrase(services.WithRecorder(ctx, r.Name()), phrase); err != nil {
			if errors.Is(err, services.ErrLogIO) {
				session.ClosePhrase()
				return result, err
			}
			result.Warnings++
			p.reportCapture(ctx, r.Name(), err)
		}
	}
	if err := session.Screenshots.Take(PostCommandScreenshot); err != nil {
		result.Warnings++
		p.reportCapture(ctx, "screenshots", err)
	}

	err := session.Log.Write(map[string]any{
		"id":               phrase.ID,
		"commandCompleted": true,
		"timeOffsets": map[string]any{
			"postPhraseCallbackStart": postStart,
			"postPhraseCallbackEnd":   eventlog.Seconds(clock.Elapsed()),
		},
		"screenshots": session.Screenshots.Window(),
	})
	session.ClosePhrase()
	if err != nil {
		return result, err
	}
	logging.WithContext(ctx, p.logger).Debug("phrase completed",
		logging.Int("warnings", result.Warnings),
		logging.String(logging.FieldEventType, "phrase_completed"),
	)
	return result, nil
}

// Screenshot adds a named artifact to the current capture window.
func (p *Pipeline) Screenshot(ctx context.Context, name string) error {
	session := p.ready()
	if session == nil {
		return services.Wrap(services.ErrNoSession, "pipeline", "screenshot", "Nothing is recording", nil)
	}
	if name == "" {
		return services.Wrap(services.ErrConfiguration, "pipeline", "screenshot", "Screenshot name is required", nil)
	}
	return session.Screenshots.Take(name)
}

// trace recovers the commands the engine ran for text. The event's own
// trace wins over the configured tracer. Failures are reported and leave
// commands nil.
func (p *Pipeline) trace(ctx context.Context, text string, sim *string) (any, []recognizer.Command) {
	var raw string
	switch {
	case sim != nil:
		raw = *sim
	case p.tracer != nil:
		out, err := p.tracer.Trace(ctx, text)
		if err != nil {
			p.warn(ctx, fmt.Sprintf("Couldn't sim for %q", text), services.UserMessage(err))
			return nil, nil
		}
		raw = out
	default:
		return nil, nil
	}

	commands, unmatched, err := recognizer.ResolveCommands(raw, p.rulesRoot)
	if err != nil {
		p.warn(ctx, fmt.Sprintf("Couldn't sim for %q", text), err.Error())
		return raw, nil
	}
	for _, u := range unmatched {
		p.warn(ctx, "No rules found for grammar", fmt.Sprintf("%s in %s", u.Grammar, u.File))
	}
	return raw, commands
}

// annotateCaptures copies each parsed capture list onto the command at the
// same index.
func annotateCaptures(commands []recognizer.Command, parsed []recording.CaptureList) {
	if commands == nil {
		return
	}
	for idx, list := range parsed {
		if idx >= len(commands) {
			break
		}
		captures := make([]any, 0, len(list))
		for _, capture := range list {
			captures = append(captures, jsonSafe(capture.Raw))
		}
		commands[idx].Captures = captures
	}
}

func jsonSafe(raw json.RawMessage) any {
	if len(raw) == 0 || !json.Valid(raw) {
		return nil
	}
	return raw
}

func (p *Pipeline) reportCapture(ctx context.Context, source string, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, p.logger), "capture failed", "capture_failed",
		logging.String("source", source),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, services.UserMessage(err)),
		logging.String(logging.FieldImpact, "phrase record is missing this capture"),
	)
	p.warn(ctx, "Capture failed", recorders.DisplayName(source)+": "+services.UserMessage(err))
}

func (p *Pipeline) warn(ctx context.Context, title, detail string) {
	if err := p.notifier.NotifyWarning(ctx, title, detail); err != nil {
		p.logger.Debug("warning notification failed", logging.Error(err))
	}
}

func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func commandsValue(commands []recognizer.Command) any {
	if commands == nil {
		return nil
	}
	return commands
}

func stringsValue(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
