package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"wax/internal/logging"
	"wax/internal/recorders"
	"wax/internal/services"
)

// Stop ends the live session. Every active recorder's stop precondition is
// checked first; if one fails nothing is stopped and the session stays live.
// Otherwise all recorders are stopped in start order, continuing past
// failures, and their errors are joined.
func (o *Orchestrator) Stop(ctx context.Context) (Info, error) {
	session := o.Live()
	if session == nil {
		return Info{}, services.Wrap(services.ErrNoSession, "orchestrator", "stop", "Nothing is recording", nil)
	}
	ctx = services.WithSessionID(ctx, session.ID)
	logger := logging.WithContext(ctx, o.logger)

	for _, r := range session.Recorders() {
		if err := r.CheckCanStop(ctx); err != nil {
			logging.WarnWithContext(logger, "recorder not ready to stop", "stop_precondition_failed",
				logging.Recorder(r.Name()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, services.UserMessage(err)),
				logging.String(logging.FieldImpact, "session still recording"),
			)
			o.notifyError(ctx, err, "Stopping recording")
			return session.Info(), err
		}
	}

	o.setLive(nil)

	var errs []error
	for _, r := range session.Recorders() {
		o.pause()
		if err := r.Stop(ctx); err != nil {
			logging.ErrorWithContext(logger, "recorder failed to stop", "recorder_stop_failed",
				logging.Recorder(r.Name()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "stop the recording application manually"),
			)
			errs = append(errs, fmt.Errorf("%s: %w", recorders.DisplayName(r.Name()), err))
			continue
		}
		logger.Info("recorder stopped",
			logging.Recorder(r.Name()),
			logging.String(logging.FieldEventType, "recorder_stopped"),
		)
	}

	session.Screenshots.Wait()
	if err := session.Log.Close(); err != nil {
		errs = append(errs, err)
	}

	info := session.Info()
	if o.listener != nil {
		if err := o.listener.SessionStopped(ctx, info); err != nil {
			logger.Debug("session index update failed", logging.Error(err))
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		o.notifyError(ctx, err, "Stopping recording")
	} else if notifyErr := o.notifier.NotifySessionStopped(ctx, session.ID, info.Phrases); notifyErr != nil {
		logger.Debug("stop notification failed", logging.Error(notifyErr))
	}
	logger.Info("recording stopped",
		logging.Int("phrases", info.Phrases),
		logging.Bool("clean", err == nil),
		logging.String(logging.FieldEventType, "session_stopped"),
	)
	return info, err
}
