package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPrecondition   = errors.New("precondition failed")
	ErrStartFailed    = errors.New("recorder start failed")
	ErrCapture        = errors.New("capture failed")
	ErrLogIO          = errors.New("event log write failed")
	ErrExternalTool   = errors.New("external tool error")
	ErrConfiguration  = errors.New("configuration error")
	ErrSessionActive  = errors.New("recording session already active")
	ErrNoSession      = errors.New("no recording session active")
	ErrClockNotMarked = errors.New("session clock not started")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Precondition is shorthand for a check_can_start/check_can_stop violation.
// The user-facing message is kept verbatim so it can be shown as-is.
func Precondition(component, message string) error {
	return &PreconditionError{Component: component, Message: message}
}

// PreconditionError carries an actionable message for the user.
type PreconditionError struct {
	Component string
	Message   string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// UserMessage returns the text shown to the user for err. Precondition
// failures keep their own message; everything else uses the full chain.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var pre *PreconditionError
	if errors.As(err, &pre) {
		return strings.TrimSpace(pre.Message)
	}
	return strings.TrimSpace(err.Error())
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
