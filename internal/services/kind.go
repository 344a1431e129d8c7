package services

import (
	"errors"
	"fmt"
)

var kinds = []struct {
	name   string
	marker error
}{
	{"precondition", ErrPrecondition},
	{"session_active", ErrSessionActive},
	{"no_session", ErrNoSession},
	{"configuration", ErrConfiguration},
	{"start_failed", ErrStartFailed},
	{"capture", ErrCapture},
	{"log_io", ErrLogIO},
	{"clock_not_marked", ErrClockNotMarked},
	{"external_tool", ErrExternalTool},
}

// Kind names the sentinel err is tagged with so the classification survives
// transports that only carry strings. Unclassified errors yield "error".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.name
		}
	}
	return "error"
}

// FromKind rebuilds an error tagged with the sentinel named by kind.
func FromKind(kind, message string) error {
	if kind == "" {
		return nil
	}
	if kind == "precondition" {
		return &PreconditionError{Message: message}
	}
	for _, k := range kinds {
		if k.name == kind {
			return fmt.Errorf("%w: %s", k.marker, message)
		}
	}
	return errors.New(message)
}
