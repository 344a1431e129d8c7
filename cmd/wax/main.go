package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"wax/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, errorMessage(err))
		}
		os.Exit(exitCode(err))
	}
}

// errorMessage keeps precondition text verbatim so users see the recorder's
// own instruction.
func errorMessage(err error) string {
	if errors.Is(err, services.ErrPrecondition) {
		return "Cannot start recording: " + services.UserMessage(err)
	}
	return err.Error()
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return 2
	case errors.Is(err, services.ErrPrecondition):
		return 3
	case errors.Is(err, services.ErrSessionActive), errors.Is(err, services.ErrNoSession):
		return 4
	default:
		return 1
	}
}
