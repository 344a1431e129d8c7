package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Command describes a single external invocation.
type Command struct {
	Binary string
	Args   []string
	Dir    string
	Stdin  []byte
}

// Executor abstracts command execution for testability.
type Executor interface {
	Output(ctx context.Context, cmd Command) ([]byte, error)
}

// CommandExecutor runs commands with os/exec.
type CommandExecutor struct{}

// Output runs the command and returns its stdout. Stderr is folded into the
// returned error when the command fails.
func (CommandExecutor) Output(ctx context.Context, cmd Command) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Stdin) > 0 {
		c.Stdin = bytes.NewReader(cmd.Stdin)
	}
	var stderr bytes.Buffer
	c.Stderr = io.Writer(&stderr)
	out, err := c.Output()
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return out, fmt.Errorf("%s %s: %w: %s", cmd.Binary, strings.Join(cmd.Args, " "), err, detail)
		}
		return out, fmt.Errorf("%s %s: %w", cmd.Binary, strings.Join(cmd.Args, " "), err)
	}
	return out, nil
}
