// Package daemonctl launches a detached wax daemon and waits for its socket.
package daemonctl

import (
	"fmt"
	"os/exec"
	"strings"
	"time"

	"wax/internal/ipc"
)

// LaunchOptions are forwarded to the detached daemon command line.
type LaunchOptions struct {
	SocketPath string
	ConfigPath string
}

// StartResult reports whether EnsureRunning had to launch a process.
type StartResult struct {
	Launched bool
	PID      int
}

const pollInterval = 200 * time.Millisecond

// Args returns the command line that runs the daemon in the foreground.
func Args(opts LaunchOptions) []string {
	args := []string{"daemon"}
	if socket := strings.TrimSpace(opts.SocketPath); socket != "" {
		args = append(args, "--socket", socket)
	}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	return args
}

// Launch starts executablePath as a detached daemon process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}
	proc := exec.Command(executablePath, Args(opts)...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient dials socketPath until it answers or timeout passes.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		if time.Now().After(deadline) {
			break
		}
		time.Sleep(pollInterval)
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureRunning returns the PID of the daemon behind socketPath, launching
// one first when nothing answers.
func EnsureRunning(socketPath, executablePath string, opts LaunchOptions, timeout time.Duration) (StartResult, error) {
	var result StartResult
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if err := Launch(executablePath, opts); err != nil {
			return result, err
		}
		result.Launched = true
		client, err = WaitForClient(socketPath, timeout)
		if err != nil {
			return result, err
		}
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		return result, fmt.Errorf("query daemon status: %w", err)
	}
	if !status.Running {
		return result, fmt.Errorf("daemon at %s answered but is not running", socketPath)
	}
	result.PID = status.PID
	return result, nil
}
