package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"wax/internal/config"
	"wax/internal/deps"
	"wax/internal/editor"
	"wax/internal/obsws"
)

const probeTimeout = 5 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckUserDir verifies the voice user directory is readable. A missing
// directory passes: the repository recorder then logs nothing.
func CheckUserDir(path string) Result {
	const name = "User directory"
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (absent; no repositories recorded)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckOBS verifies the obs-websocket server accepts an identified session.
func CheckOBS(ctx context.Context, url, password string) Result {
	const name = "OBS websocket"
	if url == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	client, err := obsws.Dial(checkCtx, url, password)
	if err != nil {
		if errors.Is(err, obsws.ErrAuthRequired) {
			return Result{Name: name, Detail: "auth failed (set obs.password)"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	defer client.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("obs-websocket %s", client.ServerVersion())}
}

// CheckEditor pings the editor through its bridge.
func CheckEditor(ctx context.Context, bridgeCommand string, timeout time.Duration) Result {
	const name = "Editor bridge"
	if bridgeCommand == "" {
		return Result{Name: name, Detail: "bridge command not configured"}
	}
	bridge := &editor.Bridge{Command: bridgeCommand, Timeout: timeout}
	if err := bridge.Ping(ctx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("editor not responding (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckSystemDeps evaluates the external programs the config refers to.
// Both the daemon and the CLI status command use this to avoid duplicating
// the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "git",
			Command:     cfg.Git.Binary,
			Description: "Required to log repository revisions",
		},
	}
	if cfg.Editor.BridgeCommand != "" {
		requirements = append(requirements, deps.Requirement{
			Name:        "Editor bridge",
			Command:     cfg.Editor.BridgeCommand,
			Description: "Required by the editor recorder",
		})
	}
	if cfg.Recognizer.SimCommand != "" {
		requirements = append(requirements, deps.Requirement{
			Name:        "Sim command",
			Command:     cfg.Recognizer.SimCommand,
			Description: "Recovers matched rules for each phrase",
			Optional:    true,
		})
	}
	if cfg.Calibration.Command != "" {
		requirements = append(requirements, deps.Requirement{
			Name:        "Calibration marker",
			Command:     cfg.Calibration.Command,
			Description: "Paints the calibration flash; timing-only calibration without it",
			Optional:    true,
		})
	}
	return deps.CheckBinaries(requirements)
}
