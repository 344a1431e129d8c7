package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const defaultConfigPath = "~/.config/wax/config.toml"

// Paths contains directory configuration.
type Paths struct {
	RecordingsDir string `toml:"recordings_dir"`
	LogDir        string `toml:"log_dir"`
	UserDir       string `toml:"user_dir"`
	HostDir       string `toml:"host_dir"`
}

// Session contains recording session choreography settings.
type Session struct {
	RecorderDelayMS  int      `toml:"recorder_delay_ms"`
	MaxRecorders     int      `toml:"max_recorders"`
	DefaultRecorders []string `toml:"default_recorders"`
	FormatVersion    int      `toml:"format_version"`
}

// Screenshots controls per-phrase screen capture.
type Screenshots struct {
	// TimestampOnly records elapsed time without grabbing pixels.
	TimestampOnly bool `toml:"timestamp_only"`
	WriteDelayMS  int  `toml:"write_delay_ms"`
	Display       int  `toml:"display"`
}

// Calibration describes the marker flashed when a session goes live.
type Calibration struct {
	Color      string `toml:"color"`
	DurationMS int    `toml:"duration_ms"`
	Command    string `toml:"command"`
}

// Git configures the implicit repository recorder.
type Git struct {
	Binary       string `toml:"binary"`
	RequireClean bool   `toml:"require_clean"`
}

// Editor configures the editor-state recorder bridge.
type Editor struct {
	BridgeCommand   string `toml:"bridge_command"`
	MarkScreenshots bool   `toml:"mark_screenshots"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// OBS configures the obs-websocket screen recorder.
type OBS struct {
	URL      string `toml:"url"`
	Password string `toml:"password"`
}

// Hotkey configures the keyboard-shortcut screen recorder.
type Hotkey struct {
	StartShortcut   string `toml:"start_shortcut"`
	ConfirmShortcut string `toml:"confirm_shortcut"`
	StopShortcut    string `toml:"stop_shortcut"`
	SettleMS        int    `toml:"settle_ms"`
}

// Recognizer configures trace re-derivation for recognized phrases.
type Recognizer struct {
	SimCommand string `toml:"sim_command"`
	RulesRoot  string `toml:"rules_root"`
}

// Notifications contains configuration for user-facing notices.
type Notifications struct {
	Desktop        bool   `toml:"desktop"`
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for daemon log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for wax.
//
// Configuration sections by subsystem:
//   - Paths: recordings, daemon state, and the scanned user configuration root
//   - Session/Calibration: start and stop choreography
//   - Screenshots: capture mode for per-phrase screenshots
//   - Git/Editor/OBS/Hotkey: recorder variants
//   - Recognizer: trace re-derivation for phrases
//   - Notifications/Logging: operator feedback
type Config struct {
	Paths         Paths         `toml:"paths"`
	Session       Session       `toml:"session"`
	Screenshots   Screenshots   `toml:"screenshots"`
	Calibration   Calibration   `toml:"calibration"`
	Git           Git           `toml:"git"`
	Editor        Editor        `toml:"editor"`
	OBS           OBS           `toml:"obs"`
	Hotkey        Hotkey        `toml:"hotkey"`
	Recognizer    Recognizer    `toml:"recognizer"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the user-level config location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads configuration from path, the user config, or ./wax.toml in that
// order. A missing file yields defaults. The returned bool reports whether a
// file was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strings.TrimSpace(strict.String()))
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("wax.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.RecordingsDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SocketPath is the daemon's JSON-RPC socket.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "wax.sock")
}

// LockPath guards the single active daemon.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "wax.lock")
}

// IndexPath is the sqlite session index.
func (c *Config) IndexPath() string {
	return filepath.Join(c.Paths.LogDir, "sessions.db")
}

// DaemonLogPath points at the log of the most recent daemon run.
func (c *Config) DaemonLogPath() string {
	return filepath.Join(c.Paths.LogDir, "wax-daemon.log")
}

// RecorderDelay is the settle time between consecutive recorder calls.
func (c *Config) RecorderDelay() time.Duration {
	return time.Duration(c.Session.RecorderDelayMS) * time.Millisecond
}

// ScreenshotWriteDelay is how long a full-capture screenshot waits before hitting disk.
func (c *Config) ScreenshotWriteDelay() time.Duration {
	return time.Duration(c.Screenshots.WriteDelayMS) * time.Millisecond
}

// CalibrationDuration is how long the calibration marker stays on screen.
func (c *Config) CalibrationDuration() time.Duration {
	return time.Duration(c.Calibration.DurationMS) * time.Millisecond
}

// EditorTimeout bounds a single editor bridge call.
func (c *Config) EditorTimeout() time.Duration {
	return time.Duration(c.Editor.TimeoutSeconds) * time.Second
}

// HotkeySettle is the wait after the hotkey recorder toggles recording.
func (c *Config) HotkeySettle() time.Duration {
	return time.Duration(c.Hotkey.SettleMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes path expansion for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
