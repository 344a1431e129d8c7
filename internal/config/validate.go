package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var hexColor = regexp.MustCompile(`^#[0-9a-f]{6}$`)

// knownRecorders lists recorder names accepted in session.default_recorders.
var knownRecorders = map[string]struct{}{
	"obs":    {},
	"hotkey": {},
	"editor": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateScreenshots(); err != nil {
		return err
	}
	if err := c.validateCalibration(); err != nil {
		return err
	}
	if err := c.validateRecorders(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.RecordingsDir == "" {
		return errors.New("paths.recordings_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.RecorderDelayMS < 0 {
		return errors.New("session.recorder_delay_ms must be >= 0")
	}
	if c.Session.MaxRecorders <= 0 {
		return errors.New("session.max_recorders must be positive")
	}
	if c.Session.FormatVersion <= 0 {
		return errors.New("session.format_version must be positive")
	}
	if len(c.Session.DefaultRecorders) > c.Session.MaxRecorders {
		return fmt.Errorf("session.default_recorders lists %d recorders; at most %d allowed", len(c.Session.DefaultRecorders), c.Session.MaxRecorders)
	}
	for _, name := range c.Session.DefaultRecorders {
		if _, ok := knownRecorders[name]; !ok {
			return fmt.Errorf("session.default_recorders: unknown recorder %q", name)
		}
	}
	return nil
}

func (c *Config) validateScreenshots() error {
	if c.Screenshots.WriteDelayMS < 0 {
		return errors.New("screenshots.write_delay_ms must be >= 0")
	}
	if c.Screenshots.Display < 0 {
		return errors.New("screenshots.display must be >= 0")
	}
	return nil
}

func (c *Config) validateCalibration() error {
	if !hexColor.MatchString(c.Calibration.Color) {
		return fmt.Errorf("calibration.color must be a #rrggbb value, got %q", c.Calibration.Color)
	}
	if c.Calibration.DurationMS <= 0 {
		return errors.New("calibration.duration_ms must be positive")
	}
	return nil
}

func (c *Config) validateRecorders() error {
	if c.Editor.TimeoutSeconds <= 0 {
		return errors.New("editor.timeout_seconds must be positive")
	}
	if c.Hotkey.SettleMS < 0 {
		return errors.New("hotkey.settle_ms must be >= 0")
	}
	if c.OBS.URL != "" && !strings.HasPrefix(c.OBS.URL, "ws://") && !strings.HasPrefix(c.OBS.URL, "wss://") {
		return fmt.Errorf("obs.url must use ws:// or wss://, got %q", c.OBS.URL)
	}
	for _, name := range c.Session.DefaultRecorders {
		switch name {
		case "editor":
			if c.Editor.BridgeCommand == "" {
				return errors.New("editor.bridge_command is required when the editor recorder is enabled")
			}
		case "obs":
			if c.OBS.URL == "" {
				return errors.New("obs.url is required when the obs recorder is enabled")
			}
		case "hotkey":
			if c.Hotkey.StartShortcut == "" || c.Hotkey.StopShortcut == "" {
				return errors.New("hotkey.start_shortcut and hotkey.stop_shortcut are required when the hotkey recorder is enabled")
			}
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}
