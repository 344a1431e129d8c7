package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSession()
	c.normalizeRecorders()
	if err := c.normalizeRecognizer(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.RecordingsDir, err = expandPath(strings.TrimSpace(c.Paths.RecordingsDir)); err != nil {
		return fmt.Errorf("paths.recordings_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.UserDir, err = expandPath(strings.TrimSpace(c.Paths.UserDir)); err != nil {
		return fmt.Errorf("paths.user_dir: %w", err)
	}
	host := strings.TrimSpace(c.Paths.HostDir)
	if host == "" && c.Paths.UserDir != "" {
		host = filepath.Dir(c.Paths.UserDir)
	}
	if c.Paths.HostDir, err = expandPath(host); err != nil {
		return fmt.Errorf("paths.host_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSession() {
	names := make([]string, 0, len(c.Session.DefaultRecorders))
	seen := make(map[string]struct{}, len(c.Session.DefaultRecorders))
	for _, name := range c.Session.DefaultRecorders {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	c.Session.DefaultRecorders = names
}

func (c *Config) normalizeRecorders() {
	c.Calibration.Color = strings.ToLower(strings.TrimSpace(c.Calibration.Color))
	c.Calibration.Command = strings.TrimSpace(c.Calibration.Command)
	c.Git.Binary = strings.TrimSpace(c.Git.Binary)
	if c.Git.Binary == "" {
		c.Git.Binary = defaultGitBinary
	}
	c.Editor.BridgeCommand = strings.TrimSpace(c.Editor.BridgeCommand)
	c.OBS.URL = strings.TrimSpace(c.OBS.URL)
	c.OBS.Password = strings.TrimSpace(c.OBS.Password)
	if c.OBS.Password == "" {
		if value, ok := os.LookupEnv("OBS_WEBSOCKET_PASSWORD"); ok {
			c.OBS.Password = strings.TrimSpace(value)
		}
	}
	c.Hotkey.StartShortcut = strings.TrimSpace(c.Hotkey.StartShortcut)
	c.Hotkey.ConfirmShortcut = strings.TrimSpace(c.Hotkey.ConfirmShortcut)
	c.Hotkey.StopShortcut = strings.TrimSpace(c.Hotkey.StopShortcut)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
}

func (c *Config) normalizeRecognizer() error {
	c.Recognizer.SimCommand = strings.TrimSpace(c.Recognizer.SimCommand)
	root := strings.TrimSpace(c.Recognizer.RulesRoot)
	if root == "" {
		root = c.Paths.UserDir
	}
	var err error
	if c.Recognizer.RulesRoot, err = expandPath(root); err != nil {
		return fmt.Errorf("recognizer.rules_root: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
