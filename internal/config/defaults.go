package config

// Default values for configuration fields.
const (
	defaultRecordingsDir     = "~/talon-recording-logs"
	defaultLogDir            = "~/.local/share/wax"
	defaultUserDir           = "~/.talon/user"
	defaultRecorderDelayMS   = 250
	defaultMaxRecorders      = 5
	defaultFormatVersion     = 2
	defaultScreenshotDelayMS = 50
	defaultCalibrationColor  = "#1b0026"
	defaultCalibrationMS     = 50
	defaultGitBinary         = "git"
	defaultEditorTimeout     = 10
	defaultOBSURL            = "ws://127.0.0.1:4455"
	defaultHotkeySettleMS    = 3000
	defaultRequestTimeout    = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RecordingsDir: defaultRecordingsDir,
			LogDir:        defaultLogDir,
			UserDir:       defaultUserDir,
		},
		Session: Session{
			RecorderDelayMS: defaultRecorderDelayMS,
			MaxRecorders:    defaultMaxRecorders,
			FormatVersion:   defaultFormatVersion,
		},
		Screenshots: Screenshots{
			TimestampOnly: true,
			WriteDelayMS:  defaultScreenshotDelayMS,
		},
		Calibration: Calibration{
			Color:      defaultCalibrationColor,
			DurationMS: defaultCalibrationMS,
		},
		Git: Git{
			Binary: defaultGitBinary,
		},
		Editor: Editor{
			TimeoutSeconds: defaultEditorTimeout,
		},
		OBS: OBS{
			URL: defaultOBSURL,
		},
		Hotkey: Hotkey{
			SettleMS: defaultHotkeySettleMS,
		},
		Notifications: Notifications{
			Desktop:        true,
			RequestTimeout: defaultRequestTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
