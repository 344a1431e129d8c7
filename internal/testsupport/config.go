package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"wax/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Delays are zeroed so session choreography runs without sleeping, and desktop
// notifications are disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RecordingsDir = filepath.Join(base, "recordings")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.UserDir = filepath.Join(base, "talon", "user")
	cfgVal.Paths.HostDir = filepath.Join(base, "talon")
	cfgVal.Recognizer.RulesRoot = cfgVal.Paths.UserDir
	cfgVal.Session.RecorderDelayMS = 0
	cfgVal.Screenshots.WriteDelayMS = 0
	cfgVal.Calibration.DurationMS = 1
	cfgVal.Hotkey.SettleMS = 0
	cfgVal.Notifications.Desktop = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRecorders sets session.default_recorders.
func WithRecorders(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Session.DefaultRecorders = names
	}
}

// WithFullCapture switches screenshots to full-capture mode.
func WithFullCapture() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Screenshots.TimestampOnly = false
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, git is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"git"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteScript(b.t, filepath.Join(binDir, name), "exit 0")
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
