package preflight

import (
	"context"

	"wax/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Recordings directory", cfg.Paths.RecordingsDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckUserDir(cfg.Paths.UserDir),
	}

	for _, name := range cfg.Session.DefaultRecorders {
		switch name {
		case "obs":
			results = append(results, CheckOBS(ctx, cfg.OBS.URL, cfg.OBS.Password))
		case "editor":
			results = append(results, CheckEditor(ctx, cfg.Editor.BridgeCommand, cfg.EditorTimeout()))
		}
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
