// Package logging assembles the structured slog loggers used by the wax
// daemon and CLI.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so orchestrator and recorder code tag log
// lines with session IDs, phrase IDs, and recorder names. Diagnostic logging
// produced here is separate from the per-session event log, which is written
// by package eventlog.
package logging
