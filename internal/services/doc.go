// Package services defines shared utilities consumed by the recording
// orchestrator, the recorders, and the external integrations they drive.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, phrase IDs, and recorder names
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures as
//     precondition, start, capture, or log I/O errors.
//   - The Executor abstraction that makes external command execution (git,
//     editor bridges, marker painters) testable.
//
// Use these helpers when wiring new recorders so operational behaviour (error
// handling, observability) stays uniform across the session lifecycle.
package services
