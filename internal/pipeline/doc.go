// Package pipeline turns recognizer pre-phrase and post-phrase events into
// event log records.
//
// A pre-phrase event either logs a talonIgnoredPhrase record or opens a
// phrase: the preCommand screenshot is taken, every active recorder's
// pre-phrase hook runs in start order, and one talonCommandPhrase record is
// written. The matching post-phrase event runs the post-phrase hooks, takes
// the postCommand screenshot, and writes a completion record with the same
// id. Hook and screenshot failures are reported and skipped; event log
// failures end the call.
package pipeline
