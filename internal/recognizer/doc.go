// Package recognizer decodes phrase events sent by the speech engine bridge
// and re-derives which grammar rules a phrase matched from the engine's debug
// trace.
//
// Host timestamps in events are seconds on the engine's own monotonic clock.
// Every event carries "now", the engine clock at emission, which lets the
// pipeline map those timestamps onto the session clock.
package recognizer
