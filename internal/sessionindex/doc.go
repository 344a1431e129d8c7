// Package sessionindex keeps a SQLite index of recording sessions so the CLI
// can list past sessions without walking the recordings directory. The event
// log inside each session directory remains the record of truth; the index
// only summarizes it.
package sessionindex
