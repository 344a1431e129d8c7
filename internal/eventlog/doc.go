// Package eventlog writes the per-session event log and owns the session
// clock.
//
// The log is a single append-only file of line-delimited JSON objects created
// fresh for each session. Values that cannot be encoded collapse to null
// instead of failing the write; I/O failures are returned wrapped in
// services.ErrLogIO and are fatal to the session.
//
// Clock holds the one time origin of a session. Every offset written to the
// log is measured against it.
package eventlog
