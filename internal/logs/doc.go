// Package logs reads the daemon log and session event logs for the CLI.
//
// Last returns the final lines of a file together with the offset where the
// read stopped, and Follow polls from that offset, emitting lines as they are
// appended. A file that shrinks below the offset is treated as replaced and
// is read again from the start.
package logs
