// Package daemon coordinates the long-running wax process.
//
// It wires configuration, the session index, the recording orchestrator, and
// the phrase pipeline into a single lifecycle with flock-based locking so only
// one daemon, and therefore one recording session, exists per log directory.
// Every session operation is serialized through the daemon so phrase events
// never interleave with a start or stop.
//
// Keep choreography in the orchestrator and pipeline packages: the daemon
// focuses on startup, shutdown, and routing requests to them.
package daemon
