// Package main hosts the wax CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC calls
// against the daemon: session start and stop, status, named screenshots, and
// the phrase commands the recognizer bridge uses to forward events. It also
// runs the daemon itself and scaffolds configuration.
//
// Keep this package lean: session behavior lives in the internal packages and
// is surfaced here through dedicated commands or flags.
package main
