// Package orchestrator owns the recording session lifecycle.
//
// Start appends the implicit repository recorder, moves recorders that show
// a calibration display to the end, runs every start precondition before any
// side effect, creates the session directory and event log, starts recorders
// one at a time, and finally flashes the calibration marker. The clock origin
// is captured at the moment the marker is dismissed. A recorder that fails to
// start causes every recorder started before it to be stopped in start order.
//
// Stop is fail-closed: every stop precondition must pass before any recorder
// is stopped.
package orchestrator
