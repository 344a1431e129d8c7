// Package preflight provides readiness checks for the directories and
// external programs wax depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs every failure, so a broken
//     setup shows up before the first recording instead of during it.
//   - The CLI "wax status" command displays the same results.
//
// Recorder checks only run for recorders listed in
// session.default_recorders. Start preconditions still run per session.
package preflight
