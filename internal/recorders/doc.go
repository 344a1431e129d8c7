// Package recorders implements the recorder variants a session can run:
//
//   - git: the implicit repository recorder, logging the revision of every
//     tracked directory under the user configuration root
//   - obs: screen video through obs-websocket
//   - hotkey: screen video through an OS recording shortcut
//   - editor: editor-state snapshots around every phrase
//
// Build turns configured recorder names into fresh instances for one session.
package recorders
