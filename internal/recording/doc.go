// Package recording defines the recorder capability contract shared by the
// session orchestrator, the phrase capture pipeline, and every recorder
// variant.
//
// A Recorder is constructed fresh for each session. The orchestrator runs its
// preconditions, starts it with a Context describing the session directory,
// calls its phrase hooks around every recognized command, and finally stops
// it. PhraseInfo carries the parsed capture tree of the phrase being captured;
// DecoratedMarks walks that tree.
package recording
