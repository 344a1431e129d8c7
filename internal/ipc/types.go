package ipc

import (
	"time"

	"wax/internal/orchestrator"
	"wax/internal/recognizer"
	"wax/internal/services"
)

// Failure carries a classified error across the socket. net/rpc flattens
// returned errors to strings, so session failures travel in the response.
type Failure struct {
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

func failure(err error) Failure {
	if err == nil {
		return Failure{}
	}
	return Failure{Error: services.UserMessage(err), ErrorKind: services.Kind(err)}
}

// Err rebuilds the daemon-side error, or nil.
func (f Failure) Err() error {
	return services.FromKind(f.ErrorKind, f.Error)
}

// SessionInfo is the wire form of a session summary.
type SessionInfo struct {
	ID          string     `json:"id"`
	Dir         string     `json:"dir"`
	StartedAt   time.Time  `json:"started_at"`
	Recorders   []string   `json:"recorders"`
	Phrases     int        `json:"phrases"`
	PhraseOpen  bool       `json:"phrase_open"`
	ClockOrigin *time.Time `json:"clock_origin,omitempty"`
}

func sessionInfo(info orchestrator.Info) *SessionInfo {
	if info.ID == "" {
		return nil
	}
	out := &SessionInfo{
		ID:         info.ID,
		Dir:        info.Dir,
		StartedAt:  info.StartedAt,
		Recorders:  info.Recorders,
		Phrases:    info.Phrases,
		PhraseOpen: info.PhraseOpen,
	}
	if info.ClockMarked {
		origin := info.ClockOrigin
		out.ClockOrigin = &origin
	}
	return out
}

// StartSessionRequest starts a recording session. Empty Recorders means
// session.default_recorders.
type StartSessionRequest struct {
	Recorders []string `json:"recorders"`
}

// StartSessionResponse describes the started session.
type StartSessionResponse struct {
	Session *SessionInfo `json:"session"`
	Failure
}

// StopSessionRequest stops the live session.
type StopSessionRequest struct{}

// StopSessionResponse describes the stopped session.
type StopSessionResponse struct {
	Session *SessionInfo `json:"session"`
	Failure
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// DependencyStatus describes availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail"`
}

// StatusResponse represents daemon and session status.
type StatusResponse struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	LockPath     string             `json:"lock_path"`
	LogPath      string             `json:"log_path"`
	IndexPath    string             `json:"index_path"`
	Session      *SessionInfo       `json:"session"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// PrePhraseRequest forwards a recognizer pre-phrase event.
type PrePhraseRequest struct {
	Event recognizer.PrePhrase `json:"event"`
}

// PostPhraseRequest forwards a recognizer post-phrase event.
type PostPhraseRequest struct {
	Event recognizer.PostPhrase `json:"event"`
}

// PhraseResponse reports what the pipeline did with an event.
type PhraseResponse struct {
	Outcome  string `json:"outcome"`
	PhraseID string `json:"phrase_id,omitempty"`
	Warnings int    `json:"warnings"`
	Failure
}

// ScreenshotRequest takes a named screenshot in the open capture window.
type ScreenshotRequest struct {
	Name string `json:"name"`
}

// ScreenshotResponse reports the screenshot result.
type ScreenshotResponse struct {
	Failure
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent     bool     `json:"sent"`
	Channels []string `json:"channels,omitempty"`
	Message  string   `json:"message,omitempty"`
}
