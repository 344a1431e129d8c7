package orchestrator

import (
	"sync"
	"time"

	"wax/internal/eventlog"
	"wax/internal/recording"
	"wax/internal/screenshots"
)

// Session is one recording session from Start until Stop or rollback.
type Session struct {
	ID        string
	Dir       string
	StartedAt time.Time

	Context     *recording.Context
	Log         *eventlog.Log
	Clock       *eventlog.Clock
	Screenshots *screenshots.Subsystem

	mu sync.Mutex
	// recorders holds the recorders that started, in start order. Status
	// reads it while Start is still appending.
	recorders []recording.Recorder
	phrase    *recording.PhraseInfo
	phrases   int
}

// Recorders returns the active recorders in start order.
func (s *Session) Recorders() []recording.Recorder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recording.Recorder(nil), s.recorders...)
}

func (s *Session) addRecorder(r recording.Recorder) {
	s.mu.Lock()
	s.recorders = append(s.recorders, r)
	s.mu.Unlock()
}

// Phrase returns the open phrase, or nil.
func (s *Session) Phrase() *recording.PhraseInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phrase
}

// OpenPhrase makes phrase the open phrase and counts it.
func (s *Session) OpenPhrase(phrase *recording.PhraseInfo) {
	s.mu.Lock()
	s.phrase = phrase
	s.phrases++
	s.mu.Unlock()
}

// ClosePhrase clears and returns the open phrase.
func (s *Session) ClosePhrase() *recording.PhraseInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	phrase := s.phrase
	s.phrase = nil
	return phrase
}

// Info is a point-in-time summary of a session.
type Info struct {
	ID          string
	Dir         string
	StartedAt   time.Time
	Recorders   []string
	Phrases     int
	PhraseOpen  bool
	ClockMarked bool
	// ClockOrigin is zero until the calibration marker has been dismissed.
	ClockOrigin time.Time
}

// Info summarizes the session.
func (s *Session) Info() Info {
	origin, marked := s.Clock.Origin()
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.recorders))
	for _, r := range s.recorders {
		names = append(names, r.Name())
	}
	return Info{
		ID:          s.ID,
		Dir:         s.Dir,
		StartedAt:   s.StartedAt,
		Recorders:   names,
		Phrases:     s.phrases,
		PhraseOpen:  s.phrase != nil,
		ClockMarked: marked,
		ClockOrigin: origin,
	}
}
