package recognizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"wax/internal/recording"
)

// Word is one recognized word with optional host timings.
type Word struct {
	Text  string   `json:"text"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

// PrePhrase is emitted after recognition and before the phrase runs.
type PrePhrase struct {
	Words []Word `json:"words"`
	// Text is the transformed phrase text. Nil or blank means the phrase is
	// not a command.
	Text          *string                 `json:"text"`
	SpeechStart   *float64                `json:"speech_start"`
	Now           float64                 `json:"now"`
	Parsed        []recording.CaptureList `json:"parsed"`
	Sim           *string                 `json:"sim"`
	SpeechTimeout *float64                `json:"speech_timeout"`
	Modes         []string                `json:"modes"`
	Tags          []string                `json:"tags"`
}

// PostPhrase is emitted once the phrase's action has run.
type PostPhrase struct {
	Now float64 `json:"now"`
}

// Ignored reports whether the phrase produced no command text.
func (p PrePhrase) Ignored() bool {
	return p.Text == nil || strings.TrimSpace(*p.Text) == ""
}

// PhraseText returns the trimmed text, or "" for ignored phrases.
func (p PrePhrase) PhraseText() string {
	if p.Text == nil {
		return ""
	}
	return strings.TrimSpace(*p.Text)
}

// DecodePrePhrase parses a pre-phrase event document.
func DecodePrePhrase(data []byte) (PrePhrase, error) {
	var event PrePhrase
	if err := decodeStrict(data, &event); err != nil {
		return PrePhrase{}, fmt.Errorf("decode pre-phrase event: %w", err)
	}
	return event, nil
}

// DecodePostPhrase parses a post-phrase event document. An empty document is
// accepted and yields a zero event.
func DecodePostPhrase(data []byte) (PostPhrase, error) {
	var event PostPhrase
	if len(bytes.TrimSpace(data)) == 0 {
		return event, nil
	}
	if err := decodeStrict(data, &event); err != nil {
		return PostPhrase{}, fmt.Errorf("decode post-phrase event: %w", err)
	}
	return event, nil
}

func decodeStrict(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
