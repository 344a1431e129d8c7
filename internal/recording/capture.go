package recording

import (
	"bytes"
	"encoding/json"
	"iter"
)

// CaptureList is one entry of the recognizer's parsed output: the captures
// matched by a single command in the phrase.
type CaptureList []Capture

// Capture is one captured value. Raw is the payload exactly as the recognizer
// sent it; Targets holds the target shapes found in it. A capture that is an
// array contributes one target per element.
type Capture struct {
	Raw     json.RawMessage
	Targets []Target
}

// UnmarshalJSON keeps the raw payload and decodes any target shapes.
func (c *Capture) UnmarshalJSON(data []byte) error {
	c.Raw = append(json.RawMessage(nil), data...)
	c.Targets = nil

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		for _, item := range items {
			if target, ok := ParseTarget(item); ok {
				c.Targets = append(c.Targets, target)
			}
		}
		return nil
	}
	if target, ok := ParseTarget(trimmed); ok {
		c.Targets = append(c.Targets, target)
	}
	return nil
}

// MarshalJSON writes the original payload back out.
func (c Capture) MarshalJSON() ([]byte, error) {
	if len(c.Raw) == 0 {
		return []byte("null"), nil
	}
	return c.Raw, nil
}

// Target is a closed sum over the target shapes a capture can take.
type Target interface {
	isTarget()
}

// Primitive refers to a single mark. Mark is nil when the target has none.
type Primitive struct {
	Mark *Mark
}

// Range spans two primitive targets.
type Range struct {
	Start Primitive
	End   Primitive
}

// List groups targets.
type List struct {
	Elements []Target
}

func (Primitive) isTarget() {}
func (Range) isTarget()     {}
func (List) isTarget()      {}

// Mark is a symbolic reference to something on screen.
type Mark struct {
	Type string
	Raw  json.RawMessage
}

// MarshalJSON writes the mark as it was received.
func (m Mark) MarshalJSON() ([]byte, error) {
	if len(m.Raw) == 0 {
		return json.Marshal(map[string]string{"type": m.Type})
	}
	return m.Raw, nil
}

// DecoratedSymbol is the mark type for hats drawn over tokens.
const DecoratedSymbol = "decoratedSymbol"

type rawTarget struct {
	Type     string            `json:"type"`
	Mark     json.RawMessage   `json:"mark"`
	Start    json.RawMessage   `json:"start"`
	End      json.RawMessage   `json:"end"`
	Elements []json.RawMessage `json:"elements"`
}

// ParseTarget decodes data as a target. It reports false when data is not an
// object or its type is not one of primitive, range, or list.
func ParseTarget(data json.RawMessage) (Target, bool) {
	var raw rawTarget
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	switch raw.Type {
	case "primitive":
		return parsePrimitive(raw), true
	case "range":
		return Range{Start: parsePrimitiveRaw(raw.Start), End: parsePrimitiveRaw(raw.End)}, true
	case "list":
		list := List{}
		for _, element := range raw.Elements {
			if target, ok := ParseTarget(element); ok {
				list.Elements = append(list.Elements, target)
			}
		}
		return list, true
	default:
		return nil, false
	}
}

func parsePrimitiveRaw(data json.RawMessage) Primitive {
	var raw rawTarget
	if len(data) == 0 || json.Unmarshal(data, &raw) != nil {
		return Primitive{}
	}
	return parsePrimitive(raw)
}

func parsePrimitive(raw rawTarget) Primitive {
	if len(raw.Mark) == 0 || bytes.Equal(bytes.TrimSpace(raw.Mark), []byte("null")) {
		return Primitive{}
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw.Mark, &head); err != nil {
		return Primitive{}
	}
	return Primitive{Mark: &Mark{Type: head.Type, Raw: append(json.RawMessage(nil), raw.Mark...)}}
}

// DecoratedMarks yields every decorated-symbol mark referenced by captures,
// in capture order. The sequence may be iterated more than once.
func DecoratedMarks(captures []CaptureList) iter.Seq[Mark] {
	return func(yield func(Mark) bool) {
		for _, list := range captures {
			for _, capture := range list {
				for _, target := range capture.Targets {
					if !walkTarget(target, yield) {
						return
					}
				}
			}
		}
	}
}

func walkTarget(target Target, yield func(Mark) bool) bool {
	switch t := target.(type) {
	case Primitive:
		return walkPrimitive(t, yield)
	case Range:
		return walkPrimitive(t.Start, yield) && walkPrimitive(t.End, yield)
	case List:
		for _, element := range t.Elements {
			if !walkTarget(element, yield) {
				return false
			}
		}
	}
	return true
}

func walkPrimitive(p Primitive, yield func(Mark) bool) bool {
	if p.Mark == nil || p.Mark.Type != DecoratedSymbol {
		return true
	}
	return yield(*p.Mark)
}
