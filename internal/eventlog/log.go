package eventlog

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sync"

	"wax/internal/services"
)

// FileName is the event log inside every session directory.
const FileName = "talon-log.jsonl"

// Record is one log line. Keys are written in sorted order.
type Record map[string]any

// Log appends records to a session event log.
type Log struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// Create opens a new log at path. It fails if the file already exists.
func Create(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrLogIO, "eventlog", "create", "Failed to create session directory", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, services.Wrap(services.ErrLogIO, "eventlog", "create", "Failed to create event log", err)
	}
	return &Log{path: path, file: file}, nil
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// Write sanitizes record and appends it as a single line.
func (l *Log) Write(record map[string]any) error {
	line, err := json.Marshal(Sanitize(record))
	if err != nil {
		// Sanitize leaves only encodable values, so this is unreachable in practice.
		return services.Wrap(services.ErrLogIO, "eventlog", "encode", "Failed to encode log record", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return services.Wrap(services.ErrLogIO, "eventlog", "write", "Event log is closed", os.ErrClosed)
	}
	if _, err := l.file.Write(line); err != nil {
		return services.Wrap(services.ErrLogIO, "eventlog", "write", "Failed to append log record", err)
	}
	return nil
}

// Close flushes and closes the file. It is safe to call more than once.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Sync()
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	l.file = nil
	if err != nil {
		return services.Wrap(services.ErrLogIO, "eventlog", "close", "Failed to close event log", err)
	}
	return nil
}

// Sanitize returns a copy of value in which every leaf that cannot be encoded
// as JSON is replaced by nil. Maps and slices are walked so that one bad field
// does not null out its siblings.
func Sanitize(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case Record:
		return sanitizeMap(v)
	case map[string]any:
		return sanitizeMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Sanitize(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = sanitizeMap(item)
		}
		return out
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case string, bool, int, int64, json.RawMessage:
		if raw, ok := v.(json.RawMessage); ok && !json.Valid(raw) {
			return nil
		}
		return v
	default:
		if _, err := json.Marshal(v); err != nil {
			return nil
		}
		return v
	}
}

func sanitizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for key, item := range m {
		out[key] = Sanitize(item)
	}
	return out
}
