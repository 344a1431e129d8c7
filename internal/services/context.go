package services

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	phraseIDKey  contextKey = "phrase_id"
	recorderKey  contextKey = "recorder"
	requestIDKey contextKey = "request_id"
)

// WithSessionID annotates context with the recording session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the recording session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithPhraseID annotates context with the phrase being captured.
func WithPhraseID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, phraseIDKey, id)
}

// PhraseIDFromContext returns the phrase identifier if present.
func PhraseIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(phraseIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRecorder annotates context with the recorder currently being driven.
func WithRecorder(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, recorderKey, name)
}

// RecorderFromContext returns the recorder name if present.
func RecorderFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(recorderKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
