package services

import "context"

type contextKey string

const (
	episodeKey   contextKey = "episode"
	operationKey contextKey = "operation"
	requestIDKey contextKey = "request_id"
)

// WithEpisode annotates context with the episode number being operated on.
func WithEpisode(ctx context.Context, number int) context.Context {
	if number <= 0 {
		return ctx
	}
	return context.WithValue(ctx, episodeKey, number)
}

// EpisodeFromContext extracts the episode number if present.
func EpisodeFromContext(ctx context.Context) (int, bool) {
	if v, ok := ctx.Value(episodeKey).(int); ok && v > 0 {
		return v, true
	}
	return 0, false
}

// WithOperation annotates context with the lifecycle operation name.
func WithOperation(ctx context.Context, operation string) context.Context {
	if operation == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey, operation)
}

// OperationFromContext returns the operation name if present.
func OperationFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(operationKey).(string); ok && v != "" {
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
