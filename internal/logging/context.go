package logging

import (
	"context"
	"fmt"
	"log/slog"

	"moltcast/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEpisode is the standardized structured logging key for episode numbers.
	FieldEpisode = "episode"
	// FieldOperation is the standardized structured logging key for lifecycle operation names.
	FieldOperation = "operation"
	// FieldStage is the standardized structured logging key for derived lifecycle stages.
	FieldStage = "stage"
	// FieldTheme is the standardized structured logging key for relevance themes.
	FieldTheme = "theme"
	// FieldCorrelationID is the standardized structured logging key for run correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if n, ok := services.EpisodeFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldEpisode, FormatEpisode(n)))
	}
	if op, ok := services.OperationFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldOperation, op))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}

// FormatEpisode renders an episode number the way directories name it.
func FormatEpisode(n int) string {
	return fmt.Sprintf("%03d", n)
}
