package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for the per-invocation run identifier.
	FieldRunID = "run_id"
	// FieldPartNumber is the standardized structured logging key for vendor part numbers.
	FieldPartNumber = "part_number"
	// FieldCategory is the standardized structured logging key for sanitized part categories.
	FieldCategory = "category"
	// FieldEventType classifies a log line for filtering (e.g. "part_planned").
	FieldEventType = "event_type"
	// FieldErrorHint carries the next step a user should take after a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey string

const (
	runIDKey contextKey = "run_id"
	partKey  contextKey = "part_number"
)

// WithRunID annotates context with the invocation run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(runIDKey).(string)
	return v, ok && v != ""
}

// WithPart annotates context with the part number currently being processed.
func WithPart(ctx context.Context, partNumber string) context.Context {
	if partNumber == "" {
		return ctx
	}
	return context.WithValue(ctx, partKey, partNumber)
}

// PartFromContext returns the part number if present.
func PartFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(partKey).(string)
	return v, ok && v != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if part, ok := PartFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPartNumber, part))
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
	return slog.New(logger.Handler().WithAttrs(fields))
}
