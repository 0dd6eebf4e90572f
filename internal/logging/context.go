package logging

import (
	"context"
	"log/slog"

	"repro/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldSubmission is the standardized structured logging key for submission UUIDs.
	FieldSubmission = "submission"
	// FieldOwner is the standardized structured logging key for the owning user directory.
	FieldOwner = "owner"
	// FieldHostname identifies the worker host that emitted the record.
	FieldHostname = "hostname"
	// FieldEventType classifies a record for filtering ("stage_start", "rejected", ...).
	FieldEventType = "event_type"
	// FieldErrorHint tells an operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldReason carries a rejection reason code.
	FieldReason = "reason"
	// FieldPath carries a filesystem path.
	FieldPath = "path"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if id, ok := services.SubmissionFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSubmission, id))
	}
	if owner, ok := services.OwnerFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldOwner, owner))
	}
	if host, ok := services.HostnameFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldHostname, host))
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
	args := make([]any, 0, len(fields))
	for _, field := range fields {
		args = append(args, field)
	}
	return logger.With(args...)
}
