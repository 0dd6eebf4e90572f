package services

import "context"

type contextKey string

const (
	stageKey      contextKey = "stage"
	submissionKey contextKey = "submission"
	ownerKey      contextKey = "owner"
	hostnameKey   contextKey = "hostname"
)

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, stageKey)
}

// WithSubmission annotates context with the submission UUID being processed.
func WithSubmission(ctx context.Context, uuid string) context.Context {
	return withString(ctx, submissionKey, uuid)
}

// SubmissionFromContext returns the submission UUID if present.
func SubmissionFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, submissionKey)
}

// WithOwner annotates context with the owner directory of the payload.
func WithOwner(ctx context.Context, owner string) context.Context {
	return withString(ctx, ownerKey, owner)
}

// OwnerFromContext returns the owner if present.
func OwnerFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, ownerKey)
}

// WithHostname annotates context with the worker hostname.
func WithHostname(ctx context.Context, host string) context.Context {
	return withString(ctx, hostnameKey, host)
}

// HostnameFromContext returns the worker hostname if present.
func HostnameFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, hostnameKey)
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
