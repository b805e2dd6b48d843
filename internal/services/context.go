package services

import "context"

type contextKey string

const (
	executionIDKey contextKey = "execution_id"
	stageKey       contextKey = "stage"
	requestIDKey   contextKey = "request_id"
)

// WithExecutionID annotates context with the workflow execution identifier.
func WithExecutionID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, executionIDKey, id)
}

// ExecutionIDFromContext extracts the workflow execution identifier if present.
func ExecutionIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(executionIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithStage annotates context with the workflow state name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the workflow state name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(stageKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a per-step request identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the per-step request identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(requestIDKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}
