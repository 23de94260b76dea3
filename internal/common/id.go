package common

import (
	"context"

	"github.com/google/uuid"
)

// NewRunID generates a unique orchestration run ID with the "run_" prefix.
// The run ID correlates every log line and observability event of one search.
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewCandidateID generates a unique stored-candidate ID with the "cand_" prefix.
func NewCandidateID() string {
	return "cand_" + uuid.New().String()
}

type runIDKey struct{}

// WithRunID attaches the orchestration run ID to a context so components
// below the orchestrator can correlate their logs and events.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run ID attached to the context, or "".
func RunIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(runIDKey{}).(string); ok {
		return v
	}
	return ""
}
