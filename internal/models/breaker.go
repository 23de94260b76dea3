package models

import "time"

// BreakerState is the circuit breaker state for one provider.
type BreakerState string

const (
	// BreakerClosed allows calls through normally.
	BreakerClosed BreakerState = "closed"
	// BreakerOpen short-circuits calls immediately with a fast failure.
	BreakerOpen BreakerState = "open"
	// BreakerHalfOpen lets a single trial call through after the cool-down.
	BreakerHalfOpen BreakerState = "half_open"
)

// BreakerSnapshot is a point-in-time view of a provider's breaker, used for
// observability. Transitions are driven only by call outcomes.
type BreakerSnapshot struct {
	Provider     string       `json:"provider"`
	State        BreakerState `json:"state"`
	FailureCount int          `json:"failure_count"`
	OpenedAt     time.Time    `json:"opened_at,omitempty"`
}
