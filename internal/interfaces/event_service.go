package interfaces

import "context"

// EventType represents different observability events in the system
type EventType string

const (
	EventSearchStarted    EventType = "search_started"
	EventTierEscalated    EventType = "tier_escalated"
	EventProviderDegraded EventType = "provider_degraded"
	EventScopeFiltered    EventType = "scope_filtered"
	EventSearchCompleted  EventType = "search_completed"
)

// Event represents a system event. Payloads are small maps carrying per-stage
// counts and bounded samples, correlated by the run ID.
type Event struct {
	Type    EventType
	RunID   string
	Payload map[string]interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages the pub/sub observability bus
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers asynchronously
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes an event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
