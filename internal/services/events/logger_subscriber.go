package events

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/inveniodev/invenio/internal/interfaces"
)

// NewLoggerSubscriber creates an event handler that logs the stage counters
// of each run event.
func NewLoggerSubscriber(logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		logEvent := logger.Info().
			Str("event_type", string(event.Type)).
			Str("run_id", event.RunID)

		for _, key := range []string{"query", "tier", "provider", "reason"} {
			if v, ok := event.Payload[key].(string); ok && v != "" {
				logEvent = logEvent.Str(key, v)
			}
		}
		for _, key := range []string{"carried_count", "input_count", "output_count", "admitted_count", "evaluated_count"} {
			if v, ok := event.Payload[key].(int); ok {
				logEvent = logEvent.Int(key, v)
			}
		}

		logEvent.Msg("Run event")

		return nil
	}
}

// SubscribeLoggerToAllEvents subscribes the logger to all known event types
func SubscribeLoggerToAllEvents(eventService interfaces.EventService, logger arbor.ILogger) error {
	subscriber := NewLoggerSubscriber(logger)

	eventTypes := []interfaces.EventType{
		interfaces.EventSearchStarted,
		interfaces.EventTierEscalated,
		interfaces.EventProviderDegraded,
		interfaces.EventScopeFiltered,
		interfaces.EventSearchCompleted,
	}

	for _, eventType := range eventTypes {
		if err := eventService.Subscribe(eventType, subscriber); err != nil {
			return fmt.Errorf("failed to subscribe logger to event type %s: %w", eventType, err)
		}
	}

	return nil
}
