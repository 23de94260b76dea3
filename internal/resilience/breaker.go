package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/inveniodev/invenio/internal/models"
)

// ErrCircuitOpen is returned by Allow while the breaker short-circuits calls.
var ErrCircuitOpen = errors.New("circuit breaker open")

// BreakerConfig carries one provider's breaker parameters.
type BreakerConfig struct {
	FailureThreshold int           // Consecutive failures before opening
	Cooldown         time.Duration // Open-state wait before a trial call
}

// CircuitBreaker is the per-provider failure-isolation state machine.
// State lives for the process lifetime and is shared across concurrent
// search requests, so every transition happens under the mutex.
type CircuitBreaker struct {
	name   string
	config BreakerConfig
	logger arbor.ILogger

	mu            sync.Mutex
	state         models.BreakerState
	failures      int
	openedAt      time.Time
	trialInFlight bool
}

// NewCircuitBreaker creates a closed breaker for one provider.
func NewCircuitBreaker(name string, config BreakerConfig, logger arbor.ILogger) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 30 * time.Second
	}
	return &CircuitBreaker{
		name:   name,
		config: config,
		logger: logger,
		state:  models.BreakerClosed,
	}
}

// Allow reports whether a call may proceed. While open, calls fail
// immediately without waiting; once the cool-down elapses the breaker moves
// to half_open and admits exactly one trial call.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case models.BreakerClosed:
		return nil
	case models.BreakerOpen:
		if time.Since(b.openedAt) < b.config.Cooldown {
			return ErrCircuitOpen
		}
		b.transition(models.BreakerHalfOpen)
		b.trialInFlight = true
		return nil
	case models.BreakerHalfOpen:
		if b.trialInFlight {
			return ErrCircuitOpen
		}
		b.trialInFlight = true
		return nil
	}
	return nil
}

// AbandonTrial releases the trial permit when a call's outcome is unknown,
// such as an attempt canceled by the run deadline. State is unchanged, so a
// later call can run a fresh half-open trial instead of waiting forever on
// a permit that will never be returned.
func (b *CircuitBreaker) AbandonTrial() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trialInFlight = false
}

// RecordSuccess reports a successful call outcome.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.trialInFlight = false
	if b.state != models.BreakerClosed {
		b.transition(models.BreakerClosed)
	}
}

// RecordFailure reports a failed call outcome. In half_open a single trial
// failure reopens the breaker and restarts the cool-down.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trialInFlight = false

	switch b.state {
	case models.BreakerHalfOpen:
		b.openedAt = time.Now()
		b.transition(models.BreakerOpen)
	case models.BreakerClosed:
		b.failures++
		if b.failures >= b.config.FailureThreshold {
			b.openedAt = time.Now()
			b.transition(models.BreakerOpen)
		}
	}
}

// Snapshot returns a point-in-time view for observability.
func (b *CircuitBreaker) Snapshot() models.BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return models.BreakerSnapshot{
		Provider:     b.name,
		State:        b.state,
		FailureCount: b.failures,
		OpenedAt:     b.openedAt,
	}
}

func (b *CircuitBreaker) transition(next models.BreakerState) {
	b.logger.Info().
		Str("provider", b.name).
		Str("from", string(b.state)).
		Str("to", string(next)).
		Int("failures", b.failures).
		Msg("Circuit breaker state change")
	b.state = next
}

// BreakerRegistry holds the process-wide breakers, one per provider, created
// lazily on first use. The registry is an explicit handle threaded through
// the call chain rather than ambient global state.
type BreakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
	logger   arbor.ILogger
}

// NewBreakerRegistry creates an empty registry.
func NewBreakerRegistry(logger arbor.ILogger) *BreakerRegistry {
	return &BreakerRegistry{
		breakers: make(map[string]*CircuitBreaker),
		logger:   logger,
	}
}

// Get returns the breaker for a provider, creating it with the given config
// on first use.
func (r *BreakerRegistry) Get(name string, config BreakerConfig) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[name]; ok {
		return b
	}
	b := NewCircuitBreaker(name, config, r.logger)
	r.breakers[name] = b
	return b
}

// Snapshots returns the current state of every registered breaker.
func (r *BreakerRegistry) Snapshots() []models.BreakerSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.BreakerSnapshot, 0, len(r.breakers))
	for _, b := range r.breakers {
		out = append(out, b.Snapshot())
	}
	return out
}
