package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/inveniodev/invenio/internal/models"
)

func newTestBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	return NewCircuitBreaker("test", BreakerConfig{
		FailureThreshold: threshold,
		Cooldown:         cooldown,
	}, arbor.NewLogger())
}

func TestBreakerStartsClosed(t *testing.T) {
	b := newTestBreaker(3, time.Minute)

	assert.NoError(t, b.Allow())
	assert.Equal(t, models.BreakerClosed, b.Snapshot().State)
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := newTestBreaker(3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	assert.NoError(t, b.Allow(), "below threshold stays closed")

	b.RecordFailure()
	assert.Equal(t, models.BreakerOpen, b.Snapshot().State)
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := newTestBreaker(3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()

	assert.Equal(t, models.BreakerClosed, b.Snapshot().State,
		"non-consecutive failures must not open the breaker")
}

func TestBreakerHalfOpenAdmitsSingleTrial(t *testing.T) {
	b := newTestBreaker(1, 10*time.Millisecond)

	b.RecordFailure()
	require.Equal(t, models.BreakerOpen, b.Snapshot().State)
	require.ErrorIs(t, b.Allow(), ErrCircuitOpen)

	time.Sleep(15 * time.Millisecond)

	assert.NoError(t, b.Allow(), "cooldown elapsed, trial call admitted")
	assert.Equal(t, models.BreakerHalfOpen, b.Snapshot().State)
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen, "only one trial call at a time")
}

func TestBreakerTrialSuccessCloses(t *testing.T) {
	b := newTestBreaker(1, 10*time.Millisecond)

	b.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	require.NoError(t, b.Allow())

	b.RecordSuccess()

	assert.Equal(t, models.BreakerClosed, b.Snapshot().State)
	assert.NoError(t, b.Allow())
}

func TestBreakerTrialFailureReopens(t *testing.T) {
	b := newTestBreaker(1, 10*time.Millisecond)

	b.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	require.NoError(t, b.Allow())

	b.RecordFailure()

	assert.Equal(t, models.BreakerOpen, b.Snapshot().State)
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen, "cooldown restarted")
}

func TestBreakerRecoversAfterAbandonedTrial(t *testing.T) {
	b := newTestBreaker(1, 10*time.Millisecond)

	b.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	require.NoError(t, b.Allow())
	require.Equal(t, models.BreakerHalfOpen, b.Snapshot().State)

	// The trial's outcome is unknown (run deadline hit mid-call). The
	// permit comes back without a state change so the breaker is not
	// wedged in half_open forever.
	b.AbandonTrial()

	assert.NoError(t, b.Allow(), "fresh trial admitted after an abandoned one")
	b.RecordSuccess()
	assert.Equal(t, models.BreakerClosed, b.Snapshot().State)
}

func TestBreakerDefaults(t *testing.T) {
	b := NewCircuitBreaker("test", BreakerConfig{}, arbor.NewLogger())

	assert.Equal(t, 5, b.config.FailureThreshold)
	assert.Equal(t, 30*time.Second, b.config.Cooldown)
}

func TestBreakerRegistry(t *testing.T) {
	registry := NewBreakerRegistry(arbor.NewLogger())

	a := registry.Get("websearch", BreakerConfig{FailureThreshold: 2})
	b := registry.Get("structured", BreakerConfig{FailureThreshold: 3})
	again := registry.Get("websearch", BreakerConfig{FailureThreshold: 99})

	assert.Same(t, a, again, "one breaker per provider, config fixed on first use")
	assert.NotSame(t, a, b)

	a.RecordFailure()
	a.RecordFailure()

	snapshots := registry.Snapshots()
	require.Len(t, snapshots, 2)
	byName := make(map[string]models.BreakerSnapshot)
	for _, s := range snapshots {
		byName[s.Provider] = s
	}
	assert.Equal(t, models.BreakerOpen, byName["websearch"].State)
	assert.Equal(t, models.BreakerClosed, byName["structured"].State)
}
