package events

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/inveniodev/invenio/internal/interfaces"
)

// RunStats is the aggregated view of one search run, built from the bus
// events as they arrive.
type RunStats struct {
	RunID          string
	Query          string
	StartedAt      time.Time
	CompletedAt    time.Time
	TiersUsed      []string
	Degradations   int
	Evaluated      int
	Admitted       int
	ProvidersTried []string
	Rejections     map[string]int
}

// StatsAggregator subscribes to the run events and keeps per-run summaries
// for later inspection. Old runs are evicted once maxRuns is exceeded.
type StatsAggregator struct {
	mu      sync.Mutex
	runs    map[string]*RunStats
	order   []string
	maxRuns int
	logger  arbor.ILogger
}

// NewStatsAggregator creates an aggregator retaining at most maxRuns runs.
func NewStatsAggregator(maxRuns int, logger arbor.ILogger) *StatsAggregator {
	if maxRuns <= 0 {
		maxRuns = 100
	}
	return &StatsAggregator{
		runs:    make(map[string]*RunStats),
		maxRuns: maxRuns,
		logger:  logger,
	}
}

// Subscribe attaches the aggregator to every run event type on the bus.
func (a *StatsAggregator) Subscribe(bus interfaces.EventService) error {
	for _, t := range []interfaces.EventType{
		interfaces.EventSearchStarted,
		interfaces.EventTierEscalated,
		interfaces.EventProviderDegraded,
		interfaces.EventScopeFiltered,
		interfaces.EventSearchCompleted,
	} {
		if err := bus.Subscribe(t, a.handle); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the stats for a run, or nil when the run is unknown.
func (a *StatsAggregator) Get(runID string) *RunStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats, ok := a.runs[runID]
	if !ok {
		return nil
	}

	// The reference fields are copied too, so a caller never aliases the
	// live record that handle keeps mutating.
	copied := *stats
	copied.TiersUsed = append([]string(nil), stats.TiersUsed...)
	copied.ProvidersTried = append([]string(nil), stats.ProvidersTried...)
	if stats.Rejections != nil {
		copied.Rejections = make(map[string]int, len(stats.Rejections))
		for reason, count := range stats.Rejections {
			copied.Rejections[reason] = count
		}
	}
	return &copied
}

func (a *StatsAggregator) handle(ctx context.Context, event interfaces.Event) error {
	if event.RunID == "" {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	stats := a.track(event.RunID)

	switch event.Type {
	case interfaces.EventSearchStarted:
		stats.StartedAt = time.Now()
		if q, ok := event.Payload["query"].(string); ok {
			stats.Query = q
		}
	case interfaces.EventTierEscalated:
		if tier, ok := event.Payload["tier"].(string); ok {
			stats.TiersUsed = append(stats.TiersUsed, tier)
		}
	case interfaces.EventProviderDegraded:
		stats.Degradations++
	case interfaces.EventScopeFiltered:
		if rejections, ok := event.Payload["rejections"].(map[string]int); ok {
			stats.Rejections = rejections
		}
	case interfaces.EventSearchCompleted:
		stats.CompletedAt = time.Now()
		if n, ok := event.Payload["admitted_count"].(int); ok {
			stats.Admitted = n
		}
		if n, ok := event.Payload["evaluated_count"].(int); ok {
			stats.Evaluated = n
		}
		if tried, ok := event.Payload["providers_tried"].([]string); ok {
			stats.ProvidersTried = tried
		}
	}

	return nil
}

// track returns the stats record for a run, creating and registering it on
// first sight and evicting the oldest run when over capacity.
func (a *StatsAggregator) track(runID string) *RunStats {
	if stats, ok := a.runs[runID]; ok {
		return stats
	}

	stats := &RunStats{RunID: runID}
	a.runs[runID] = stats
	a.order = append(a.order, runID)

	for len(a.order) > a.maxRuns {
		oldest := a.order[0]
		a.order = a.order[1:]
		delete(a.runs, oldest)
	}

	return stats
}
