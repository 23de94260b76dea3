// Package orchestrator drives tiered queries through the provider adapters
// in priority order, deduplicates the accumulated hits, and escalates to
// broader tiers only while earlier tiers come up short.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/inveniodev/invenio/internal/common"
	"github.com/inveniodev/invenio/internal/interfaces"
	"github.com/inveniodev/invenio/internal/models"
	"github.com/inveniodev/invenio/internal/provenance"
	"github.com/inveniodev/invenio/internal/querybuilder"
	"github.com/inveniodev/invenio/internal/scope"
)

// sampleLimit bounds how many example URLs a grouped rejection reason keeps
// for the observability payload.
const sampleLimit = 3

// Config holds the orchestration thresholds and the search defaults.
type Config struct {
	Augment           bool
	Locale            string
	City              string
	Country           string
	DateFrom          time.Time
	DateTo            time.Time
	MinResultsTierA   int           // Stop issuing provider calls within a tier at this count
	MinKeepAfterPrior int           // Escalate to the next tier below this count
	MinFinalResults   int           // Stop the whole run at this count
	PerProviderLimit  int           // Items requested per provider call
	RunDeadline       time.Duration // Overall budget for one run
}

// SearchRequest is one discovery request. City, when set, overrides the
// configured default for augmentation.
type SearchRequest struct {
	Query string
	City  string
}

// SearchResponse is the URL-level result of a run.
type SearchResponse struct {
	RunID          string
	Items          []models.SearchCandidate
	ProviderUsed   string
	ProvidersTried []string
}

// EnhancedSearchResponse is the event-level result of a run, after the scope
// filter admitted the survivors.
type EnhancedSearchResponse struct {
	RunID          string
	Events         []*models.EventCandidate
	ProvidersTried []string
	Rejections     map[string]int
}

// Orchestrator coordinates the query builder, provenance guard, providers,
// and scope filter for one process. Provider breaker state is shared across
// concurrent runs; everything else is per-run.
type Orchestrator struct {
	config    Config
	builder   *querybuilder.Builder
	guard     *provenance.Guard
	providers []interfaces.SearchProvider // fixed priority order, primary first
	filter    *scope.Filter
	store     interfaces.EventStore // optional, persists admitted events
	events    interfaces.EventService
	logger    arbor.ILogger
}

// New creates an orchestrator. Providers must be given in priority order and
// already wrapped with their resilience policies.
func New(
	config Config,
	builder *querybuilder.Builder,
	guard *provenance.Guard,
	providerList []interfaces.SearchProvider,
	filter *scope.Filter,
	store interfaces.EventStore,
	events interfaces.EventService,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		config:    config,
		builder:   builder,
		guard:     guard,
		providers: providerList,
		filter:    filter,
		store:     store,
		events:    events,
		logger:    logger,
	}
}

// ExecuteSearch runs the tiered search and returns the deduplicated URL-level
// candidate set. Zero admissible candidates is a valid outcome, not an error;
// only a provenance violation aborts the run.
func (o *Orchestrator) ExecuteSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	r, err := o.execute(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	return &SearchResponse{
		RunID:          r.id,
		Items:          r.items,
		ProviderUsed:   r.providerUsed(o.providers),
		ProvidersTried: r.providersTried,
	}, nil
}

// ExecuteEnhancedSearch runs the tiered search with the scope filter as the
// admission gate and promotes the admitted candidates to event records,
// persisting them when a store is configured.
func (o *Orchestrator) ExecuteEnhancedSearch(ctx context.Context, req SearchRequest) (*EnhancedSearchResponse, error) {
	r, err := o.execute(ctx, req, o.filter.PassesScope)
	if err != nil {
		return nil, err
	}

	events := make([]*models.EventCandidate, 0, len(r.items))
	for _, c := range r.items {
		ev := models.FromCandidate(c, common.NewCandidateID(), r.id, o.filter.EventDate(c))
		if o.store != nil {
			if serr := o.store.SaveCandidate(ctx, ev); serr != nil {
				o.logger.Warn().Err(serr).Str("url", c.URL).Msg("Failed to persist admitted candidate")
			}
		}
		events = append(events, ev)
	}

	o.publish(ctx, interfaces.EventScopeFiltered, r.id, map[string]interface{}{
		"input_count":  r.evaluated,
		"output_count": len(events),
		"rejections":   r.rejections,
		"samples":      r.rejectionSamples,
	})

	return &EnhancedSearchResponse{
		RunID:          r.id,
		Events:         events,
		ProvidersTried: r.providersTried,
		Rejections:     r.rejections,
	}, nil
}

// execute is the shared run loop. The gate decides admissibility of each
// unique candidate; a nil gate admits every unique URL.
func (o *Orchestrator) execute(ctx context.Context, req SearchRequest, gate func(models.SearchCandidate) models.ScopeDecision) (*run, error) {
	runID := common.NewRunID()
	ctx = common.WithRunID(ctx, runID)

	deadline := o.config.RunDeadline
	if deadline <= 0 {
		deadline = 45 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	querySet := o.builder.BuildTierQueries(req.Query, o.augmentation(req))

	// Every composed query is validated before the first network call. A
	// violation here is a configuration bug and aborts the whole run.
	for _, q := range querySet.All() {
		if err := o.guard.AssertNoBlockedAugmentation(q.Tokens); err != nil {
			return nil, fmt.Errorf("composed query rejected: %w", err)
		}
		if result := o.guard.ValidateQueryProvenance(q.Tokens, o.config.Augment); !result.IsValid {
			return nil, fmt.Errorf("composed query rejected: %s", strings.Join(result.Errors, "; "))
		}
	}

	r := newRun(runID, gate)

	o.publish(ctx, interfaces.EventSearchStarted, runID, map[string]interface{}{
		"query":   req.Query,
		"augment": o.config.Augment,
	})
	o.logger.Info().
		Str("run_id", runID).
		Str("query", req.Query).
		Bool("augment", o.config.Augment).
		Msg("Search run started")

	for _, tier := range models.Tiers() {
		if tier != models.TierA {
			if len(r.items) >= o.config.MinKeepAfterPrior {
				break
			}
			o.publish(ctx, interfaces.EventTierEscalated, runID, map[string]interface{}{
				"tier":          string(tier),
				"carried_count": len(r.items),
			})
			o.logger.Info().
				Str("run_id", runID).
				Str("tier", string(tier)).
				Int("carried", len(r.items)).
				Msg("Escalating to broader tier")
		}

		o.runTier(ctx, r, querySet.ForTier(tier))

		if len(r.items) >= o.config.MinFinalResults || ctx.Err() != nil {
			break
		}
	}

	o.publish(ctx, interfaces.EventSearchCompleted, runID, map[string]interface{}{
		"admitted_count":  len(r.items),
		"evaluated_count": r.evaluated,
		"providers_tried": r.providersTried,
	})
	o.logger.Info().
		Str("run_id", runID).
		Int("admitted", len(r.items)).
		Int("evaluated", r.evaluated).
		Strs("providers_tried", r.providersTried).
		Msg("Search run completed")

	return r, nil
}

// runTier issues the tier's queries until the tier threshold or the final
// floor is met. Provider calls inside one query fan out concurrently; all
// decision logic runs sequentially on the accumulated set afterwards.
func (o *Orchestrator) runTier(ctx context.Context, r *run, queries []models.ComposedQuery) {
	for _, q := range queries {
		if ctx.Err() != nil {
			return
		}
		if len(r.items) >= o.config.MinResultsTierA || len(r.items) >= o.config.MinFinalResults {
			return
		}
		o.runQuery(ctx, r, q)
	}
}

// runQuery calls the primary provider first; when its hits already satisfy
// the tier threshold no further backends are bothered, otherwise the
// remaining providers are called concurrently and their results aggregated
// in priority order.
func (o *Orchestrator) runQuery(ctx context.Context, r *run, q models.ComposedQuery) {
	if len(o.providers) == 0 {
		return
	}

	params := interfaces.SearchParams{
		Query:    q.Query,
		Limit:    o.config.PerProviderLimit,
		Country:  o.config.Country,
		DateFrom: o.config.DateFrom,
		DateTo:   o.config.DateTo,
	}

	primary := o.providers[0]
	r.markTried(primary.Name())
	if result, err := primary.Search(ctx, params); err == nil && result != nil {
		o.aggregate(r, q.Tier, primary.Name(), result.Items)
	} else if err != nil {
		o.logger.Warn().Err(err).Str("provider", primary.Name()).Msg("Provider returned an error")
	}

	if len(r.items) >= o.config.MinResultsTierA || len(r.items) >= o.config.MinFinalResults ||
		len(o.providers) == 1 || ctx.Err() != nil {
		return
	}

	rest := o.providers[1:]
	results := make([]*interfaces.SearchResult, len(rest))
	var wg sync.WaitGroup
	for i, p := range rest {
		r.markTried(p.Name())
		wg.Add(1)
		go func(i int, p interfaces.SearchProvider) {
			defer wg.Done()
			result, err := p.Search(ctx, params)
			if err != nil {
				o.logger.Warn().Err(err).Str("provider", p.Name()).Msg("Provider returned an error")
				return
			}
			results[i] = result
		}(i, p)
	}
	wg.Wait()

	for i, p := range rest {
		if results[i] == nil {
			continue
		}
		o.aggregate(r, q.Tier, p.Name(), results[i].Items)
	}
}

// aggregate folds one provider's items into the run: normalize, dedup, gate.
func (o *Orchestrator) aggregate(r *run, tier models.Tier, provider string, items []interfaces.SearchItem) {
	for _, item := range items {
		normalized, fresh, err := r.seen.add(item.URL)
		if err != nil {
			r.reject("invalid url", item.URL)
			continue
		}
		if !fresh {
			continue
		}
		r.evaluated++

		candidate := models.SearchCandidate{
			URL:         normalized,
			Title:       item.Title,
			Snippet:     item.Snippet,
			Provider:    provider,
			Tier:        tier,
			City:        item.City,
			CountryCode: item.CountryCode,
			DateText:    item.DateText,
		}

		if r.gate != nil {
			if decision := r.gate(candidate); !decision.Passes {
				r.reject(decision.Reason, normalized)
				continue
			}
		}

		r.items = append(r.items, candidate)
		r.contributions[provider]++
	}
}

func (o *Orchestrator) augmentation(req SearchRequest) querybuilder.Augmentation {
	if !o.config.Augment {
		return querybuilder.NoAugmentation{}
	}
	city := req.City
	if city == "" {
		city = o.config.City
	}
	return querybuilder.ScaffoldAugmentation{Locale: o.config.Locale, City: city}
}

func (o *Orchestrator) publish(ctx context.Context, eventType interfaces.EventType, runID string, payload map[string]interface{}) {
	if o.events == nil {
		return
	}
	_ = o.events.Publish(ctx, interfaces.Event{Type: eventType, RunID: runID, Payload: payload})
}

// run is the mutable state of one orchestration: the dedup set, the admitted
// candidates, and the observability tallies. It is only touched from the
// sequential decision path.
type run struct {
	id               string
	gate             func(models.SearchCandidate) models.ScopeDecision
	seen             *dedupSet
	items            []models.SearchCandidate
	evaluated        int
	rejections       map[string]int
	rejectionSamples map[string][]string
	providersTried   []string
	triedSet         map[string]struct{}
	contributions    map[string]int
}

func newRun(id string, gate func(models.SearchCandidate) models.ScopeDecision) *run {
	return &run{
		id:               id,
		gate:             gate,
		seen:             newDedupSet(),
		rejections:       make(map[string]int),
		rejectionSamples: make(map[string][]string),
		triedSet:         make(map[string]struct{}),
		contributions:    make(map[string]int),
	}
}

func (r *run) markTried(provider string) {
	if _, ok := r.triedSet[provider]; ok {
		return
	}
	r.triedSet[provider] = struct{}{}
	r.providersTried = append(r.providersTried, provider)
}

func (r *run) reject(reason, sample string) {
	r.rejections[reason]++
	if len(r.rejectionSamples[reason]) < sampleLimit {
		r.rejectionSamples[reason] = append(r.rejectionSamples[reason], sample)
	}
}

// providerUsed is the highest-priority provider that contributed to the
// accepted set.
func (r *run) providerUsed(priority []interfaces.SearchProvider) string {
	for _, p := range priority {
		if r.contributions[p.Name()] > 0 {
			return p.Name()
		}
	}
	return ""
}
