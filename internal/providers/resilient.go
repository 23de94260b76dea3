// Package providers contains the concrete search provider adapters and the
// resilience wrapper that gives each of them an independent timeout, retry,
// rate-limit, and circuit-breaker policy.
package providers

import (
	"context"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/inveniodev/invenio/internal/common"
	"github.com/inveniodev/invenio/internal/interfaces"
	"github.com/inveniodev/invenio/internal/resilience"
)

// ResilientProvider wraps a provider adapter with the resilience primitives.
// Exhausted retries and open circuits degrade to an empty result instead of
// an error, so one dead backend cannot abort the whole search.
type ResilientProvider struct {
	inner   interfaces.SearchProvider
	retry   *resilience.RetryPolicy
	breaker *resilience.CircuitBreaker
	limiter *rate.Limiter
	events  interfaces.EventService
	logger  arbor.ILogger
}

// Wrap builds a resilient provider from the per-provider policy. The breaker
// comes from the process-wide registry so all concurrent requests share one
// state machine per provider.
func Wrap(
	inner interfaces.SearchProvider,
	policy common.ProviderPolicy,
	registry *resilience.BreakerRegistry,
	events interfaces.EventService,
	logger arbor.ILogger,
) interfaces.SearchProvider {
	var limiter *rate.Limiter
	if policy.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(policy.RateLimit), 1)
	}

	return &ResilientProvider{
		inner: inner,
		retry: &resilience.RetryPolicy{
			Timeout:    policy.TimeoutDuration(),
			MaxRetries: policy.MaxRetries,
			Backoff:    policy.BackoffDuration(),
		},
		breaker: registry.Get(inner.Name(), resilience.BreakerConfig{
			FailureThreshold: policy.FailureThreshold,
			Cooldown:         policy.CooldownDuration(),
		}),
		limiter: limiter,
		events:  events,
		logger:  logger,
	}
}

// Name returns the wrapped provider's name.
func (p *ResilientProvider) Name() string {
	return p.inner.Name()
}

// Search executes the wrapped adapter under the provider's policy.
func (p *ResilientProvider) Search(ctx context.Context, params interfaces.SearchParams) (*interfaces.SearchResult, error) {
	if err := p.breaker.Allow(); err != nil {
		p.degrade(ctx, "circuit_open", err)
		return &interfaces.SearchResult{}, nil
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			// No attempt was made, so an admitted half-open trial permit
			// must be handed back.
			p.breaker.AbandonTrial()
			p.degrade(ctx, "rate_limit_wait", err)
			return &interfaces.SearchResult{}, nil
		}
	}

	var result *interfaces.SearchResult
	err := p.retry.Execute(ctx, p.logger, func(ctx context.Context) error {
		r, err := p.inner.Search(ctx, params)
		if err != nil {
			return err
		}
		result = r
		return nil
	})

	if err != nil {
		// A canceled parent context is the run ending, not a provider
		// fault, but a half-open trial permit still has to be released or
		// the breaker stays wedged for every later run.
		if ctx.Err() != nil {
			p.breaker.AbandonTrial()
		} else {
			p.breaker.RecordFailure()
		}
		p.degrade(ctx, "retries_exhausted", err)
		return &interfaces.SearchResult{}, nil
	}

	p.breaker.RecordSuccess()
	return result, nil
}

func (p *ResilientProvider) degrade(ctx context.Context, cause string, err error) {
	p.logger.Warn().
		Str("provider", p.inner.Name()).
		Str("cause", cause).
		Err(err).
		Msg("Provider degraded to empty result")

	if p.events == nil {
		return
	}
	_ = p.events.Publish(ctx, interfaces.Event{
		Type:  interfaces.EventProviderDegraded,
		RunID: common.RunIDFromContext(ctx),
		Payload: map[string]interface{}{
			"provider": p.inner.Name(),
			"cause":    cause,
			"error":    err.Error(),
		},
	})
}
