package interfaces

import (
	"context"
	"time"
)

// SearchParams is the uniform request shape every provider adapter accepts.
// Zero values mean "not constrained".
type SearchParams struct {
	Query    string
	Limit    int
	Country  string
	DateFrom time.Time
	DateTo   time.Time
}

// SearchItem is one hit from a provider, already narrowed out of the
// provider's raw response shape. Only URL is guaranteed; everything else is
// best-effort.
type SearchItem struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	DateText    string `json:"date_text,omitempty"`
}

// SearchResult is the uniform response shape. An empty item list is a valid
// outcome, not an error.
type SearchResult struct {
	Items []SearchItem `json:"items"`
}

// SearchProvider is the contract every concrete search backend satisfies so
// the orchestrator stays adapter-agnostic. Implementations validate and
// narrow their backend's raw response at this boundary; loose JSON never
// travels deeper into the orchestrator.
type SearchProvider interface {
	// Name returns the provider's stable identifier (used in logs,
	// providersTried, and breaker state).
	Name() string

	// Search executes one search. Resilience-wrapped providers degrade
	// exhausted retries and open circuits to an empty result instead of
	// returning an error, so one dead backend cannot abort a run.
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)
}
