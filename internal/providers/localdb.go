package providers

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/inveniodev/invenio/internal/interfaces"
)

// LocalDBProvider serves searches from the local event database. It is the
// last-resort fallback: previously admitted events keep discovery alive when
// every remote provider is down.
type LocalDBProvider struct {
	store  interfaces.EventStore
	logger arbor.ILogger
}

// NewLocalDB creates the local database provider.
func NewLocalDB(store interfaces.EventStore, logger arbor.ILogger) *LocalDBProvider {
	return &LocalDBProvider{store: store, logger: logger}
}

// Name implements SearchProvider.
func (p *LocalDBProvider) Name() string {
	return "localdb"
}

// Search implements SearchProvider.
func (p *LocalDBProvider) Search(ctx context.Context, params interfaces.SearchParams) (*interfaces.SearchResult, error) {
	events, err := p.store.FindEvents(ctx, params.Query, params.Country, params.DateFrom, params.DateTo, params.Limit)
	if err != nil {
		return nil, err
	}

	items := make([]interfaces.SearchItem, 0, len(events))
	for _, ev := range events {
		dateText := ev.DateText
		if dateText == "" && !ev.EventDate.IsZero() {
			dateText = ev.EventDate.Format(time.DateOnly)
		}
		items = append(items, interfaces.SearchItem{
			URL:         ev.URL,
			Title:       ev.Title,
			Snippet:     ev.Snippet,
			City:        ev.City,
			CountryCode: ev.CountryCode,
			DateText:    dateText,
		})
	}

	p.logger.Debug().
		Int("count", len(items)).
		Str("query", params.Query).
		Msg("Local database search")

	return &interfaces.SearchResult{Items: items}, nil
}
