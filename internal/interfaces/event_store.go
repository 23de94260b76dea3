package interfaces

import (
	"context"
	"time"

	"github.com/inveniodev/invenio/internal/models"
)

// EventStore persists admitted event candidates. The same store backs the
// local-database fallback provider, so previously discovered events can
// satisfy searches while remote providers are down.
type EventStore interface {
	// SaveCandidate upserts an admitted candidate keyed by normalized URL.
	SaveCandidate(ctx context.Context, candidate *models.EventCandidate) error

	// GetByURL returns the stored candidate for a normalized URL, or nil.
	GetByURL(ctx context.Context, url string) (*models.EventCandidate, error)

	// FindEvents returns stored candidates matching the query terms and
	// scope constraints. Zero-value constraints are ignored.
	FindEvents(ctx context.Context, query, country string, from, to time.Time, limit int) ([]*models.EventCandidate, error)

	// Count returns the number of stored candidates.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying database.
	Close() error
}
