package badger

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/inveniodev/invenio/internal/interfaces"
	"github.com/inveniodev/invenio/internal/models"
)

// EventStorage implements the EventStore interface for Badger
type EventStorage struct {
	db     *Connection
	logger arbor.ILogger
}

// NewEventStorage creates a new EventStorage instance
func NewEventStorage(db *Connection, logger arbor.ILogger) interfaces.EventStore {
	return &EventStorage{
		db:     db,
		logger: logger,
	}
}

// SaveCandidate upserts an event candidate. A candidate whose URL is already
// stored keeps the existing record's ID and first-seen timestamp.
func (s *EventStorage) SaveCandidate(ctx context.Context, candidate *models.EventCandidate) error {
	if candidate.ID == "" {
		return fmt.Errorf("candidate ID is required")
	}
	if candidate.URL == "" {
		return fmt.Errorf("candidate URL is required")
	}

	existing, err := s.GetByURL(ctx, candidate.URL)
	if err != nil {
		return err
	}
	if existing != nil {
		candidate.ID = existing.ID
		candidate.FirstSeen = existing.FirstSeen
	} else if candidate.FirstSeen.IsZero() {
		candidate.FirstSeen = time.Now().UTC()
	}

	if err := s.db.Store().Upsert(candidate.ID, candidate); err != nil {
		return fmt.Errorf("failed to save event candidate: %w", err)
	}
	return nil
}

// GetByURL returns the stored candidate for a URL, or nil when unknown.
func (s *EventStorage) GetByURL(ctx context.Context, url string) (*models.EventCandidate, error) {
	var candidates []models.EventCandidate
	if err := s.db.Store().Find(&candidates, badgerhold.Where("URL").Eq(url).Index("URL").Limit(1)); err != nil {
		return nil, fmt.Errorf("failed to find event candidate: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

// FindEvents returns stored candidates matching the query terms and scope
// constraints. The query is broken into terms, operator characters dropped,
// and matched case-insensitively over title and snippet. Adequate for the
// local fallback path.
func (s *EventStorage) FindEvents(ctx context.Context, query, country string, from, to time.Time, limit int) ([]*models.EventCandidate, error) {
	// Scope constraints go onto every branch: an And after an Or would only
	// narrow the branch it is chained on.
	scope := func(q *badgerhold.Query) *badgerhold.Query {
		if country != "" {
			q = q.And("CountryCode").Eq(country)
		}
		if !from.IsZero() {
			q = q.And("EventDate").Ge(from)
		}
		if !to.IsZero() {
			q = q.And("EventDate").Le(to)
		}
		return q
	}

	q := scope(badgerhold.Where("ID").Ne(""))
	if terms := queryTerms(query); len(terms) > 0 {
		quoted := make([]string, len(terms))
		for i, t := range terms {
			quoted[i] = regexp.QuoteMeta(t)
		}
		regex, err := regexp.Compile("(?i)(" + strings.Join(quoted, "|") + ")")
		if err != nil {
			return nil, fmt.Errorf("invalid query: %w", err)
		}
		q = scope(badgerhold.Where("Title").RegExp(regex)).
			Or(scope(badgerhold.Where("Snippet").RegExp(regex)))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var candidates []models.EventCandidate
	if err := s.db.Store().Find(&candidates, q); err != nil {
		return nil, fmt.Errorf("failed to query event candidates: %w", err)
	}

	result := make([]*models.EventCandidate, len(candidates))
	for i := range candidates {
		result[i] = &candidates[i]
	}
	return result, nil
}

// queryTerms strips the search operators from a composed query and returns
// the bare terms.
func queryTerms(query string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '(', ')', '"':
			return ' '
		}
		return r
	}, query)

	var terms []string
	for _, field := range strings.Fields(cleaned) {
		if field == "OR" {
			continue
		}
		terms = append(terms, field)
	}
	return terms
}

// Count returns the number of stored candidates.
func (s *EventStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.EventCandidate{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count event candidates: %w", err)
	}
	return int(count), nil
}

// Close closes the underlying database.
func (s *EventStorage) Close() error {
	return s.db.Close()
}
