package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/inveniodev/invenio/internal/common"
	"github.com/inveniodev/invenio/internal/interfaces"
	"github.com/inveniodev/invenio/internal/models"
)

func newTestStore(t *testing.T) interfaces.EventStore {
	t.Helper()

	logger := arbor.NewLogger()
	db, err := Open(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)

	store := NewEventStorage(db, logger)
	t.Cleanup(func() { store.Close() })
	return store
}

func candidate(id, url string) *models.EventCandidate {
	return &models.EventCandidate{
		ID:          id,
		URL:         url,
		Title:       "Compliance Tagung",
		Snippet:     "Fachtagung in Berlin",
		City:        "Berlin",
		CountryCode: "DE",
		EventDate:   time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		Provider:    "websearch",
		Tier:        models.TierA,
		RunID:       "run_test",
	}
}

func TestSaveAndGetByURL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCandidate(ctx, candidate("cand_1", "https://example.de/tagung")))

	got, err := store.GetByURL(ctx, "https://example.de/tagung")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "cand_1", got.ID)
	assert.Equal(t, "Compliance Tagung", got.Title)
	assert.False(t, got.FirstSeen.IsZero())

	missing, err := store.GetByURL(ctx, "https://example.de/unbekannt")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSaveCandidateUpsertsByURL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := candidate("cand_1", "https://example.de/tagung")
	require.NoError(t, store.SaveCandidate(ctx, first))

	// The same URL discovered again in a later run keeps the original
	// identity and first-seen timestamp.
	second := candidate("cand_2", "https://example.de/tagung")
	second.Title = "Compliance Tagung 2026"
	second.RunID = "run_later"
	require.NoError(t, store.SaveCandidate(ctx, second))

	got, err := store.GetByURL(ctx, "https://example.de/tagung")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "cand_1", got.ID)
	assert.Equal(t, "Compliance Tagung 2026", got.Title)
	assert.Equal(t, "run_later", got.RunID)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSaveCandidateValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.SaveCandidate(ctx, &models.EventCandidate{URL: "https://example.de"}))
	assert.Error(t, store.SaveCandidate(ctx, &models.EventCandidate{ID: "cand_1"}))
}

func TestFindEvents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := candidate("cand_1", "https://example.de/compliance-tagung")
	b := candidate("cand_2", "https://example.de/messe-hamburg")
	b.Title = "Fachmesse Hamburg"
	b.Snippet = "Industriemesse"
	b.EventDate = time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	c := candidate("cand_3", "https://example.at/kongress-wien")
	c.CountryCode = "AT"
	c.Title = "Compliance Kongress"

	for _, ev := range []*models.EventCandidate{a, b, c} {
		require.NoError(t, store.SaveCandidate(ctx, ev))
	}

	t.Run("query matches title terms", func(t *testing.T) {
		got, err := store.FindEvents(ctx, "Compliance", "", time.Time{}, time.Time{}, 0)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("operators in the query are ignored", func(t *testing.T) {
		got, err := store.FindEvents(ctx, `(compliance) "Tagung"`, "", time.Time{}, time.Time{}, 0)
		require.NoError(t, err)
		assert.NotEmpty(t, got)
	})

	t.Run("country narrows the result", func(t *testing.T) {
		got, err := store.FindEvents(ctx, "Compliance", "DE", time.Time{}, time.Time{}, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "cand_1", got[0].ID)
	})

	t.Run("date window narrows the result", func(t *testing.T) {
		from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
		got, err := store.FindEvents(ctx, "", "", from, to, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "cand_2", got[0].ID)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		got, err := store.FindEvents(ctx, "", "", time.Time{}, time.Time{}, 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}
