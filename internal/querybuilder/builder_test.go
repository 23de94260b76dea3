package querybuilder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/inveniodev/invenio/internal/common"
	"github.com/inveniodev/invenio/internal/models"
)

func testBuilder() *Builder {
	return New(common.DefaultVocabulary(), arbor.NewLogger())
}

func TestBuildQueriesNoAugmentation(t *testing.T) {
	b := testBuilder()

	for _, tier := range models.Tiers() {
		queries := b.BuildQueries("fintech konferenz berlin", tier, NoAugmentation{})

		require.Len(t, queries, 1, "tier %s", tier)
		assert.Equal(t, "(fintech konferenz berlin)", queries[0].Query)
		assert.Equal(t, tier, queries[0].Tier)
		require.Len(t, queries[0].Tokens, 1)
		assert.Equal(t, models.TokenSourceUserConfig, queries[0].Tokens[0].Source)
	}
}

func TestBuildQueriesScaffoldAugmentation(t *testing.T) {
	b := testBuilder()

	plain := b.BuildQueries("compliance summit", models.TierA, NoAugmentation{})
	augmented := b.BuildQueries("compliance summit", models.TierA, ScaffoldAugmentation{Locale: "de", City: "Berlin"})

	// Augmentation strictly grows the variant set and keeps the plain base
	// query as its first element.
	assert.Greater(t, len(augmented), len(plain))
	assert.Equal(t, plain[0].Query, augmented[0].Query)

	for _, q := range augmented {
		assert.True(t, strings.HasPrefix(q.Query, "(compliance summit)"),
			"base query must stay a prefix, got %q", q.Query)
		assert.Equal(t, models.TokenSourceUserConfig, q.Tokens[0].Source)
		for _, tok := range q.Tokens[1:] {
			assert.Equal(t, models.TokenSourceAugmented, tok.Source)
		}
	}
}

func TestBuildQueriesTierShapes(t *testing.T) {
	b := testBuilder()
	aug := ScaffoldAugmentation{Locale: "de", City: "Berlin"}

	tierA := b.BuildQueries("fachkongress", models.TierA, aug)
	require.Greater(t, len(tierA), 1)
	assert.Contains(t, tierA[1].Query, `"`, "tier A pins the noun as an exact phrase")
	assert.Contains(t, tierA[1].Query, "Berlin")

	tierB := b.BuildQueries("fachkongress", models.TierB, aug)
	require.Greater(t, len(tierB), 1)
	assert.NotContains(t, tierB[1].Query[len("(fachkongress)"):], `"`, "tier B uses bare nouns")

	tierC := b.BuildQueries("fachkongress", models.TierC, aug)
	require.Len(t, tierC, 2)
	assert.Contains(t, tierC[1].Query, " OR ", "tier C collapses the scaffold into a disjunction")
}

func TestBuildQueriesLengthCap(t *testing.T) {
	b := testBuilder()

	queries := b.BuildQueries("regulatory technology", models.TierA, ScaffoldAugmentation{Locale: "de", City: "Frankfurt am Main"})
	for _, q := range queries {
		assert.LessOrEqual(t, len(q.Query), models.MaxQueryLength)
	}
}

func TestBuildQueriesOverlongBase(t *testing.T) {
	b := testBuilder()

	base := strings.Repeat("veranstaltung ", 30) // far beyond the cap
	queries := b.BuildQueries(base, models.TierA, NoAugmentation{})

	require.Len(t, queries, 1)
	assert.LessOrEqual(t, len(queries[0].Query), models.MaxQueryLength)
	assert.True(t, strings.HasPrefix(queries[0].Query, "(veranstaltung"))
	// The cut must land on a word boundary, not inside a word.
	inner := strings.Trim(queries[0].Query, "()")
	for _, word := range strings.Fields(inner) {
		assert.Equal(t, "veranstaltung", word)
	}
}

func TestFitBaseKeepsQuotesBalanced(t *testing.T) {
	b := testBuilder()

	base := strings.Repeat("wort ", 42) + `"ein sehr langer zitierter ausdruck der weit hinter der grenze endet"`
	fitted := b.fitBase(base)

	assert.LessOrEqual(t, len(fitted)+2, models.MaxQueryLength)
	assert.True(t, balanced(fitted), "fitted base %q must not split a quoted phrase", fitted)
}

func TestBuildQueriesUnknownLocaleFallsBack(t *testing.T) {
	b := testBuilder()

	// An unknown locale falls back to the English scaffold rather than
	// silently disabling augmentation.
	queries := b.BuildQueries("compliance", models.TierB, ScaffoldAugmentation{Locale: "xx"})
	assert.Greater(t, len(queries), 1)
}

func TestBuildTierQueries(t *testing.T) {
	b := testBuilder()

	set := b.BuildTierQueries("payments forum", ScaffoldAugmentation{Locale: "de"})

	require.NotNil(t, set)
	for _, tier := range models.Tiers() {
		queries := set.ForTier(tier)
		require.NotEmpty(t, queries, "tier %s", tier)
		for _, q := range queries {
			assert.Equal(t, tier, q.Tier)
		}
	}
	assert.Len(t, set.All(), len(set.TierA)+len(set.TierB)+len(set.TierC))
}
