// Package querybuilder composes tier-scoped search queries from a base query
// and an explicit augmentation strategy. The builder only ever appends to the
// caller-supplied base query; it never rewrites, reorders, or stems it.
package querybuilder

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/inveniodev/invenio/internal/common"
	"github.com/inveniodev/invenio/internal/models"
)

// Augmentation selects how queries are broadened. Representing the choice as
// a tagged variant instead of a scattered feature flag keeps the provenance
// invariant checkable structurally: only ScaffoldAugmentation can introduce
// augmented tokens.
type Augmentation interface {
	augmentation()
}

// NoAugmentation emits exactly one query per tier, equal to the wrapped base
// query, with every token tagged user_config.
type NoAugmentation struct{}

func (NoAugmentation) augmentation() {}

// ScaffoldAugmentation appends a bounded, locale-specific event-noun scaffold
// and, when supplied, the city name. Every appended token is tagged augmented.
type ScaffoldAugmentation struct {
	Locale string
	City   string
}

func (ScaffoldAugmentation) augmentation() {}

// Builder turns base queries into tier query sets using the external
// vocabulary tables.
type Builder struct {
	vocab  *common.Vocabulary
	logger arbor.ILogger
}

// New creates a query builder.
func New(vocab *common.Vocabulary, logger arbor.ILogger) *Builder {
	return &Builder{vocab: vocab, logger: logger}
}

// BuildTierQueries composes the full tier query set for one search request.
func (b *Builder) BuildTierQueries(baseQuery string, aug Augmentation) *models.TierQuerySet {
	return &models.TierQuerySet{
		TierA: b.BuildQueries(baseQuery, models.TierA, aug),
		TierB: b.BuildQueries(baseQuery, models.TierB, aug),
		TierC: b.BuildQueries(baseQuery, models.TierC, aug),
	}
}

// BuildQueries composes the queries for a single tier. The first query is
// always the plain wrapped base query; scaffold variants follow when
// augmentation is enabled. Variants that would exceed MaxQueryLength are
// dropped whole.
func (b *Builder) BuildQueries(baseQuery string, tier models.Tier, aug Augmentation) []models.ComposedQuery {
	base := b.fitBase(strings.TrimSpace(baseQuery))
	wrapped := "(" + base + ")"
	baseToken := models.Token{Text: base, Source: models.TokenSourceUserConfig}

	queries := []models.ComposedQuery{{
		Query:  wrapped,
		Tier:   tier,
		Tokens: []models.Token{baseToken},
	}}

	scaffold, ok := aug.(ScaffoldAugmentation)
	if !ok {
		return queries
	}

	nouns := b.vocab.ScaffoldsFor(scaffold.Locale)
	if len(nouns) == 0 {
		b.logger.Warn().
			Str("locale", scaffold.Locale).
			Msg("No scaffold vocabulary for locale, emitting base query only")
		return queries
	}

	city := strings.TrimSpace(scaffold.City)

	for _, variant := range b.tierVariants(tier, nouns, city) {
		query := wrapped
		tokens := []models.Token{baseToken}
		for _, text := range variant {
			query += " " + text
			tokens = append(tokens, models.Token{Text: text, Source: models.TokenSourceAugmented})
		}
		if len(query) > models.MaxQueryLength {
			b.logger.Debug().
				Str("tier", string(tier)).
				Int("length", len(query)).
				Msg("Dropping oversize query variant")
			continue
		}
		queries = append(queries, models.ComposedQuery{Query: query, Tier: tier, Tokens: tokens})
	}

	return queries
}

// tierVariants returns the augmented token lists for a tier, narrowest first.
// Tier A pins the noun as an exact phrase and the city when known; tier B
// relaxes to bare nouns; tier C collapses the whole scaffold into a single
// disjunction for maximum recall.
func (b *Builder) tierVariants(tier models.Tier, nouns []string, city string) [][]string {
	var variants [][]string

	switch tier {
	case models.TierA:
		for _, noun := range nouns {
			v := []string{fmt.Sprintf("%q", noun)}
			if city != "" {
				v = append(v, city)
			}
			variants = append(variants, v)
		}
	case models.TierB:
		for _, noun := range nouns {
			variants = append(variants, []string{noun})
		}
		if city != "" {
			variants = append(variants, []string{city})
		}
	case models.TierC:
		variants = append(variants, []string{"(" + strings.Join(nouns, " OR ") + ")"})
	}

	return variants
}

// fitBase shortens an overlong base query so the wrapped form stays within
// MaxQueryLength. The cut lands on a whitespace boundary and never splits a
// quoted phrase or parenthesis group.
func (b *Builder) fitBase(base string) string {
	limit := models.MaxQueryLength - 2 // room for the enclosing parentheses
	if len(base) <= limit {
		return base
	}

	cut := strings.LastIndex(base[:limit+1], " ")
	if cut <= 0 {
		cut = limit
	}
	fitted := strings.TrimSpace(base[:cut])

	for fitted != "" && !balanced(fitted) {
		idx := strings.LastIndex(fitted, " ")
		if idx <= 0 {
			fitted = strings.NewReplacer(`"`, "", "(", "", ")", "").Replace(fitted)
			break
		}
		fitted = strings.TrimSpace(fitted[:idx])
	}

	b.logger.Warn().
		Int("original_length", len(base)).
		Int("fitted_length", len(fitted)).
		Msg("Base query exceeded the length cap and was shortened")

	return fitted
}

func balanced(s string) bool {
	return strings.Count(s, `"`)%2 == 0 &&
		strings.Count(s, "(") == strings.Count(s, ")")
}
