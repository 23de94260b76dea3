package models

// MaxQueryLength is the hard cap on the length of any emitted query string.
// Variants that would exceed it are dropped whole, never cut mid-token.
const MaxQueryLength = 230

// Tier represents a progressively broader query scope. Tier A is the
// narrowest; the orchestrator escalates to B and C only when earlier tiers
// come up short.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
)

// Tiers lists all tiers in escalation order.
func Tiers() []Tier {
	return []Tier{TierA, TierB, TierC}
}

// Valid returns true if the tier is a known value.
func (t Tier) Valid() bool {
	switch t {
	case TierA, TierB, TierC:
		return true
	default:
		return false
	}
}

// ComposedQuery is a single emitted query string together with the tokens it
// was composed from and the tier it belongs to. The base query always appears
// as a substring wrapped in one enclosing parenthesis group.
type ComposedQuery struct {
	Query  string  `json:"query"`
	Tier   Tier    `json:"tier"`
	Tokens []Token `json:"tokens"`
}

// TierQuerySet holds the composed queries for one search request, grouped by
// tier. It is built fresh per request and read-only from then on.
type TierQuerySet struct {
	TierA []ComposedQuery `json:"tier_a"`
	TierB []ComposedQuery `json:"tier_b"`
	TierC []ComposedQuery `json:"tier_c"`
}

// ForTier returns the queries belonging to the given tier.
func (s *TierQuerySet) ForTier(t Tier) []ComposedQuery {
	switch t {
	case TierA:
		return s.TierA
	case TierB:
		return s.TierB
	case TierC:
		return s.TierC
	default:
		return nil
	}
}

// All returns every composed query across tiers in escalation order.
func (s *TierQuerySet) All() []ComposedQuery {
	out := make([]ComposedQuery, 0, len(s.TierA)+len(s.TierB)+len(s.TierC))
	out = append(out, s.TierA...)
	out = append(out, s.TierB...)
	out = append(out, s.TierC...)
	return out
}
