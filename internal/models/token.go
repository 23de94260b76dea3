package models

// TokenSource identifies how a token entered a composed query. Every token
// carries exactly one source and is never re-tagged after composition.
type TokenSource string

const (
	// TokenSourceUserConfig marks vocabulary supplied by the user's own
	// search configuration (the base query, nothing else).
	TokenSourceUserConfig TokenSource = "user_config"

	// TokenSourceAugmented marks vocabulary appended by the query builder
	// (event-noun scaffolds, city names).
	TokenSourceAugmented TokenSource = "augmented"
)

// Valid returns true if the source is a known value.
func (s TokenSource) Valid() bool {
	switch s {
	case TokenSourceUserConfig, TokenSourceAugmented:
		return true
	default:
		return false
	}
}

// Token is the atomic unit of a composed query: a piece of query text plus
// the provenance tag recording where it came from.
type Token struct {
	Text   string      `json:"text"`
	Source TokenSource `json:"source"`
}
