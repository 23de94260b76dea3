package models

// SearchCandidate is a raw provider hit. Candidates are transient: they live
// for one orchestration run and are deduplicated by normalized URL across
// providers and tiers.
//
// The geographic and date fields are optional signals narrowed out of the
// provider's raw response at the adapter boundary. SERP-style providers
// usually leave them empty; structured and local providers populate them.
type SearchCandidate struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Snippet  string `json:"snippet,omitempty"`
	Provider string `json:"provider"`
	Tier     Tier   `json:"tier"`

	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	DateText    string `json:"date_text,omitempty"`
}

// ScopeDecision is the verdict of the scope filter for one candidate. It is
// computed fresh on every evaluation and never stored on the candidate, so
// the filter stays a pure function of (candidate, filter config).
type ScopeDecision struct {
	Passes bool   `json:"passes"`
	Reason string `json:"reason,omitempty"`
}

// Admit returns a passing decision.
func Admit() ScopeDecision {
	return ScopeDecision{Passes: true}
}

// Reject returns a failing decision with the given reason.
func Reject(reason string) ScopeDecision {
	return ScopeDecision{Passes: false, Reason: reason}
}
