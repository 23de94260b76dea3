// Package provenance polices how vocabulary entered a composed query. The
// guard never judges a term itself, only its source: denylisted text is fine
// when the user configured it, and fatal when the builder appended it.
package provenance

import (
	"fmt"
	"strings"

	"github.com/inveniodev/invenio/internal/models"
)

// ViolationError signals that a blocked term entered a query through
// augmentation. It is a configuration bug, not a transient fault, and must
// abort query issuance before any network call.
type ViolationError struct {
	Term string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("blocked term %q entered the query via augmentation", e.Term)
}

// ValidationResult is the structured outcome of a non-throwing validation.
type ValidationResult struct {
	IsValid bool
	Errors  []string
}

// Guard validates token provenance against the augmentation denylist.
type Guard struct {
	denylist []string
}

// NewGuard creates a guard from the external denylist table. Matching is
// case-insensitive.
func NewGuard(denylist []string) *Guard {
	terms := make([]string, 0, len(denylist))
	for _, term := range denylist {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			terms = append(terms, term)
		}
	}
	return &Guard{denylist: terms}
}

// AssertNoBlockedAugmentation fails fast on the first augmented token that
// carries a denylisted term. It runs synchronously right after query
// composition; a violation must never reach a provider.
func (g *Guard) AssertNoBlockedAugmentation(tokens []models.Token) error {
	for _, token := range tokens {
		if token.Source != models.TokenSourceAugmented {
			continue
		}
		if term := g.blockedTerm(token.Text); term != "" {
			return &ViolationError{Term: term}
		}
	}
	return nil
}

// ValidateQueryProvenance is the non-throwing sibling of
// AssertNoBlockedAugmentation. It reports every problem it finds, and checks
// two independent invariants: vocabulary safety (the denylist) and
// feature-flag consistency (augmented tokens may only exist while the
// augmentation flag is on).
func (g *Guard) ValidateQueryProvenance(tokens []models.Token, augmentationEnabled bool) ValidationResult {
	result := ValidationResult{IsValid: true}

	augmentedCount := 0
	for _, token := range tokens {
		if !token.Source.Valid() {
			result.Errors = append(result.Errors,
				fmt.Sprintf("token %q has unknown source %q", token.Text, token.Source))
			continue
		}
		if token.Source != models.TokenSourceAugmented {
			continue
		}
		augmentedCount++
		if term := g.blockedTerm(token.Text); term != "" {
			result.Errors = append(result.Errors,
				fmt.Sprintf("augmented token %q contains denylisted term %q", token.Text, term))
		}
	}

	if augmentedCount > 0 && !augmentationEnabled {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%d augmented token(s) present while augmentation is disabled", augmentedCount))
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// blockedTerm returns the denylisted term contained in the text, or "".
// A term matches when it equals the text or appears as a whole word inside it.
func (g *Guard) blockedTerm(text string) string {
	lowered := strings.ToLower(text)
	for _, term := range g.denylist {
		if lowered == term {
			return term
		}
		for _, word := range strings.FieldsFunc(lowered, func(r rune) bool {
			return r == ' ' || r == '"' || r == '(' || r == ')'
		}) {
			if word == term {
				return term
			}
		}
	}
	return ""
}
