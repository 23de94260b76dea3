package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Vocabulary holds the external data tables consumed by the query builder,
// the provenance guard, and the scope filter: locale-specific event-noun
// scaffolds, the augmentation denylist, and the per-country city list.
//
// These tables are domain configuration, not algorithm. The code treats every
// entry as opaque text.
type Vocabulary struct {
	Scaffolds map[string][]string `toml:"scaffolds"` // locale -> event nouns
	Denylist  []string            `toml:"denylist"`  // terms blocked when source is "augmented"
	Cities    map[string][]string `toml:"cities"`    // country code -> city names
}

// DefaultVocabulary returns the built-in tables for the German target market
// plus an English fallback.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Scaffolds: map[string][]string{
			"de": {"Konferenz", "Kongress", "Tagung", "Seminar", "Fachforum", "Messe"},
			"en": {"conference", "congress", "seminar", "workshop", "forum", "summit"},
		},
		Denylist: []string{
			"regtech",
			"fintech",
			"insurtech",
			"blockchain",
			"networking",
			"innovation",
			"digitalisierung",
			"startup",
		},
		Cities: map[string][]string{
			"DE": {
				"Berlin", "Hamburg", "München", "Köln", "Frankfurt am Main",
				"Stuttgart", "Düsseldorf", "Leipzig", "Dresden", "Nürnberg",
				"Hannover", "Bremen", "Essen", "Dortmund", "Bonn",
			},
		},
	}
}

// LoadVocabulary loads the vocabulary tables from a TOML file. An empty path
// returns the built-in defaults; a file only replaces the sections it sets.
func LoadVocabulary(path string) (*Vocabulary, error) {
	vocab := DefaultVocabulary()
	if path == "" {
		return vocab, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file %s: %w", path, err)
	}

	var loaded Vocabulary
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file %s: %w", path, err)
	}

	if len(loaded.Scaffolds) > 0 {
		vocab.Scaffolds = loaded.Scaffolds
	}
	if len(loaded.Denylist) > 0 {
		vocab.Denylist = loaded.Denylist
	}
	if len(loaded.Cities) > 0 {
		vocab.Cities = loaded.Cities
	}

	return vocab, nil
}

// ScaffoldsFor returns the event-noun scaffold for a locale, falling back to
// English for unknown locales.
func (v *Vocabulary) ScaffoldsFor(locale string) []string {
	if nouns, ok := v.Scaffolds[strings.ToLower(locale)]; ok {
		return nouns
	}
	return v.Scaffolds["en"]
}

// CitiesFor returns the configured city list for a country code.
func (v *Vocabulary) CitiesFor(country string) []string {
	return v.Cities[strings.ToUpper(country)]
}
