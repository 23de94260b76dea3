package scope

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// countryAliases maps textual country variants to one ISO 3166-1 alpha-2
// code. Matching is case-insensitive and diacritic-folded.
var countryAliases = map[string]string{
	"de": "DE", "deu": "DE", "ger": "DE", "germany": "DE", "deutschland": "DE",
	"at": "AT", "aut": "AT", "austria": "AT", "osterreich": "AT", "oesterreich": "AT",
	"ch": "CH", "che": "CH", "switzerland": "CH", "schweiz": "CH",
	"gb": "GB", "uk": "GB", "gbr": "GB", "united kingdom": "GB", "great britain": "GB", "england": "GB",
	"us": "US", "usa": "US", "united states": "US",
	"fr": "FR", "fra": "FR", "france": "FR",
	"nl": "NL", "nld": "NL", "netherlands": "NL", "niederlande": "NL",
	"pl": "PL", "pol": "PL", "poland": "PL", "polen": "PL",
}

// NormalizeCountry resolves a textual country variant to its alpha-2 code.
// Unknown two-letter inputs pass through uppercased; anything else unknown
// normalizes to "".
func NormalizeCountry(raw string) string {
	key := strings.ToLower(strings.TrimSpace(foldDiacritics(raw)))
	if code, ok := countryAliases[key]; ok {
		return code
	}
	if len(key) == 2 && isLetters(key) {
		return strings.ToUpper(key)
	}
	return ""
}

// germanTranslit spells out umlauts and sharp s the way ASCII-only sources
// do, so "München" also matches "Muenchen".
var germanTranslit = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
	"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
)

// cityIndex answers membership questions about the target country's city
// list, tolerant of diacritics and common transliterations.
type cityIndex struct {
	keys map[string]struct{}
}

func newCityIndex(cities []string) *cityIndex {
	idx := &cityIndex{keys: make(map[string]struct{}, len(cities)*2)}
	for _, city := range cities {
		idx.keys[normalizeKey(city)] = struct{}{}
		idx.keys[translitKey(city)] = struct{}{}
	}
	return idx
}

func (i *cityIndex) contains(city string) bool {
	if _, ok := i.keys[normalizeKey(city)]; ok {
		return true
	}
	_, ok := i.keys[translitKey(city)]
	return ok
}

// normalizeKey lowercases and strips diacritics ("München" -> "munchen").
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(foldDiacritics(s)))
}

// translitKey applies the German transliteration before folding
// ("München" -> "muenchen").
func translitKey(s string) string {
	return strings.ToLower(strings.TrimSpace(foldDiacritics(germanTranslit.Replace(s))))
}

// foldDiacritics removes combining marks: NFD decomposition, mark removal,
// NFC recomposition.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(s) > 0
}
