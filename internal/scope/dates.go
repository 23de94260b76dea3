package scope

import (
	"strings"
	"time"
)

// germanMonths rewrites German month names to their English equivalents so
// the time package can parse textual dates. Months spelled identically in
// both languages (April, August, September, November) need no entry.
var germanMonths = strings.NewReplacer(
	"Januar", "January", "januar", "January",
	"Februar", "February", "februar", "February",
	"März", "March", "märz", "March", "Maerz", "March", "maerz", "March",
	"Mai", "May", "mai", "May",
	"Juni", "June", "juni", "June",
	"Juli", "July", "juli", "July",
	"Oktober", "October", "oktober", "October",
	"Dezember", "December", "dezember", "December",
)

// isoFormats are tried for every locale before the localized ones.
var isoFormats = []string{
	"2006-01-02",
	time.RFC3339,
}

// localizedFormats lists the numeric and textual layouts per locale. The
// slash layouts are locale-sensitive: dd/mm for German, mm/dd for English.
var localizedFormats = map[string][]string{
	"de": {
		"02.01.2006",
		"2.1.2006",
		"02/01/2006",
		"2. January 2006",
		"2 January 2006",
	},
	"en": {
		"January 2, 2006",
		"Jan 2, 2006",
		"2 January 2006",
		"01/02/2006",
	},
}

// ParseEventDate parses a candidate's date text using the locale-aware
// multi-format table. It returns nil when no format matches; callers decide
// what an unparseable date means, the parser never guesses.
func ParseEventDate(text, locale string) *time.Time {
	normalized := strings.TrimSpace(text)
	if normalized == "" {
		return nil
	}
	normalized = germanMonths.Replace(normalized)

	for _, format := range isoFormats {
		if t, err := time.Parse(format, normalized); err == nil {
			return dateOnly(t)
		}
	}

	formats, ok := localizedFormats[strings.ToLower(locale)]
	if !ok {
		formats = localizedFormats["en"]
	}
	for _, format := range formats {
		if t, err := time.Parse(format, normalized); err == nil {
			return dateOnly(t)
		}
	}

	return nil
}

func dateOnly(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
