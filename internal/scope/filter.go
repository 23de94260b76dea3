// Package scope implements the geographic/temporal admission gate every
// candidate must pass before it is handed to extraction. The filter is a pure
// function of (candidate, filter config): verdicts are computed fresh on
// every call and carry an explicit rejection reason.
package scope

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/inveniodev/invenio/internal/models"
)

// Config holds the admission parameters for one target market.
type Config struct {
	CountryCode      string     // Target country, ISO 3166-1 alpha-2
	Cities           []string   // City list for the target country
	Locale           string     // Locale for date parsing
	DateFrom         *time.Time // Window start (nil = no window)
	DateTo           *time.Time // Window end
	AllowUndated     bool       // Pass candidates with unparseable dates
	AllowGlobalLists bool       // Pass generic listing-index pages
}

// Filter is the admission gate.
type Filter struct {
	config Config
	target string
	cities *cityIndex
	logger arbor.ILogger
}

// New creates a scope filter for the given market configuration.
func New(config Config, logger arbor.ILogger) *Filter {
	return &Filter{
		config: config,
		target: NormalizeCountry(config.CountryCode),
		cities: newCityIndex(config.Cities),
		logger: logger,
	}
}

// PassesScope applies the admission rules in order: generic-list rejection,
// geographic admission, date-window containment. A candidate with neither a
// country nor a city signal cannot be proven in scope and is rejected.
func (f *Filter) PassesScope(c models.SearchCandidate) models.ScopeDecision {
	if !f.config.AllowGlobalLists && isGenericListURL(c.URL) {
		return models.Reject("generic list page")
	}

	if country := strings.TrimSpace(c.CountryCode); country != "" {
		if NormalizeCountry(country) != f.target {
			return models.Reject(fmt.Sprintf("country %q outside target %s", c.CountryCode, f.target))
		}
	} else if city := strings.TrimSpace(c.City); city != "" {
		if !f.cities.contains(city) {
			return models.Reject(fmt.Sprintf("city %q not recognized in target country %s", c.City, f.target))
		}
	} else {
		return models.Reject("no geographic signal")
	}

	if f.config.DateFrom != nil || f.config.DateTo != nil {
		date := ParseEventDate(c.DateText, f.config.Locale)
		if date == nil {
			if f.config.AllowUndated {
				return models.Admit()
			}
			if strings.TrimSpace(c.DateText) == "" {
				return models.Reject("missing date")
			}
			return models.Reject(fmt.Sprintf("unparseable date %q", c.DateText))
		}
		if f.config.DateFrom != nil && date.Before(*f.config.DateFrom) {
			return models.Reject(fmt.Sprintf("date %s before window start", date.Format(time.DateOnly)))
		}
		if f.config.DateTo != nil && date.After(*f.config.DateTo) {
			return models.Reject(fmt.Sprintf("date %s after window end", date.Format(time.DateOnly)))
		}
	}

	return models.Admit()
}

// EventDate returns the candidate's parsed date, or the zero time when the
// date text does not parse.
func (f *Filter) EventDate(c models.SearchCandidate) time.Time {
	if d := ParseEventDate(c.DateText, f.config.Locale); d != nil {
		return *d
	}
	return time.Time{}
}

// listIndexSegments are path segments that identify an undifferentiated
// listing index rather than a specific event page.
var listIndexSegments = map[string]struct{}{
	"events":          {},
	"event":           {},
	"veranstaltungen": {},
	"termine":         {},
	"kalender":        {},
	"calendar":        {},
	"messen":          {},
	"konferenzen":     {},
	"seminare":        {},
}

// isGenericListURL reports whether the URL points at a bare listing index: a
// root path, or a single known index segment with no date or slug behind it.
func isGenericListURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}

	path := strings.Trim(strings.ToLower(parsed.Path), "/")
	if path == "" {
		return true
	}

	segments := strings.Split(path, "/")
	if len(segments) != 1 {
		return false
	}
	_, ok := listIndexSegments[segments[0]]
	return ok
}
