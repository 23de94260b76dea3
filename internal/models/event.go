package models

import "time"

// EventCandidate is an admitted candidate promoted to a persistent event
// record. Admitted candidates are handed to the downstream extraction stage
// and stored in the local event database, where they also back the
// local-database fallback provider.
type EventCandidate struct {
	ID          string    `json:"id" badgerhold:"key"`
	URL         string    `json:"url" badgerholdIndex:"URL"`
	Title       string    `json:"title,omitempty"`
	Snippet     string    `json:"snippet,omitempty"`
	City        string    `json:"city,omitempty"`
	CountryCode string    `json:"country_code,omitempty" badgerholdIndex:"CountryCode"`
	DateText    string    `json:"date_text,omitempty"`
	EventDate   time.Time `json:"event_date,omitempty"`
	Provider    string    `json:"provider"`
	Tier        Tier      `json:"tier"`
	RunID       string    `json:"run_id"`
	FirstSeen   time.Time `json:"first_seen"`
}

// FromCandidate builds an EventCandidate from an admitted search candidate.
// The ID is assigned by the caller; EventDate stays zero when the candidate's
// date text did not parse.
func FromCandidate(c SearchCandidate, id, runID string, eventDate time.Time) *EventCandidate {
	return &EventCandidate{
		ID:          id,
		URL:         c.URL,
		Title:       c.Title,
		Snippet:     c.Snippet,
		City:        c.City,
		CountryCode: c.CountryCode,
		DateText:    c.DateText,
		EventDate:   eventDate,
		Provider:    c.Provider,
		Tier:        c.Tier,
		RunID:       runID,
		FirstSeen:   time.Now().UTC(),
	}
}
