package scope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventDate(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		locale string
		want   string // yyyy-mm-dd, "" = no parse
	}{
		{"iso date", "2026-09-14", "de", "2026-09-14"},
		{"rfc3339", "2026-09-14T18:30:00Z", "de", "2026-09-14"},
		{"german numeric", "14.09.2026", "de", "2026-09-14"},
		{"german numeric short", "3.9.2026", "de", "2026-09-03"},
		{"german slash is dd/mm", "05/03/2026", "de", "2026-03-05"},
		{"english slash is mm/dd", "05/03/2026", "en", "2026-05-03"},
		{"german textual", "14. September 2026", "de", "2026-09-14"},
		{"german month name", "3. März 2026", "de", "2026-03-03"},
		{"german month ascii", "3. Maerz 2026", "de", "2026-03-03"},
		{"english textual", "September 14, 2026", "en", "2026-09-14"},
		{"unknown locale falls back to english", "Sep 14, 2026", "fr", "2026-09-14"},
		{"surrounding whitespace", "  14.09.2026  ", "de", "2026-09-14"},
		{"empty", "", "de", ""},
		{"prose", "demnächst", "de", ""},
		{"relative", "next week", "en", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseEventDate(tt.text, tt.locale)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Format(time.DateOnly))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseEventDateDropsTimeOfDay(t *testing.T) {
	got := ParseEventDate("2026-09-14T23:59:00+02:00", "de")
	require.NotNil(t, got)
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, 0, got.Minute())
}
