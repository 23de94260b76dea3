package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCountry(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"DE", "DE"},
		{"de", "DE"},
		{"Germany", "DE"},
		{"Deutschland", "DE"},
		{"DEU", "DE"},
		{"UK", "GB"},
		{"United Kingdom", "GB"},
		{"Österreich", "AT"},
		{"Oesterreich", "AT"},
		{"Schweiz", "CH"},
		{" usa ", "US"},
		{"jp", "JP"}, // unknown alpha-2 passes through
		{"Atlantis", ""},
		{"", ""},
		{"12", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCountry(tt.raw))
		})
	}
}

func TestCityIndex(t *testing.T) {
	idx := newCityIndex([]string{"Berlin", "München", "Frankfurt am Main", "Köln"})

	assert.True(t, idx.contains("Berlin"))
	assert.True(t, idx.contains("berlin"))
	assert.True(t, idx.contains("München"))
	assert.True(t, idx.contains("Muenchen"), "transliterated umlaut matches")
	assert.True(t, idx.contains("Munchen"), "stripped diacritic matches")
	assert.True(t, idx.contains("Koeln"))
	assert.True(t, idx.contains("frankfurt am main"))

	assert.False(t, idx.contains("London"))
	assert.False(t, idx.contains("Frankfurt")) // partial names do not match
	assert.False(t, idx.contains(""))
}

func TestFoldDiacritics(t *testing.T) {
	assert.Equal(t, "Munchen", foldDiacritics("München"))
	assert.Equal(t, "Dusseldorf", foldDiacritics("Düsseldorf"))
	assert.Equal(t, "Berlin", foldDiacritics("Berlin"))
}
