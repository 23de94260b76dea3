package provenance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inveniodev/invenio/internal/models"
)

func TestAssertNoBlockedAugmentation(t *testing.T) {
	guard := NewGuard([]string{"regtech", "networking"})

	tests := []struct {
		name      string
		tokens    []models.Token
		wantTerm  string
		wantError bool
	}{
		{
			name: "user-configured blocked term passes",
			tokens: []models.Token{
				{Text: "regtech konferenz", Source: models.TokenSourceUserConfig},
			},
		},
		{
			name: "clean augmented tokens pass",
			tokens: []models.Token{
				{Text: "compliance", Source: models.TokenSourceUserConfig},
				{Text: `"Konferenz"`, Source: models.TokenSourceAugmented},
				{Text: "Berlin", Source: models.TokenSourceAugmented},
			},
		},
		{
			name: "augmented blocked term fails",
			tokens: []models.Token{
				{Text: "compliance", Source: models.TokenSourceUserConfig},
				{Text: "networking", Source: models.TokenSourceAugmented},
			},
			wantError: true,
			wantTerm:  "networking",
		},
		{
			name: "blocked term inside quoted augmented phrase fails",
			tokens: []models.Token{
				{Text: `"regtech summit"`, Source: models.TokenSourceAugmented},
			},
			wantError: true,
			wantTerm:  "regtech",
		},
		{
			name: "matching is case-insensitive",
			tokens: []models.Token{
				{Text: "RegTech", Source: models.TokenSourceAugmented},
			},
			wantError: true,
			wantTerm:  "regtech",
		},
		{
			name: "substring of a larger word does not match",
			tokens: []models.Token{
				{Text: "regtechnically", Source: models.TokenSourceAugmented},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.AssertNoBlockedAugmentation(tt.tokens)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var violation *ViolationError
			require.True(t, errors.As(err, &violation))
			assert.Equal(t, tt.wantTerm, violation.Term)
		})
	}
}

func TestValidateQueryProvenance(t *testing.T) {
	guard := NewGuard([]string{"regtech"})

	t.Run("valid augmented query", func(t *testing.T) {
		result := guard.ValidateQueryProvenance([]models.Token{
			{Text: "compliance", Source: models.TokenSourceUserConfig},
			{Text: "Konferenz", Source: models.TokenSourceAugmented},
		}, true)
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Errors)
	})

	t.Run("augmented token while augmentation disabled", func(t *testing.T) {
		result := guard.ValidateQueryProvenance([]models.Token{
			{Text: "compliance", Source: models.TokenSourceUserConfig},
			{Text: "Konferenz", Source: models.TokenSourceAugmented},
		}, false)
		require.False(t, result.IsValid)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "augmentation is disabled")
	})

	t.Run("unknown token source", func(t *testing.T) {
		result := guard.ValidateQueryProvenance([]models.Token{
			{Text: "compliance", Source: "llm_generated"},
		}, true)
		require.False(t, result.IsValid)
		assert.Contains(t, result.Errors[0], "unknown source")
	})

	t.Run("reports every problem", func(t *testing.T) {
		result := guard.ValidateQueryProvenance([]models.Token{
			{Text: "regtech", Source: models.TokenSourceAugmented},
			{Text: "weird", Source: "nonsense"},
		}, false)
		require.False(t, result.IsValid)
		assert.Len(t, result.Errors, 3)
	})
}

func TestNewGuardNormalizesDenylist(t *testing.T) {
	guard := NewGuard([]string{"  RegTech  ", "", "FINTECH"})

	err := guard.AssertNoBlockedAugmentation([]models.Token{
		{Text: "fintech", Source: models.TokenSourceAugmented},
	})
	assert.Error(t, err)

	err = guard.AssertNoBlockedAugmentation([]models.Token{
		{Text: "regtech", Source: models.TokenSourceAugmented},
	})
	assert.Error(t, err)
}
