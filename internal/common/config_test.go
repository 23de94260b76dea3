package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invenio.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, "DE", config.Scope.CountryCode)
	assert.Equal(t, "de", config.Search.Locale)
	assert.False(t, config.Search.Augment, "augmentation defaults to off")
	assert.Equal(t, 8, config.Search.MinResultsTierA)
	assert.Equal(t, 5, config.Search.MinKeepAfterPrior)
	assert.Equal(t, 20, config.Search.MinFinalResults)
	assert.Equal(t, 45*time.Second, config.Search.RunDeadlineDuration())
	assert.True(t, config.Providers.WebSearch.Enabled)
	assert.NoError(t, config.Validate())
}

func TestLoadFromFilesOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[search]
augment = true
min_final_results = 30

[scope]
country_code = "AT"
date_from = "2026-09-01"
date_to = "2026-09-30"

[providers.websearch]
enabled = true
timeout = "5s"
max_retries = 1
`)

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.True(t, config.Search.Augment)
	assert.Equal(t, 30, config.Search.MinFinalResults)
	assert.Equal(t, "AT", config.Scope.CountryCode)
	assert.Equal(t, 5*time.Second, config.Providers.WebSearch.TimeoutDuration())
	// Untouched sections keep their defaults.
	assert.Equal(t, 8, config.Search.MinResultsTierA)

	from, to, err := config.Scope.Window()
	require.NoError(t, err)
	require.NotNil(t, from)
	require.NotNil(t, to)
	assert.Equal(t, "2026-09-01", from.Format(time.DateOnly))
	assert.Equal(t, "2026-09-30", to.Format(time.DateOnly))
}

func TestLoadFromFilesLaterFilesWin(t *testing.T) {
	first := writeConfig(t, `
[scope]
country_code = "AT"
`)
	second := writeConfig(t, `
[scope]
country_code = "CH"
`)

	config, err := LoadFromFiles(first, second)
	require.NoError(t, err)
	assert.Equal(t, "CH", config.Scope.CountryCode)
}

func TestLoadFromFilesMissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/invenio.toml")
	assert.Error(t, err)
}

func TestValidateRejectsBadScope(t *testing.T) {
	config := NewDefaultConfig()
	config.Scope.CountryCode = "GERMANY"
	assert.Error(t, config.Validate(), "country code must be alpha-2")

	config = NewDefaultConfig()
	config.Scope.DateFrom = "14.09.2026"
	assert.Error(t, config.Validate(), "window bounds must be yyyy-mm-dd")
}

func TestValidateRejectsBadSchedule(t *testing.T) {
	config := NewDefaultConfig()
	config.Scheduler.Searches = []ScheduledSearch{
		{Name: "daily", Query: "compliance tagung", Schedule: "not a cron"},
	}
	assert.Error(t, config.Validate())

	config.Scheduler.Searches[0].Schedule = "0 6 * * *"
	assert.NoError(t, config.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INVENIO_COUNTRY_CODE", "CH")
	t.Setenv("INVENIO_AUGMENT", "true")
	t.Setenv("INVENIO_STRUCTURED_API_KEY", "sekrit")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "CH", config.Scope.CountryCode)
	assert.True(t, config.Search.Augment)
	assert.Equal(t, "sekrit", config.Providers.Structured.APIKey)
}

func TestProviderPolicyDurationFallbacks(t *testing.T) {
	policy := ProviderPolicy{Timeout: "bogus", Backoff: "", Cooldown: "-5s"}

	assert.Equal(t, 10*time.Second, policy.TimeoutDuration())
	assert.Equal(t, 500*time.Millisecond, policy.BackoffDuration())
	assert.Equal(t, 30*time.Second, policy.CooldownDuration())
}
