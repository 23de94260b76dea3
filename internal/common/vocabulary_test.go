package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultVocabulary(t *testing.T) {
	vocab := DefaultVocabulary()

	assert.NotEmpty(t, vocab.ScaffoldsFor("de"))
	assert.NotEmpty(t, vocab.Denylist)
	assert.Contains(t, vocab.CitiesFor("DE"), "Berlin")
	assert.Contains(t, vocab.CitiesFor("de"), "Berlin", "country lookup ignores case")
	assert.Empty(t, vocab.CitiesFor("XX"))
}

func TestScaffoldsForFallsBackToEnglish(t *testing.T) {
	vocab := DefaultVocabulary()

	assert.Equal(t, vocab.Scaffolds["en"], vocab.ScaffoldsFor("fr"))
	assert.Equal(t, vocab.Scaffolds["de"], vocab.ScaffoldsFor("DE"), "locale lookup ignores case")
}

func TestLoadVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocabulary.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
denylist = ["webinar"]

[scaffolds]
de = ["Branchentreffen"]
`), 0644))

	vocab, err := LoadVocabulary(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Branchentreffen"}, vocab.ScaffoldsFor("de"))
	assert.Equal(t, []string{"webinar"}, vocab.Denylist)
	// Sections the file does not set keep their defaults.
	assert.Contains(t, vocab.CitiesFor("DE"), "Berlin")
}

func TestLoadVocabularyEmptyPathReturnsDefaults(t *testing.T) {
	vocab, err := LoadVocabulary("")
	require.NoError(t, err)
	assert.NotEmpty(t, vocab.Denylist)
}

func TestLoadVocabularyMissingFile(t *testing.T) {
	_, err := LoadVocabulary("/nonexistent/vocabulary.toml")
	assert.Error(t, err)
}
