package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestionCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suggestions.yaml")
	content := `
suggestions:
  - text: "Flaky tests on webkit"
    category: flaky
    icon: "🔄"
  - text: "   "
    category: failing
  - text: "Slow checkout tests"
    category: slow
    icon: "🐌"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	catalog, err := NewSuggestionCatalog(path, nil)
	require.NoError(t, err)

	list := catalog.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Flaky tests on webkit", list[0].Text)
	assert.Len(t, catalog.ByCategory("SLOW"), 1)
	assert.Empty(t, catalog.ByCategory("failing"))
}

func TestSuggestionCatalogMissingFileFallsBack(t *testing.T) {
	catalog, err := NewSuggestionCatalog(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, defaultSuggestions, catalog.List())
}

func TestSuggestionCatalogInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("suggestions: [::"), 0o600))

	_, err := NewSuggestionCatalog(path, nil)
	assert.Error(t, err)
}

func TestSuggestionCatalogListIsACopy(t *testing.T) {
	catalog, err := NewSuggestionCatalog("", nil)
	require.NoError(t, err)

	list := catalog.List()
	list[0].Text = "mutated"
	assert.NotEqual(t, "mutated", catalog.List()[0].Text)
}
