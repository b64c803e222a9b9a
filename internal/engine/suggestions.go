package engine

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/qapulse/qapulse/internal/models"
)

// SuggestionCatalog serves the example questions shown next to the query box.
type SuggestionCatalog struct {
	suggestions []models.Suggestion
	logger      *slog.Logger
}

// SuggestionFile is the YAML root structure.
type SuggestionFile struct {
	Suggestions []models.Suggestion `yaml:"suggestions"`
}

var defaultSuggestions = []models.Suggestion{
	{Text: "Show me flaky tests with pass rate below 50%", Category: "flaky", Icon: "🔄"},
	{Text: "Which tests are failing the most in the last 7 days?", Category: "failing", Icon: "❌"},
	{Text: "Find slow tests taking more than 30 seconds", Category: "slow", Icon: "🐌"},
	{Text: "Flaky tests in staging environment", Category: "flaky", Icon: "🎯"},
	{Text: "Failing tests on chrome browser this week", Category: "failing", Icon: "🌐"},
	{Text: "Top 10 slowest tests in production", Category: "slow", Icon: "⚡"},
}

// NewSuggestionCatalog loads suggestions from path. An empty path or missing
// file yields the built-in catalog.
func NewSuggestionCatalog(path string, logger *slog.Logger) (*SuggestionCatalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	catalog := &SuggestionCatalog{suggestions: defaultSuggestions, logger: logger}
	if path == "" {
		return catalog, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("suggestions file not found, using built-in catalog", slog.String("path", path))
			return catalog, nil
		}
		return nil, err
	}
	var file SuggestionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	loaded := make([]models.Suggestion, 0, len(file.Suggestions))
	for _, s := range file.Suggestions {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" {
			continue
		}
		loaded = append(loaded, s)
	}
	if len(loaded) > 0 {
		catalog.suggestions = loaded
	}
	return catalog, nil
}

// List returns a copy of the catalog.
func (c *SuggestionCatalog) List() []models.Suggestion {
	if c == nil {
		return append([]models.Suggestion(nil), defaultSuggestions...)
	}
	return append([]models.Suggestion(nil), c.suggestions...)
}

// ByCategory returns the suggestions whose category matches, case-insensitively.
func (c *SuggestionCatalog) ByCategory(category string) []models.Suggestion {
	var out []models.Suggestion
	for _, s := range c.List() {
		if strings.EqualFold(s.Category, category) {
			out = append(out, s)
		}
	}
	return out
}
