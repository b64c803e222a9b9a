package extractors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qapulse/qapulse/internal/models"
)

func TestParseClassificationPriority(t *testing.T) {
	cases := map[string]models.AnalysisType{
		"flaky tests that are also failing":       models.AnalysisFlaky,
		"unstable slow tests":                     models.AnalysisFlaky,
		"inconsistent results on chrome":          models.AnalysisFlaky,
		"brittle checkout suite with errors":      models.AnalysisFlaky,
		"slowest failing tests":                   models.AnalysisSlow,
		"tests with the worst performance":        models.AnalysisSlow,
		"which tests are taking too much time":    models.AnalysisSlow,
		"what is broken in staging":               models.AnalysisFailing,
		"tests that failed yesterday":             models.AnalysisFailing,
		"Top 10 most unreliable tests":            models.AnalysisFlaky,
		"":                                        models.AnalysisFlaky,
		"show me everything about the login spec": models.AnalysisFlaky,
	}
	for input, want := range cases {
		assert.Equal(t, want, Parse(input).AnalysisType, "input %q", input)
	}
}

func TestParseFlakyKeywordAlwaysWins(t *testing.T) {
	for _, kw := range []string{"flaky", "UNSTABLE", "Inconsistent", "brittle"} {
		input := fmt.Sprintf("slow failing broken %s tests with errors", kw)
		assert.Equal(t, models.AnalysisFlaky, Parse(input).AnalysisType, input)
	}
}

func TestParsePassRateRanges(t *testing.T) {
	cases := []struct {
		input string
		want  models.PassRateRange
	}{
		{"flaky tests with pass rate less than 50%", models.PassRateRange{Min: 0, Max: 50}},
		{"flaky tests < 30", models.PassRateRange{Min: 0, Max: 30}},
		{"flaky tests with pass rate more than 70%", models.PassRateRange{Min: 70, Max: 100}},
		{"flaky tests > 60%", models.PassRateRange{Min: 60, Max: 100}},
		{"flaky tests between 20% and 40%", models.PassRateRange{Min: 20, Max: 40}},
		{"flaky tests between 20 and 40, less than 90 and more than 5", models.PassRateRange{Min: 20, Max: 40}},
		{"flaky tests", models.PassRateRange{Min: 10, Max: 90}},
	}
	for _, tc := range cases {
		got := Parse(tc.input)
		require.NotNil(t, got.PassRateRange, tc.input)
		assert.Equal(t, tc.want, *got.PassRateRange, tc.input)
	}
}

func TestParseBetweenOverridesForAnyBounds(t *testing.T) {
	for x := 0; x <= 100; x += 25 {
		for y := x; y <= 100; y += 25 {
			input := fmt.Sprintf("flaky tests less than 99%% between %d%% and %d%%", x, y)
			got := Parse(input)
			require.NotNil(t, got.PassRateRange)
			assert.Equal(t, models.PassRateRange{Min: x, Max: y}, *got.PassRateRange, input)
		}
	}
}

func TestParseTimeRange(t *testing.T) {
	cases := map[string]int{
		"flaky tests in the last 7 days":     7,
		"failing tests past week":            7,
		"Slow tests over the LAST MONTH":     30,
		"flaky tests in the past 30 days":    30,
		"flaky tests in the last 3 months":   90,
		"flaky tests over the past 6 months": 180,
		"failing tests in the last year":     365,
		"flaky tests in the past 3 years":    1095,
		"flaky tests in the past 45 days":    45,
		"failing tests in the last 1 day":    1,
		"flaky tests":                        90,
		"flaky tests in the last 0 days":     90,
	}
	for input, want := range cases {
		assert.Equal(t, want, Parse(input).TimeRange.Days, input)
	}
}

func TestParseEnvironmentAndBrowser(t *testing.T) {
	got := Parse("flaky tests on Staging using Firefox")
	assert.Equal(t, []string{"staging"}, got.Environments)
	assert.Equal(t, []string{"firefox"}, got.Browsers)

	got = Parse("failing tests in production on chromium")
	assert.Equal(t, []string{"production"}, got.Environments)
	assert.Equal(t, []string{"chromium"}, got.Browsers)

	got = Parse("failing tests")
	assert.Empty(t, got.Environments)
	assert.Empty(t, got.Browsers)
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 10, Parse("Top 10 most unreliable tests").Limit)
	assert.Equal(t, 5, Parse("first 5 slow tests").Limit)
	assert.Equal(t, 50, Parse("slow tests").Limit)
	assert.Equal(t, 50, Parse("top 0 slow tests").Limit)
}

func TestParseLimitIsCapped(t *testing.T) {
	assert.Equal(t, models.MaxLimit, Parse("top 2000 failing tests").Limit)
	assert.Equal(t, models.MaxLimit, Parse("first 1000 slow tests").Limit)
}

func TestParsePassRateIsNormalized(t *testing.T) {
	cases := []struct {
		input string
		want  models.PassRateRange
	}{
		{"flaky tests with pass rate between 80 and 20", models.PassRateRange{Min: 20, Max: 80}},
		{"flaky tests with pass rate more than 250%", models.PassRateRange{Min: 100, Max: 100}},
		{"flaky tests with pass rate less than 400%", models.PassRateRange{Min: 0, Max: 100}},
		{"slowest tests taking more than 120 seconds", models.PassRateRange{Min: 100, Max: 100}},
	}
	for _, tc := range cases {
		got := Parse(tc.input)
		require.NotNil(t, got.PassRateRange, tc.input)
		assert.Equal(t, tc.want, *got.PassRateRange, tc.input)
		assert.NoError(t, got.PassRateRange.Validate(), tc.input)
	}
}

func TestParseFailureThreshold(t *testing.T) {
	assert.Equal(t, 3, Parse("tests failing more than 3 times").MinFailures)
	assert.Equal(t, 4, Parse("failing tests with at least 4 failures").MinFailures)
	assert.Equal(t, 2, Parse("tests that failed 2 times this week").MinFailures)
	assert.Zero(t, Parse("show me failing tests").MinFailures)
	// thresholds are ignored for other analysis types
	assert.Zero(t, Parse("flaky tests failing more than 3 times").MinFailures)
}

func TestParseDurationThreshold(t *testing.T) {
	assert.Equal(t, 30000, Parse("Show slowest tests taking more than 30 seconds").MinDuration)
	assert.Equal(t, 5000, Parse("slow tests > 5 seconds").MinDuration)
	assert.Equal(t, 10000, Parse("slow tests").MinDuration)
	assert.Zero(t, Parse("failing tests more than 30 seconds").MinDuration)
}

func TestParseScenarios(t *testing.T) {
	flaky := Parse("Show me flaky tests with pass rate less than 50%")
	assert.Equal(t, models.AnalysisFlaky, flaky.AnalysisType)
	assert.Equal(t, &models.PassRateRange{Min: 0, Max: 50}, flaky.PassRateRange)
	assert.Equal(t, 90, flaky.TimeRange.Days)
	assert.Equal(t, 5, flaky.MinRuns)
	assert.Equal(t, 50, flaky.Limit)
	assert.Contains(t, Describe(flaky), "Flaky tests with pass rate 0%-50%")

	failing := Parse("Find tests failing more than 3 times in last 7 days")
	assert.Equal(t, models.AnalysisFailing, failing.AnalysisType)
	assert.Equal(t, 3, failing.MinFailures)
	assert.Equal(t, 7, failing.TimeRange.Days)
	assert.Equal(t, 50, failing.Limit)

	slow := Parse("Show slowest tests taking more than 30 seconds")
	assert.Equal(t, models.AnalysisSlow, slow.AnalysisType)
	assert.Equal(t, 30000, slow.MinDuration)

	top := Parse("Top 10 most unreliable tests")
	assert.Equal(t, models.AnalysisFlaky, top.AnalysisType)
	assert.Equal(t, 10, top.Limit)
}

func TestParseIsDeterministic(t *testing.T) {
	inputs := []string{
		"Show me flaky tests with pass rate less than 50%",
		"Find tests failing more than 3 times in last 7 days on staging with webkit",
		"slow tests",
	}
	for _, in := range inputs {
		assert.Equal(t, Parse(in), Parse(in), in)
	}
}
