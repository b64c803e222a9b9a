// Package extractors turns free-text analytics questions into structured QueryParams.
package extractors

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/qapulse/qapulse/internal/models"
)

const (
	defaultDays        = 90
	defaultLimit       = 50
	defaultMinRuns     = 5
	defaultMinDuration = 10_000
)

var defaultPassRate = models.PassRateRange{Min: 10, Max: 90}

// classificationRules are evaluated in order; the first match decides the analysis type.
var classificationRules = []struct {
	analysis models.AnalysisType
	pattern  *regexp.Regexp
}{
	{models.AnalysisFlaky, regexp.MustCompile(`(?i)flaky|unstable|inconsistent|brittle`)},
	{models.AnalysisSlow, regexp.MustCompile(`(?i)slow|slowest|duration|performance|taking.*time`)},
	{models.AnalysisFailing, regexp.MustCompile(`(?i)failing|failed|broken|error`)},
}

// passRateRules are all evaluated; each match overwrites the previous range, so "between" wins.
var passRateRules = []struct {
	pattern *regexp.Regexp
	build   func(m []int) models.PassRateRange
}{
	{regexp.MustCompile(`(?i)(?:less than|<)\s*(\d+)%?`), func(m []int) models.PassRateRange {
		return models.PassRateRange{Min: 0, Max: m[0]}
	}},
	{regexp.MustCompile(`(?i)(?:more than|>)\s*(\d+)%?`), func(m []int) models.PassRateRange {
		return models.PassRateRange{Min: m[0], Max: 100}
	}},
	{regexp.MustCompile(`(?i)between\s*(\d+)%?\s*and\s*(\d+)%?`), func(m []int) models.PassRateRange {
		return models.PassRateRange{Min: m[0], Max: m[1]}
	}},
}

// timePhrases is searched in order against the lower-cased input; the first hit wins.
var timePhrases = []struct {
	phrase string
	days   int
}{
	{"last 7 days", 7},
	{"past 7 days", 7},
	{"last week", 7},
	{"past week", 7},
	{"last 30 days", 30},
	{"past 30 days", 30},
	{"last month", 30},
	{"past month", 30},
	{"last 3 months", 90},
	{"past 3 months", 90},
	{"last 6 months", 180},
	{"past 6 months", 180},
	{"last year", 365},
	{"past year", 365},
	{"last 3 years", 1095},
	{"past 3 years", 1095},
}

var (
	daysPattern         = regexp.MustCompile(`(?i)(?:last|past)\s+(\d+)\s+days?`)
	environmentPattern  = regexp.MustCompile(`(?i)(?:in|on)\s+(staging|production|dev|test|qa|local)`)
	browserPattern      = regexp.MustCompile(`(?i)(chrome|firefox|safari|edge|webkit|chromium)`)
	limitPattern        = regexp.MustCompile(`(?i)(?:top|first)\s*(\d+)`)
	failureCountPattern = regexp.MustCompile(`(?i)(?:more\s+than|>\s*|at\s+least)\s*(\d+)\s*(?:times?|failures?)`)
	timesPattern        = regexp.MustCompile(`(?i)(\d+)\s*times?`)
	durationPattern     = regexp.MustCompile(`(?i)(?:more\s+than|>)\s*(\d+)\s*seconds?`)
)

// Parse maps a question onto QueryParams. It never fails: anything it cannot
// recognise falls back to a per-type default.
func Parse(input string) models.QueryParams {
	params := models.QueryParams{AnalysisType: classify(input)}

	for _, rule := range passRateRules {
		if m := submatchInts(rule.pattern, input); m != nil {
			r := rule.build(m).Normalize()
			params.PassRateRange = &r
		}
	}

	params.TimeRange = models.TimeRange{Days: timeRangeDays(input)}

	if m := environmentPattern.FindStringSubmatch(input); m != nil {
		params.Environments = []string{strings.ToLower(m[1])}
	}
	if m := browserPattern.FindStringSubmatch(input); m != nil {
		params.Browsers = []string{strings.ToLower(m[1])}
	}
	if m := submatchInts(limitPattern, input); m != nil {
		params.Limit = m[0]
	}

	switch params.AnalysisType {
	case models.AnalysisFailing:
		if m := submatchInts(failureCountPattern, input); m != nil {
			params.MinFailures = m[0]
		} else if m := submatchInts(timesPattern, input); m != nil {
			params.MinFailures = m[0]
		}
	case models.AnalysisSlow:
		if m := submatchInts(durationPattern, input); m != nil {
			params.MinDuration = m[0] * 1000
		}
	}

	applyDefaults(&params)
	return params
}

func classify(input string) models.AnalysisType {
	for _, rule := range classificationRules {
		if rule.pattern.MatchString(input) {
			return rule.analysis
		}
	}
	return models.AnalysisFlaky
}

func timeRangeDays(input string) int {
	lower := strings.ToLower(input)
	for _, tp := range timePhrases {
		if strings.Contains(lower, tp.phrase) {
			return tp.days
		}
	}
	if m := submatchInts(daysPattern, input); m != nil && m[0] > 0 {
		return m[0]
	}
	return defaultDays
}

func applyDefaults(p *models.QueryParams) {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	p.Limit = min(p.Limit, models.MaxLimit)
	switch p.AnalysisType {
	case models.AnalysisFlaky:
		if p.MinRuns <= 0 {
			p.MinRuns = defaultMinRuns
		}
		if p.PassRateRange == nil {
			r := defaultPassRate
			p.PassRateRange = &r
		}
	case models.AnalysisSlow:
		if p.MinDuration <= 0 {
			p.MinDuration = defaultMinDuration
		}
	}
}

// submatchInts returns the integer capture groups of the first match, or nil.
// Captures that overflow int are treated as no match.
func submatchInts(re *regexp.Regexp, input string) []int {
	m := re.FindStringSubmatch(input)
	if m == nil {
		return nil
	}
	out := make([]int, 0, len(m)-1)
	for _, s := range m[1:] {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil
		}
		out = append(out, n)
	}
	return out
}
