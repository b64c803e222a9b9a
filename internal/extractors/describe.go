package extractors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/qapulse/qapulse/internal/models"
)

// Describe restates params in plain English so users can check what was understood.
// It reads params only and is independent of the SQL the compiler produces.
func Describe(params models.QueryParams) string {
	parts := make([]string, 0, 6)

	switch params.AnalysisType {
	case models.AnalysisFlaky:
		parts = append(parts, "Flaky tests")
		if r := params.PassRateRange; r != nil {
			parts = append(parts, fmt.Sprintf("with pass rate %d%%-%d%%", r.Min, r.Max))
		}
	case models.AnalysisFailing:
		parts = append(parts, "Failing tests")
		if params.MinFailures > 1 {
			parts = append(parts, fmt.Sprintf("with at least %d failures", params.MinFailures))
		}
	case models.AnalysisSlow:
		parts = append(parts, "Slow tests")
		if params.MinDuration > 0 {
			seconds := strconv.FormatFloat(float64(params.MinDuration)/1000, 'f', -1, 64)
			parts = append(parts, fmt.Sprintf("taking more than %s seconds", seconds))
		}
	}

	if params.TimeRange.Days > 0 {
		parts = append(parts, fmt.Sprintf("in the last %d days", params.TimeRange.Days))
	}
	if len(params.Environments) > 0 {
		parts = append(parts, fmt.Sprintf("in %s environment", strings.Join(params.Environments, ", ")))
	}
	if len(params.Browsers) > 0 {
		parts = append(parts, fmt.Sprintf("on %s browser", strings.Join(params.Browsers, ", ")))
	}
	if params.Limit > 0 {
		parts = append(parts, fmt.Sprintf("(top %d)", params.Limit))
	}

	return strings.Join(parts, " ")
}
