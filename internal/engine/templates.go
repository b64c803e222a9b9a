package engine

import (
	"fmt"

	"github.com/qapulse/qapulse/internal/models"
)

// templateDefaults holds the fallback values a template applies to unset params.
type templateDefaults struct {
	Limit       int
	MinRuns     int
	MinPassRate int
	MaxPassRate int
	MinFailures int
	MinDuration int
}

func (d templateDefaults) asMap() map[string]int {
	out := map[string]int{"limit": d.Limit}
	if d.MinRuns > 0 {
		out["minRuns"] = d.MinRuns
	}
	if d.MaxPassRate > 0 {
		out["minPassRate"] = d.MinPassRate
		out["maxPassRate"] = d.MaxPassRate
	}
	if d.MinFailures > 0 {
		out["minFailures"] = d.MinFailures
	}
	if d.MinDuration > 0 {
		out["minDuration"] = d.MinDuration
	}
	return out
}

// queryTemplate is implemented by exactly the three analysis templates below.
type queryTemplate interface {
	description() string
	defaults() templateDefaults
	// validate checks only the params fields the template reads.
	validate(params models.QueryParams) error
	apply(b *selectBuilder, params models.QueryParams)
}

func templateFor(t models.AnalysisType) (queryTemplate, error) {
	switch t {
	case models.AnalysisFlaky:
		return flakyTemplate{}, nil
	case models.AnalysisFailing:
		return failingTemplate{}, nil
	case models.AnalysisSlow:
		return slowTemplate{}, nil
	default:
		return nil, ErrUnknownAnalysisType
	}
}

type flakyTemplate struct{}

func (flakyTemplate) description() string {
	return "Find tests with inconsistent pass/fail patterns"
}

func (flakyTemplate) defaults() templateDefaults {
	return templateDefaults{Limit: 50, MinRuns: 5, MinPassRate: 10, MaxPassRate: 90}
}

func (flakyTemplate) validate(params models.QueryParams) error {
	if params.MinRuns < 0 {
		return fmt.Errorf("%w: minRuns must not be negative", models.ErrInvalidParams)
	}
	if r := params.PassRateRange; r != nil {
		return r.Validate()
	}
	return nil
}

func (t flakyTemplate) apply(b *selectBuilder, params models.QueryParams) {
	d := t.defaults()
	minRate, maxRate := d.MinPassRate, d.MaxPassRate
	if r := params.PassRateRange; r != nil {
		minRate, maxRate = r.Min, r.Max
	}
	b.columns = []string{
		"tc.name",
		"CAST(COUNT(*) AS INTEGER) AS total_runs",
		countIf(string(models.StatusPassed), "passes"),
		countIf(string(models.StatusFailed), "failures"),
		countIf(string(models.StatusSkipped), "skipped"),
		"ROUND(AVG(CASE WHEN tc.status = 'passed' THEN 1.0 ELSE 0.0 END) * 100, 2) AS pass_rate",
		"CAST(MAX(tr.started_at) AS INTEGER) AS last_run",
		"p.key AS project",
		"CAST(AVG(tc.duration_ms) AS INTEGER) AS avg_duration",
	}
	b.addHaving("total_runs >= ?", orDefault(params.MinRuns, d.MinRuns))
	b.addHaving("pass_rate BETWEEN ? AND ?", minRate, maxRate)
	b.orderBy = []string{"pass_rate ASC", "failures DESC"}
}

type failingTemplate struct{}

func (failingTemplate) description() string {
	return "Find tests with high failure rates"
}

func (failingTemplate) defaults() templateDefaults {
	return templateDefaults{Limit: 50, MinFailures: 1}
}

func (failingTemplate) validate(params models.QueryParams) error {
	if params.MinFailures < 0 {
		return fmt.Errorf("%w: minFailures must not be negative", models.ErrInvalidParams)
	}
	return nil
}

func (failingTemplate) apply(b *selectBuilder, params models.QueryParams) {
	b.columns = []string{
		"tc.name",
		"CAST(COUNT(*) AS INTEGER) AS total_runs",
		countIf(string(models.StatusFailed), "failures"),
		countIf(string(models.StatusPassed), "passes"),
		"ROUND(AVG(CASE WHEN tc.status = 'failed' THEN 1.0 ELSE 0.0 END) * 100, 2) AS failure_rate",
		"CAST(MAX(CASE WHEN tc.status = 'failed' THEN tr.started_at END) AS INTEGER) AS last_failure",
		"p.key AS project",
		"CAST(AVG(tc.duration_ms) AS INTEGER) AS avg_duration",
	}
	b.addHaving("failures > 0")
	if params.MinFailures > 1 {
		b.addHaving("failures >= ?", params.MinFailures)
	}
	b.orderBy = []string{"failures DESC", "failure_rate DESC"}
}

type slowTemplate struct{}

func (slowTemplate) description() string {
	return "Find tests with long execution times"
}

func (slowTemplate) defaults() templateDefaults {
	return templateDefaults{Limit: 50, MinDuration: 10000}
}

func (slowTemplate) validate(params models.QueryParams) error {
	if params.MinDuration < 0 {
		return fmt.Errorf("%w: minDuration must not be negative", models.ErrInvalidParams)
	}
	return nil
}

func (t slowTemplate) apply(b *selectBuilder, params models.QueryParams) {
	b.columns = []string{
		"tc.name",
		"CAST(COUNT(*) AS INTEGER) AS total_runs",
		"CAST(AVG(tc.duration_ms) AS INTEGER) AS avg_duration",
		"CAST(MAX(tc.duration_ms) AS INTEGER) AS max_duration",
		"CAST(MIN(tc.duration_ms) AS INTEGER) AS min_duration",
		countIf(string(models.StatusPassed), "passes"),
		countIf(string(models.StatusFailed), "failures"),
		"p.key AS project",
	}
	b.addWhere("tc.duration_ms > ?", orDefault(params.MinDuration, t.defaults().MinDuration))
	b.orderBy = []string{"avg_duration DESC"}
}
