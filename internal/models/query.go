package models

import (
	"errors"
	"fmt"
)

// AnalysisType selects which aggregate question is being asked about test history.
type AnalysisType string

const (
	AnalysisFlaky   AnalysisType = "flaky"
	AnalysisFailing AnalysisType = "failing"
	AnalysisSlow    AnalysisType = "slow"
)

// AnalysisTypes lists every supported analysis in presentation order.
var AnalysisTypes = []AnalysisType{AnalysisFlaky, AnalysisFailing, AnalysisSlow}

// MaxLimit caps the row limit accepted from structured callers.
const MaxLimit = 1000

var (
	// ErrInvalidParams marks QueryParams that fail validation.
	ErrInvalidParams = errors.New("invalid query params")
	// ErrEmptyQuestion is returned when a natural-language question is blank.
	ErrEmptyQuestion = errors.New("question is required")
)

// PassRateRange bounds the pass-rate percentage of a flaky test group.
type PassRateRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// TimeRange is a look-back window in whole days.
type TimeRange struct {
	Days int `json:"days"`
}

// QueryParams is the structured intent behind an analytics question.
// Zero-valued numeric fields mean "not set".
type QueryParams struct {
	AnalysisType  AnalysisType   `json:"analysisType"`
	PassRateRange *PassRateRange `json:"passRateRange,omitempty"`
	TimeRange     TimeRange      `json:"timeRange"`
	Projects      []string       `json:"projects,omitempty"`
	Environments  []string       `json:"environments,omitempty"`
	Browsers      []string       `json:"browsers,omitempty"`
	Limit         int            `json:"limit,omitempty"`
	MinRuns       int            `json:"minRuns,omitempty"`
	MinFailures   int            `json:"minFailures,omitempty"`
	MinDuration   int            `json:"minDuration,omitempty"`
}

// Known reports whether t is one of the supported analysis types.
func (t AnalysisType) Known() bool {
	switch t {
	case AnalysisFlaky, AnalysisFailing, AnalysisSlow:
		return true
	default:
		return false
	}
}

// Validate checks the fields every analysis reads. Fields that only one
// analysis uses are checked by that analysis when the query is compiled.
// It does not check the analysis type; the compiler reports unknown types
// with its own error.
func (p QueryParams) Validate() error {
	if p.TimeRange.Days <= 0 {
		return fmt.Errorf("%w: timeRange.days must be positive, got %d", ErrInvalidParams, p.TimeRange.Days)
	}
	if p.Limit < 0 || p.Limit > MaxLimit {
		return fmt.Errorf("%w: limit must be between 0 and %d, got %d", ErrInvalidParams, MaxLimit, p.Limit)
	}
	return nil
}

// Validate checks 0 <= Min <= Max <= 100.
func (r PassRateRange) Validate() error {
	if r.Min < 0 || r.Max > 100 || r.Min > r.Max {
		return fmt.Errorf("%w: passRateRange must satisfy 0 <= min <= max <= 100, got %d-%d", ErrInvalidParams, r.Min, r.Max)
	}
	return nil
}

// Normalize clamps both bounds into [0, 100] and swaps them when inverted.
func (r PassRateRange) Normalize() PassRateRange {
	r.Min = min(max(r.Min, 0), 100)
	r.Max = min(max(r.Max, 0), 100)
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	return r
}
