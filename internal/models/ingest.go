package models

import (
	"errors"
	"time"
)

// ErrInvalidPayload marks an ingestion body that fails validation.
var ErrInvalidPayload = errors.New("invalid results payload")

// CaseStatus is the outcome of a single test case execution.
type CaseStatus string

const (
	StatusPassed  CaseStatus = "passed"
	StatusFailed  CaseStatus = "failed"
	StatusSkipped CaseStatus = "skipped"
)

// Valid reports whether s is a known case status.
func (s CaseStatus) Valid() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// RunPayload is the ingestion body posted by CI test runners.
type RunPayload struct {
	ProjectKey string        `json:"projectKey"`
	Run        RunInfo       `json:"run"`
	Cases      []CasePayload `json:"cases"`
}

// RunInfo describes the run being reported.
type RunInfo struct {
	Suite       string   `json:"suite"`
	Env         string   `json:"env,omitempty"`
	Branch      string   `json:"branch,omitempty"`
	Commit      string   `json:"commit,omitempty"`
	CIBuildID   string   `json:"ciBuildId,omitempty"`
	StartedAt   string   `json:"startedAt"`
	FinishedAt  string   `json:"finishedAt,omitempty"`
	CoveragePct *float64 `json:"coveragePct,omitempty"`
}

// CasePayload is one test case result inside a run.
type CasePayload struct {
	Name         string     `json:"name"`
	Status       CaseStatus `json:"status"`
	DurationMs   int64      `json:"durationMs"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	Browser      string     `json:"browser,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
}

// RunTotals summarises case outcomes for a stored run.
type RunTotals struct {
	Pass  int `json:"pass"`
	Fail  int `json:"fail"`
	Skip  int `json:"skip"`
	Total int `json:"total"`
}

// IngestResult is returned after a run has been stored.
type IngestResult struct {
	RunID  string    `json:"runId"`
	Totals RunTotals `json:"totals"`
}

// FailureDetail is one failed execution of a test.
type FailureDetail struct {
	RunID        string    `json:"runId"`
	StartedAt    time.Time `json:"startedAt"`
	Env          string    `json:"env"`
	Branch       string    `json:"branch"`
	CommitHash   string    `json:"commitHash"`
	ErrorMessage string    `json:"errorMessage"`
	Browser      string    `json:"browser"`
	DurationMs   int64     `json:"durationMs"`
	Project      string    `json:"project"`
}

// FailureSignature is a coarse category of failure message.
type FailureSignature string

const (
	SignatureTimeout   FailureSignature = "TIMEOUT"
	SignatureSelector  FailureSignature = "SELECTOR"
	SignatureNetwork   FailureSignature = "NETWORK"
	SignatureDOMDetach FailureSignature = "DOM_DETACH"
	SignatureAssertion FailureSignature = "ASSERTION"
	SignatureUnknown   FailureSignature = "UNKNOWN"
)

// SignatureSummary aggregates failures sharing a signature.
type SignatureSummary struct {
	Signature FailureSignature `json:"signature"`
	Count     int              `json:"count"`
	Share     float64          `json:"share"`
	LastSeen  time.Time        `json:"lastSeen"`
	Sample    string           `json:"sample"`
}

// FailureHistory is the failure drill-down for one test.
type FailureHistory struct {
	TestName   string             `json:"testName"`
	Failures   []FailureDetail    `json:"failures"`
	Signatures []SignatureSummary `json:"signatures"`
}
