package patterns

import (
	"strings"
	"testing"
	"time"

	"github.com/qapulse/qapulse/internal/models"
)

func TestClassify(t *testing.T) {
	cases := map[string]models.FailureSignature{
		"locator.click: Timeout 30000ms exceeded.":                  models.SignatureTimeout,
		"Test timed out after 5000ms":                               models.SignatureTimeout,
		"Error: page.goto: net::ERR_CONNECTION_REFUSED at http://x": models.SignatureNetwork,
		"connect ECONNREFUSED 127.0.0.1:5432":                       models.SignatureNetwork,
		"Element is not attached to the DOM":                        models.SignatureDOMDetach,
		"StaleElementReferenceException: stale element reference":   models.SignatureDOMDetach,
		"Unable to locate element: {\"method\":\"css selector\"}":   models.SignatureSelector,
		"Error: expect(received).toBe(expected)":                    models.SignatureAssertion,
		"AssertionError: expected 3 to equal 4":                     models.SignatureAssertion,
		"segmentation fault":                                        models.SignatureUnknown,
		"   ":                                                       models.SignatureUnknown,
	}
	for msg, want := range cases {
		if got := Classify(msg); got != want {
			t.Fatalf("Classify(%q) = %s, want %s", msg, got, want)
		}
	}
}

func TestMinerMinesSignatures(t *testing.T) {
	miner := NewMiner(nil)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	failures := []models.FailureDetail{
		{RunID: "r1", StartedAt: now.Add(-3 * time.Hour), ErrorMessage: "Timeout 30000ms exceeded"},
		{RunID: "r2", StartedAt: now, ErrorMessage: "Test timed out after 10s"},
		{RunID: "r3", StartedAt: now.Add(-time.Hour), ErrorMessage: "expected 200 to equal 500"},
		{RunID: "r4", StartedAt: now.Add(-2 * time.Hour), ErrorMessage: "Timeout waiting for response"},
	}

	summaries := miner.Mine(failures)
	if len(summaries) != 2 {
		t.Fatalf("expected 2 signatures, got %d", len(summaries))
	}
	top := summaries[0]
	if top.Signature != models.SignatureTimeout || top.Count != 3 {
		t.Fatalf("unexpected top signature: %+v", top)
	}
	if top.Share != 0.75 {
		t.Fatalf("expected share 0.75, got %v", top.Share)
	}
	if !top.LastSeen.Equal(now) {
		t.Fatalf("expected last seen %v, got %v", now, top.LastSeen)
	}
	if top.Sample != "Test timed out after 10s" {
		t.Fatalf("expected newest message as sample, got %q", top.Sample)
	}
	if summaries[1].Signature != models.SignatureAssertion {
		t.Fatalf("expected assertion second, got %s", summaries[1].Signature)
	}
}

func TestMinerEmpty(t *testing.T) {
	if got := NewMiner(nil).Mine(nil); got != nil {
		t.Fatalf("expected nil summaries, got %+v", got)
	}
}

func TestMinerTruncatesSample(t *testing.T) {
	long := "AssertionError: " + strings.Repeat("x", 400)
	summaries := NewMiner(nil).Mine([]models.FailureDetail{{ErrorMessage: long}})
	if len([]rune(summaries[0].Sample)) != sampleLength+1 {
		t.Fatalf("expected truncated sample, got %d runes", len([]rune(summaries[0].Sample)))
	}
}
