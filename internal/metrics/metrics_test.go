package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}
}

func TestObserveQueryNormalisesOutcome(t *testing.T) {
	before := testutil.ToFloat64(queriesTotal.WithLabelValues("flaky", OutcomeSuccess))
	ObserveQuery("flaky", 10*time.Millisecond, "weird")
	after := testutil.ToFloat64(queriesTotal.WithLabelValues("flaky", OutcomeSuccess))
	if after != before+1 {
		t.Fatalf("expected success counter to increase, got %v -> %v", before, after)
	}

	before = testutil.ToFloat64(queriesTotal.WithLabelValues("unknown", OutcomeInvalid))
	ObserveQuery("", -time.Second, OutcomeInvalid)
	after = testutil.ToFloat64(queriesTotal.WithLabelValues("unknown", OutcomeInvalid))
	if after != before+1 {
		t.Fatalf("expected invalid counter under unknown label")
	}
}

func TestObserveCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("hit"))
	ObserveCacheLookup(true)
	if got := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("hit")); got != before+1 {
		t.Fatalf("expected hit counter increment, got %v", got)
	}
}
