package patterns

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/qapulse/qapulse/internal/models"
)

// signatureRule maps an error message shape to a failure signature.
type signatureRule struct {
	signature models.FailureSignature
	pattern   *regexp.Regexp
}

// Rules are evaluated in order; the first match wins.
var signatureRules = []signatureRule{
	{models.SignatureDOMDetach, regexp.MustCompile(`(?i)detached from (the )?dom|not attached to the (page|dom)|stale element`)},
	{models.SignatureNetwork, regexp.MustCompile(`(?i)net::err_|econnrefused|econnreset|enotfound|socket hang up|fetch failed|network error|status (502|503|504)`)},
	{models.SignatureTimeout, regexp.MustCompile(`(?i)timeout|timed out|time limit exceeded`)},
	{models.SignatureSelector, regexp.MustCompile(`(?i)selector|locator|unable to locate|no such element|element not (found|visible)`)},
	{models.SignatureAssertion, regexp.MustCompile(`(?i)assert|expect(ed)?\b|to(be|equal|have)\w*`)},
}

const sampleLength = 240

// Classify assigns a failure signature to a single error message.
func Classify(message string) models.FailureSignature {
	message = strings.TrimSpace(message)
	if message == "" {
		return models.SignatureUnknown
	}
	for _, rule := range signatureRules {
		if rule.pattern.MatchString(message) {
			return rule.signature
		}
	}
	return models.SignatureUnknown
}

// Miner groups failed executions into recurring failure signatures.
type Miner struct {
	logger *slog.Logger
}

// NewMiner constructs a Miner.
func NewMiner(logger *slog.Logger) *Miner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Miner{logger: logger}
}

// Mine classifies failures and returns per-signature aggregates, most frequent first.
func (m *Miner) Mine(failures []models.FailureDetail) []models.SignatureSummary {
	if len(failures) == 0 {
		return nil
	}

	stats := make(map[models.FailureSignature]*signatureAggregate)
	for _, f := range failures {
		sig := Classify(f.ErrorMessage)
		agg, ok := stats[sig]
		if !ok {
			agg = &signatureAggregate{}
			stats[sig] = agg
		}
		agg.count++
		newest := agg.count == 1 || f.StartedAt.After(agg.lastSeen)
		if newest {
			agg.lastSeen = f.StartedAt
		}
		if msg := strings.TrimSpace(f.ErrorMessage); msg != "" && (newest || agg.sample == "") {
			agg.sample = truncate(msg, sampleLength)
		}
	}

	total := float64(len(failures))
	summaries := make([]models.SignatureSummary, 0, len(stats))
	for sig, agg := range stats {
		summaries = append(summaries, models.SignatureSummary{
			Signature: sig,
			Count:     agg.count,
			Share:     float64(agg.count) / total,
			LastSeen:  agg.lastSeen,
			Sample:    agg.sample,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Count != summaries[j].Count {
			return summaries[i].Count > summaries[j].Count
		}
		return summaries[i].Signature < summaries[j].Signature
	})

	m.logger.Debug("mined failure signatures",
		slog.Int("failures", len(failures)),
		slog.Int("signatures", len(summaries)),
	)
	return summaries
}

type signatureAggregate struct {
	count    int
	lastSeen time.Time
	sample   string
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
