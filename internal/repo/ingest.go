package repo

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/qapulse/qapulse/internal/models"
	"github.com/qapulse/qapulse/internal/utils"
)

// preparedRun is a validated ingestion payload with derived fields resolved.
type preparedRun struct {
	projectKey string
	info       models.RunInfo
	startedAt  time.Time
	finishedAt *time.Time
	durationMs int64
	totals     models.RunTotals
	cases      []preparedCase
}

type preparedCase struct {
	name         string
	status       models.CaseStatus
	durationMs   int64
	errorMessage *string
	browser      *string
	tagsJSON     *string
}

// prepareRun validates payload and derives totals and run duration.
func prepareRun(payload models.RunPayload) (preparedRun, error) {
	invalid := func(format string, args ...any) (preparedRun, error) {
		return preparedRun{}, fmt.Errorf("%w: %s", models.ErrInvalidPayload, fmt.Sprintf(format, args...))
	}

	key := strings.TrimSpace(payload.ProjectKey)
	if key == "" {
		return invalid("projectKey is required")
	}
	if strings.TrimSpace(payload.Run.Suite) == "" {
		return invalid("run.suite is required")
	}
	started, err := utils.ParseTimestamp(payload.Run.StartedAt)
	if err != nil {
		return invalid("run.startedAt: %v", err)
	}

	run := preparedRun{projectKey: key, info: payload.Run, startedAt: started.UTC()}
	// Environments and browsers are matched case-sensitively by the analytics queries.
	run.info.Env = strings.ToLower(strings.TrimSpace(payload.Run.Env))
	if payload.Run.FinishedAt != "" {
		finished, err := utils.ParseTimestamp(payload.Run.FinishedAt)
		if err != nil {
			return invalid("run.finishedAt: %v", err)
		}
		finished = finished.UTC()
		run.finishedAt = &finished
	}

	var sum int64
	run.cases = make([]preparedCase, 0, len(payload.Cases))
	for i, c := range payload.Cases {
		if strings.TrimSpace(c.Name) == "" {
			return invalid("cases[%d].name is required", i)
		}
		if !c.Status.Valid() {
			return invalid("cases[%d].status %q is not one of passed, failed, skipped", i, c.Status)
		}
		if c.DurationMs < 0 {
			return invalid("cases[%d].durationMs must not be negative", i)
		}
		switch c.Status {
		case models.StatusPassed:
			run.totals.Pass++
		case models.StatusFailed:
			run.totals.Fail++
		default:
			run.totals.Skip++
		}
		sum += c.DurationMs

		pc := preparedCase{
			name:         c.Name,
			status:       c.Status,
			durationMs:   c.DurationMs,
			errorMessage: optionalString(c.ErrorMessage),
			browser:      optionalString(strings.ToLower(c.Browser)),
		}
		if len(c.Tags) > 0 {
			data, err := json.Marshal(c.Tags)
			if err != nil {
				return invalid("cases[%d].tags: %v", i, err)
			}
			tags := string(data)
			pc.tagsJSON = &tags
		}
		run.cases = append(run.cases, pc)
	}
	run.totals.Total = len(payload.Cases)

	if run.finishedAt != nil {
		run.durationMs = max(0, run.finishedAt.Sub(run.startedAt).Milliseconds())
	} else {
		run.durationMs = sum
	}
	return run, nil
}

func optionalString(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
