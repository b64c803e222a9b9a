package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/qapulse/qapulse/internal/models"
)

var (
	seedProjects     = []string{"web-app", "api-service", "mobile-app", "data-pipeline"}
	seedSuites       = []string{"e2e", "integration", "smoke"}
	seedEnvironments = []string{"dev", "staging", "production"}
	seedBranches     = []string{"main", "develop", "feature/auth", "feature/payments"}
	seedBrowsers     = []string{"chromium", "firefox", "webkit"}
)

// seedCase describes how a synthetic test behaves across runs.
type seedCase struct {
	name       string
	passRate   float64
	durationMs int64
	errors     []string
}

var seedCatalog = []seedCase{
	{name: "login with valid credentials", passRate: 0.99, durationMs: 2500},
	{name: "logout clears session", passRate: 0.98, durationMs: 1200},
	{name: "search returns results", passRate: 0.6, durationMs: 4000, errors: []string{
		"TimeoutError: locator.click: Timeout 5000ms exceeded",
		"Error: element is not attached to the DOM",
	}},
	{name: "checkout with saved card", passRate: 0.55, durationMs: 8000, errors: []string{
		"net::ERR_CONNECTION_RESET at https://payments.local/api/charge",
		"expect(received).toBe(expected) // Object.is equality",
	}},
	{name: "profile avatar upload", passRate: 0.15, durationMs: 6000, errors: []string{
		"Error: unable to locate element [data-test=avatar-input]",
	}},
	{name: "export report as pdf", passRate: 0.95, durationMs: 24000, errors: []string{
		"Test timed out after 30000ms",
	}},
	{name: "bulk import csv", passRate: 0.9, durationMs: 42000, errors: []string{
		"AssertionError: expected 1000 rows, got 998",
	}},
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var (
		dbPath     string
		days       int
		runsPerDay int
		seed       uint64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate a database with synthetic test history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days <= 0 || runsPerDay <= 0 {
				return fmt.Errorf("--days and --runs-per-day must be positive")
			}
			if dbPath == "" {
				dbPath = opts.cfg.Database.Path
			}
			store, err := openStore(dbPath, opts.cfg.Database.ReadMaxOpen, opts.logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
			runs, cases, err := seedHistory(cmd.Context(), store, rng, time.Now().UTC(), days, runsPerDay)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d runs with %d test cases into %s\n", runs, cases, dbPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (defaults to database.path)")
	cmd.Flags().IntVar(&days, "days", 30, "Number of days of history to generate")
	cmd.Flags().IntVar(&runsPerDay, "runs-per-day", 4, "Runs generated per day")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed")
	return cmd
}

type runInserter interface {
	InsertRun(ctx context.Context, payload models.RunPayload) (models.IngestResult, error)
}

func seedHistory(ctx context.Context, store runInserter, rng *rand.Rand, now time.Time, days, runsPerDay int) (runs, cases int, err error) {
	for day := 0; day < days; day++ {
		date := now.AddDate(0, 0, day-days+1)
		for i := 0; i < runsPerDay; i++ {
			payload := seedRun(rng, date.Add(-time.Duration(i+1)*time.Hour))
			result, err := store.InsertRun(ctx, payload)
			if err != nil {
				return runs, cases, fmt.Errorf("insert seeded run: %w", err)
			}
			runs++
			cases += result.Totals.Total
		}
	}
	return runs, cases, nil
}

func seedRun(rng *rand.Rand, startedAt time.Time) models.RunPayload {
	browser := pick(rng, seedBrowsers)
	payload := models.RunPayload{
		ProjectKey: pick(rng, seedProjects),
		Run: models.RunInfo{
			Suite:     pick(rng, seedSuites),
			Env:       pick(rng, seedEnvironments),
			Branch:    pick(rng, seedBranches),
			Commit:    fmt.Sprintf("%07x", rng.Uint32()&0xfffffff),
			StartedAt: startedAt.Format(time.RFC3339),
		},
	}

	var total int64
	for _, tc := range seedCatalog {
		c := models.CasePayload{
			Name:       tc.name,
			Status:     models.StatusPassed,
			DurationMs: jitter(rng, tc.durationMs),
			Browser:    browser,
		}
		switch roll := rng.Float64(); {
		case roll < 0.02:
			c.Status = models.StatusSkipped
			c.DurationMs = 0
		case roll > tc.passRate && len(tc.errors) > 0:
			c.Status = models.StatusFailed
			c.ErrorMessage = pick(rng, tc.errors)
		}
		total += c.DurationMs
		payload.Cases = append(payload.Cases, c)
	}
	payload.Run.FinishedAt = startedAt.Add(time.Duration(total) * time.Millisecond).Format(time.RFC3339)
	return payload
}

func pick[T any](rng *rand.Rand, values []T) T {
	return values[rng.IntN(len(values))]
}

// jitter varies base by up to ±25%.
func jitter(rng *rand.Rand, base int64) int64 {
	if base <= 0 {
		return 0
	}
	spread := base / 4
	return base - spread + rng.Int64N(2*spread+1)
}
