package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/qapulse/qapulse/internal/models"
)

// Asker answers a natural-language question.
type Asker interface {
	Ask(ctx context.Context, question string) (models.Answer, error)
}

// QuestionSource lists the questions to pre-compute.
type QuestionSource interface {
	List() []models.Suggestion
}

// Warmer re-runs the suggested questions on a cron schedule so the answer cache stays hot.
type Warmer struct {
	cron     *cron.Cron
	schedule string
	asker    Asker
	source   QuestionSource
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewWarmer creates a Warmer. Schedules use the standard five-field cron syntax or descriptors such as "@every 5m".
func NewWarmer(schedule string, asker Asker, source QuestionSource, logger *slog.Logger) *Warmer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Warmer{
		cron:     cron.New(),
		schedule: schedule,
		asker:    asker,
		source:   source,
		timeout:  30 * time.Second,
		logger:   logger,
	}
}

// Start registers the warm job and starts the cron scheduler.
func (w *Warmer) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc(w.schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, w.timeout)
		defer cancel()
		w.Warm(runCtx)
	})
	if err != nil {
		return fmt.Errorf("invalid warmer schedule %q: %w", w.schedule, err)
	}
	w.cron.Start()
	w.logger.Info("cache warmer started", slog.String("schedule", w.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (w *Warmer) Stop() {
	<-w.cron.Stop().Done()
	w.logger.Info("cache warmer stopped")
}

// Warm asks every suggested question once and returns how many succeeded and failed.
// Overlapping invocations are skipped.
func (w *Warmer) Warm(ctx context.Context) (warmed, failed int) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.logger.Debug("cache warm already running, skipping")
		return 0, 0
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	start := time.Now()
	for _, s := range w.source.List() {
		if ctx.Err() != nil {
			break
		}
		if _, err := w.asker.Ask(ctx, s.Text); err != nil {
			failed++
			w.logger.Warn("cache warm question failed",
				slog.String("question", s.Text),
				slog.Any("error", err),
			)
			continue
		}
		warmed++
	}

	w.logger.Info("cache warm finished",
		slog.Int("warmed", warmed),
		slog.Int("failed", failed),
		slog.Duration("duration", time.Since(start)),
	)
	return warmed, failed
}
