package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/qapulse/qapulse/internal/models"
)

type countingExecutor struct {
	calls int
	rows  []models.Row
	err   error
}

func (c *countingExecutor) ExecuteQuery(ctx context.Context, query string, args ...any) ([]models.Row, error) {
	c.calls++
	return c.rows, c.err
}

func TestCachedExecutorServesRepeatQueriesFromCache(t *testing.T) {
	next := &countingExecutor{rows: []models.Row{{"name": "login", "failures": int64(3)}}}
	cacheStub := newStubCache()
	exec := NewCachedExecutor(next, cacheStub, time.Minute, nil)
	ctx := context.Background()

	first, err := exec.ExecuteQuery(ctx, "SELECT 1 WHERE x = ?", "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := exec.ExecuteQuery(ctx, "SELECT 1 WHERE x = ?", "a")
	if err != nil {
		t.Fatalf("unexpected cached error: %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("expected one upstream query, got %d", next.calls)
	}
	if len(second) != 1 || second[0]["name"] != first[0]["name"] {
		t.Fatalf("unexpected cached rows: %+v", second)
	}

	if _, err := exec.ExecuteQuery(ctx, "SELECT 1 WHERE x = ?", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("different args must not share a cache entry; calls=%d", next.calls)
	}
}

func TestCachedExecutorInvalidate(t *testing.T) {
	next := &countingExecutor{rows: []models.Row{}}
	exec := NewCachedExecutor(next, newStubCache(), time.Minute, nil)
	ctx := context.Background()

	_, _ = exec.ExecuteQuery(ctx, "SELECT 1")
	exec.Invalidate()
	_, _ = exec.ExecuteQuery(ctx, "SELECT 1")
	if next.calls != 2 {
		t.Fatalf("expected invalidation to force a fresh query, calls=%d", next.calls)
	}
}

func TestCachedExecutorDoesNotCacheErrors(t *testing.T) {
	boom := errors.New("disk I/O error")
	next := &countingExecutor{err: boom}
	cacheStub := newStubCache()
	exec := NewCachedExecutor(next, cacheStub, time.Minute, nil)

	if _, err := exec.ExecuteQuery(context.Background(), "SELECT 1"); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if cacheStub.sets != 0 {
		t.Fatalf("errors must not be cached")
	}
}

func TestCachedExecutorNilProviderPassesThrough(t *testing.T) {
	next := &countingExecutor{}
	exec := NewCachedExecutor(next, nil, time.Minute, nil)
	_, _ = exec.ExecuteQuery(context.Background(), "SELECT 1")
	_, _ = exec.ExecuteQuery(context.Background(), "SELECT 1")
	if next.calls != 2 {
		t.Fatalf("expected passthrough without cache, calls=%d", next.calls)
	}
}
