package repo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/qapulse/qapulse/internal/cache"
	"github.com/qapulse/qapulse/internal/metrics"
	"github.com/qapulse/qapulse/internal/models"
)

const answerCachePrefix = "qapulse:answers:"

// Executor runs a parameterized read query.
type Executor interface {
	ExecuteQuery(ctx context.Context, query string, args ...any) ([]models.Row, error)
}

// CachedExecutor memoises query results keyed by SQL text and arguments.
// Invalidate bumps a generation counter so earlier entries are never read again.
type CachedExecutor struct {
	next       Executor
	cache      cache.Provider
	ttl        time.Duration
	logger     *slog.Logger
	generation atomic.Uint64
}

// NewCachedExecutor wraps next with cache. A nil cache disables caching.
func NewCachedExecutor(next Executor, provider cache.Provider, ttl time.Duration, logger *slog.Logger) *CachedExecutor {
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedExecutor{next: next, cache: provider, ttl: ttl, logger: logger}
}

// ExecuteQuery serves rows from cache when present, otherwise from the wrapped executor.
func (c *CachedExecutor) ExecuteQuery(ctx context.Context, query string, args ...any) ([]models.Row, error) {
	key, err := c.key(query, args)
	if err != nil {
		return c.next.ExecuteQuery(ctx, query, args...)
	}

	if data, err := c.cache.Get(ctx, key); err == nil {
		var rows []models.Row
		if err := json.Unmarshal(data, &rows); err == nil {
			metrics.ObserveCacheLookup(true)
			return rows, nil
		}
		c.logger.Warn("answer cache decode failed", slog.String("key", key))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn("answer cache get failed", slog.Any("error", err))
	}
	metrics.ObserveCacheLookup(false)

	rows, err := c.next.ExecuteQuery(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(rows); err == nil {
		if err := c.cache.Set(ctx, key, payload, c.ttl); err != nil {
			c.logger.Warn("answer cache set failed", slog.Any("error", err))
		}
	}
	return rows, nil
}

// Invalidate makes every previously cached result unreachable.
func (c *CachedExecutor) Invalidate() {
	c.generation.Add(1)
}

func (c *CachedExecutor) key(query string, args []any) (string, error) {
	encodedArgs, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write(encodedArgs)
	gen := strconv.FormatUint(c.generation.Load(), 10)
	return answerCachePrefix + gen + ":" + hex.EncodeToString(h.Sum(nil)), nil
}
