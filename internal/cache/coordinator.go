// internal/cache/coordinator.go
// Cache-aside coordinator. Reads go through GetOrCompute: hit serves the
// cached aggregate, miss computes from the store and fills the cache.
// Writers call Invalidate with the exact keys their write made stale, and
// only after the write is durable. Cache failures never fail the request;
// the coordinator degrades to always-miss behavior.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/Kb28022004/toperNoteBackend/internal/metrics"
)

// Coordinator wraps a KV with serialization, per-operation timeouts,
// metrics, and degraded-mode behavior.
type Coordinator struct {
	kv      KV
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// NewCoordinator creates a Coordinator. opTimeout bounds each cache round
// trip so a slow cache cannot hold up request serving.
func NewCoordinator(kv KV, logger *slog.Logger, m *metrics.Metrics, opTimeout time.Duration) *Coordinator {
	if opTimeout <= 0 {
		opTimeout = 250 * time.Millisecond
	}
	return &Coordinator{kv: kv, logger: logger, metrics: m, timeout: opTimeout}
}

// GetOrCompute returns the cached value for key, or computes it, caches it,
// and returns it. Any cache error (including a backend outage) degrades to
// computing fresh; compute errors are returned to the caller unchanged.
func GetOrCompute[T any](ctx context.Context, c *Coordinator, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	family := Family(key)

	getCtx, cancel := context.WithTimeout(ctx, c.timeout)
	raw, err := c.kv.Get(getCtx, key)
	cancel()
	switch {
	case err == nil:
		var value T
		if uerr := json.Unmarshal(raw, &value); uerr == nil {
			c.metrics.CacheHitsTotal.WithLabelValues(family).Inc()
			return value, nil
		}
		// Undecodable entry, drop it and recompute.
		c.logger.Warn("cache entry undecodable, recomputing", "key", key)
		delCtx, cancel := context.WithTimeout(ctx, c.timeout)
		_ = c.kv.Del(delCtx, key)
		cancel()
	case errors.Is(err, ErrMiss):
		c.metrics.CacheMissesTotal.WithLabelValues(family).Inc()
	default:
		c.metrics.CacheDegradedTotal.WithLabelValues("get").Inc()
		c.logger.Warn("cache get failed, serving from store", "key", key, "error", err)
	}

	value, err := compute(ctx)
	if err != nil {
		return zero, err
	}

	if raw, merr := json.Marshal(value); merr == nil {
		setCtx, cancel := context.WithTimeout(ctx, c.timeout)
		if serr := c.kv.Set(setCtx, key, raw, ttl); serr != nil {
			c.metrics.CacheDegradedTotal.WithLabelValues("set").Inc()
			c.logger.Warn("cache set failed", "key", key, "error", serr)
		}
		cancel()
	}
	return value, nil
}

// Invalidate removes the given keys. It is best-effort: failures are logged
// and counted but never returned, because the durable write has already
// happened and stale entries age out by TTL.
func (c *Coordinator) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	delCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.kv.Del(delCtx, keys...); err != nil {
		c.metrics.CacheDegradedTotal.WithLabelValues("del").Inc()
		c.logger.Warn("cache invalidation failed, entries will expire by TTL",
			"keys", keys, "error", err)
		return
	}
	for _, key := range keys {
		c.metrics.CacheInvalidatedTotal.WithLabelValues(Family(key)).Inc()
	}
}

// Healthy reports whether the backing cache responds to a ping.
func (c *Coordinator) Healthy(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.kv.Ping(pingCtx) == nil
}
