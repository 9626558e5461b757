// Package cache keeps recent analysis results in Redis so identical
// requests skip the backend.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aiuml/api/internal/analysis"
	"github.com/aiuml/api/internal/metrics"
	"github.com/aiuml/api/internal/prompt"
)

const keyPrefix = "aiuml:analysis:"

// Analyses caches analysis.Result values. A nil *Analyses is a valid,
// always-missing cache.
type Analyses struct {
	rdb     redis.Cmdable
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewAnalyses(rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger, m *metrics.Metrics) *Analyses {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyses{rdb: rdb, ttl: ttl, logger: logger, metrics: m}
}

// Key hashes the resolved dialect, notation and requirements text.
func Key(requirements string, dialect prompt.Dialect, notation prompt.Notation) string {
	h := sha256.New()
	h.Write([]byte(notation))
	h.Write([]byte{0})
	h.Write([]byte(dialect))
	h.Write([]byte{0})
	h.Write([]byte(requirements))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached result. Redis errors count as a miss.
func (c *Analyses) Get(ctx context.Context, key string) (analysis.Result, bool) {
	if c == nil {
		return analysis.Result{}, false
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("analysis cache read failed", zap.String("stage", "cache"), zap.Error(err))
			c.metrics.CacheLookup("error")
		} else {
			c.metrics.CacheLookup("miss")
		}
		return analysis.Result{}, false
	}

	var res analysis.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		c.logger.Warn("analysis cache entry corrupt", zap.String("stage", "cache"), zap.Error(err))
		c.metrics.CacheLookup("error")
		return analysis.Result{}, false
	}
	c.metrics.CacheLookup("hit")
	return res, true
}

// Put stores res unless the diagram is a degraded placeholder or the
// patterns are the fallback list.
func (c *Analyses) Put(ctx context.Context, key string, res analysis.Result) {
	if c == nil || res.Diagram.Degraded || res.PatternsFallback {
		return
	}

	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("analysis cache write failed", zap.String("stage", "cache"), zap.Error(err))
	}
}
