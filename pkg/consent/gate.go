package consent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sentinela-health/platform/pkg/common/logger"
)

// RecordSource is the read side the gate needs; *Repository satisfies it.
type RecordSource interface {
	Latest(ctx context.Context, subjectID uint, purpose string) (*Record, error)
}

// Gate answers whether a subject has granted a processing purpose. It fails
// closed: no record, a revoked record, or a lookup failure all mean "not
// granted". An optional Redis cache with a short TTL keeps hot lookups off
// Postgres; the TTL bounds how long a revocation can be observed stale.
type Gate struct {
	source   RecordSource
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewGate(source RecordSource, cache *redis.Client, cacheTTL time.Duration) *Gate {
	return &Gate{source: source, cache: cache, cacheTTL: cacheTTL}
}

func (g *Gate) IsGranted(ctx context.Context, subjectID uint, purpose string) (bool, error) {
	key := cacheKey(subjectID, purpose)

	if g.cache != nil {
		cached, err := g.cache.Get(ctx, key).Result()
		if err == nil {
			return cached == "1", nil
		}
		if !errors.Is(err, redis.Nil) {
			logger.Log.WithError(err).WithField("subject_id", subjectID).Warn("consent cache read failed")
		}
	}

	rec, err := g.source.Latest(ctx, subjectID, purpose)
	if errors.Is(err, ErrNoRecord) {
		g.cacheSet(ctx, key, false)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consent lookup: %w", err)
	}

	g.cacheSet(ctx, key, rec.Granted)
	return rec.Granted, nil
}

func (g *Gate) cacheSet(ctx context.Context, key string, granted bool) {
	if g.cache == nil || g.cacheTTL <= 0 {
		return
	}
	value := "0"
	if granted {
		value = "1"
	}
	if err := g.cache.Set(ctx, key, value, g.cacheTTL).Err(); err != nil {
		logger.Log.WithError(err).Warn("consent cache write failed")
	}
}

func cacheKey(subjectID uint, purpose string) string {
	return fmt.Sprintf("consent:%d:%s", subjectID, purpose)
}
