// Package cache is a redis read-through cache for per-title average ratings.
// The store's AVG query is always the source of truth; a cache failure only
// costs a recomputation, so every method degrades to a no-op on error or
// when no redis client is configured.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// noRating marks a cached "title has no reviews" result, so the absence of
// reviews is cacheable too.
const noRating = "none"

type RatingCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRatingCache wraps rdb; a nil client yields a cache that always misses.
func NewRatingCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *RatingCache {
	return &RatingCache{rdb: rdb, ttl: ttl, logger: logger}
}

func ratingKey(titleID int64) string {
	return fmt.Sprintf("rating:title:%d", titleID)
}

// Get returns (rating, true) on a hit. The rating itself may be nil: a
// cached no-reviews marker is still a hit.
func (c *RatingCache) Get(ctx context.Context, titleID int64) (*float64, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}

	val, err := c.rdb.Get(ctx, ratingKey(titleID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("rating cache get failed", "title_id", titleID, "error", err)
		}
		return nil, false
	}
	if val == noRating {
		return nil, true
	}
	rating, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil, false
	}
	return &rating, true
}

func (c *RatingCache) Set(ctx context.Context, titleID int64, rating *float64) {
	if c == nil || c.rdb == nil {
		return
	}

	val := noRating
	if rating != nil {
		val = strconv.FormatFloat(*rating, 'f', -1, 64)
	}
	if err := c.rdb.Set(ctx, ratingKey(titleID), val, c.ttl).Err(); err != nil {
		c.logger.Warn("rating cache set failed", "title_id", titleID, "error", err)
	}
}

// Invalidate drops the cached rating; called on every review write and on
// title deletion.
func (c *RatingCache) Invalidate(ctx context.Context, titleID int64) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, ratingKey(titleID)).Err(); err != nil {
		c.logger.Warn("rating cache invalidate failed", "title_id", titleID, "error", err)
	}
}
