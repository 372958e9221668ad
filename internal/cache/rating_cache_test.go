package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// A nil redis client must behave like a cache that always misses, so the
// server can run without redis at all.
func TestRatingCache_NilClient(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewRatingCache(nil, time.Minute, logger)
	ctx := context.Background()

	rating, hit := c.Get(ctx, 7)
	assert.Nil(t, rating)
	assert.False(t, hit)

	v := 7.5
	c.Set(ctx, 7, &v)
	c.Invalidate(ctx, 7)

	_, hit = c.Get(ctx, 7)
	assert.False(t, hit)
}

func TestRatingCache_NilReceiver(t *testing.T) {
	var c *RatingCache
	ctx := context.Background()

	_, hit := c.Get(ctx, 7)
	assert.False(t, hit)

	c.Set(ctx, 7, nil)
	c.Invalidate(ctx, 7)
}
