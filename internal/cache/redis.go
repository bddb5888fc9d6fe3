package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weblithic/site/internal/models"
)

// Redis is a FeedCache backed by redis. Invalidation bumps a generation
// counter that is part of every key, so stale listings are never read and
// simply expire.
type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis wraps rdb. ttl bounds how long a listing may be served.
func NewRedis(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Redis{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *Redis) generation(ctx context.Context) (Generation, error) {
	gen, err := c.rdb.Get(ctx, feedGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return NoGeneration, err
	}
	return Generation(gen), nil
}

// Get implements FeedCache.
func (c *Redis) Get(ctx context.Context, filter models.PostFilter) ([]models.Post, Generation, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("cache: read generation failed", slog.String("error", err.Error()))
		return nil, NoGeneration, false
	}
	raw, err := c.rdb.Get(ctx, feedListKey(gen, string(filter.Status), filter.Category)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache: get failed", slog.String("error", err.Error()))
		}
		return nil, gen, false
	}
	var posts []models.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		c.logger.Warn("cache: decode failed", slog.String("error", err.Error()))
		return nil, gen, false
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, gen, true
}

// Set implements FeedCache. posts is stored under gen, so a listing read
// before an Invalidate lands under a generation Get no longer reads.
func (c *Redis) Set(ctx context.Context, gen Generation, filter models.PostFilter, posts []models.Post) {
	if gen == NoGeneration {
		return
	}
	raw, err := json.Marshal(posts)
	if err != nil {
		return
	}
	key := feedListKey(gen, string(filter.Status), filter.Category)
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache: set failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Invalidate implements FeedCache.
func (c *Redis) Invalidate(ctx context.Context) {
	if err := c.rdb.Incr(ctx, feedGenerationKey).Err(); err != nil {
		c.logger.Warn("cache: invalidate failed", slog.String("error", err.Error()))
	}
}

var (
	_ FeedCache = Nop{}
	_ FeedCache = (*Redis)(nil)
)
