package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/artmirror-io/artmirror/internal/config"
	"github.com/artmirror-io/artmirror/internal/modules/model"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const projectionsKey = "artmirror:projections"

// ProjectionCache holds the read projection of the whole table for the
// Fetch operation. Every write path invalidates it; a miss falls through to
// the store. A nil cache is valid and always misses.
type ProjectionCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func New(cfg *config.Config, log *zap.Logger) (*ProjectionCache, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if cfg.Otel.Enabled {
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			return nil, fmt.Errorf("instrument redis: %w", err)
		}
	}

	return &ProjectionCache{
		rdb: rdb,
		ttl: time.Duration(cfg.Redis.FetchTTLSecs) * time.Second,
		log: log,
	}, nil
}

func (c *ProjectionCache) Get(ctx context.Context) ([]model.Projection, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, projectionsKey).Bytes()
	if err != nil {
		return nil, false
	}
	var projected []model.Projection
	if err := sonic.Unmarshal(raw, &projected); err != nil {
		c.log.Warn("drop undecodable projection cache entry", zap.Error(err))
		_ = c.rdb.Del(ctx, projectionsKey).Err()
		return nil, false
	}
	return projected, true
}

func (c *ProjectionCache) Set(ctx context.Context, projected []model.Projection) {
	if c == nil {
		return
	}
	raw, err := sonic.Marshal(projected)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, projectionsKey, raw, c.ttl).Err(); err != nil {
		c.log.Warn("projection cache set failed", zap.Error(err))
	}
}

func (c *ProjectionCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, projectionsKey).Err(); err != nil {
		c.log.Warn("projection cache invalidate failed", zap.Error(err))
	}
}

func (c *ProjectionCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
