package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{
		client: client,
	}, nil
}

var _ TileCache = (*RedisCache)(nil)

func (c *RedisCache) keyFor(k TileCacheKey) string {
	return fmt.Sprintf("tile:%s:%d:%d:%d", k.Source, k.Z, k.X, k.Y)
}

func (c *RedisCache) Get(ctx context.Context, k TileCacheKey) (TileCacheValue, bool, error) {
	start := time.Now()
	defer func() {
		metrics.RedisOperationDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())
		c.recordPoolStats()
	}()

	data, err := c.client.Get(ctx, c.keyFor(k)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		metrics.RedisErrors.WithLabelValues("get").Inc()
		return nil, false, fmt.Errorf("redis get error: %w", err)
	}

	return data, true, nil
}

// Set stores without expiry; SET replaces the value atomically.
func (c *RedisCache) Set(ctx context.Context, k TileCacheKey, v TileCacheValue) error {
	start := time.Now()
	defer func() {
		metrics.RedisOperationDuration.WithLabelValues("set").Observe(time.Since(start).Seconds())
		c.recordPoolStats()
	}()

	if err := c.client.Set(ctx, c.keyFor(k), []byte(v), 0).Err(); err != nil {
		metrics.RedisErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set error: %w", err)
	}

	return nil
}

func (c *RedisCache) recordPoolStats() {
	stats := c.client.PoolStats()
	metrics.RedisPoolStats.WithLabelValues("total_conns").Set(float64(stats.TotalConns))
	metrics.RedisPoolStats.WithLabelValues("idle_conns").Set(float64(stats.IdleConns))
	metrics.RedisPoolStats.WithLabelValues("stale_conns").Set(float64(stats.StaleConns))
	metrics.RedisPoolStats.WithLabelValues("hits").Set(float64(stats.Hits))
	metrics.RedisPoolStats.WithLabelValues("misses").Set(float64(stats.Misses))
	metrics.RedisPoolStats.WithLabelValues("timeouts").Set(float64(stats.Timeouts))
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
