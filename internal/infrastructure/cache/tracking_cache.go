// Package cache holds the Redis-backed cache for public tracking views.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"package-tracking/internal/logger"
)

const keyPrefix = "tracking:view:"

// TrackingCache caches serialized tracking views. A nil client turns every
// call into a miss so the service keeps working without Redis.
type TrackingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTrackingCache connects to url and returns a cache that silently degrades
// when Redis is unreachable.
func NewTrackingCache(ctx context.Context, url string, ttl time.Duration) (*TrackingCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unreachable, tracking cache disabled", zap.Error(err))
		_ = client.Close()
		return &TrackingCache{ttl: ttl}, nil
	}

	logger.Info("Redis tracking cache enabled", zap.Duration("ttl", ttl))
	return &TrackingCache{client: client, ttl: ttl}, nil
}

// NewTrackingCacheWithClient wraps an existing client.
func NewTrackingCacheWithClient(client *redis.Client, ttl time.Duration) *TrackingCache {
	return &TrackingCache{client: client, ttl: ttl}
}

func cacheKey(trackingID string) string {
	return keyPrefix + trackingID
}

func (c *TrackingCache) Get(ctx context.Context, trackingID string) ([]byte, bool) {
	if c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, cacheKey(trackingID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logger.Debug("Tracking cache read failed", zap.String("tracking_id", trackingID), zap.Error(err))
		return nil, false
	}
	return data, true
}

func (c *TrackingCache) Set(ctx context.Context, trackingID string, payload []byte) {
	if c.client == nil || c.ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, cacheKey(trackingID), payload, c.ttl).Err(); err != nil {
		logger.Debug("Tracking cache write failed", zap.String("tracking_id", trackingID), zap.Error(err))
	}
}

func (c *TrackingCache) Delete(ctx context.Context, trackingID string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKey(trackingID)).Err(); err != nil {
		logger.Warn("Tracking cache invalidation failed", zap.String("tracking_id", trackingID), zap.Error(err))
	}
}

// Available reports whether a Redis connection backs the cache.
func (c *TrackingCache) Available() bool {
	return c.client != nil
}

func (c *TrackingCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
