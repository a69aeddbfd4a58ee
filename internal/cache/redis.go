package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"poetica/internal/config"
	"poetica/internal/logging"
)

const keyPrefix = "poetica:"

var (
	// ErrCacheDisabled is returned when cache operations are attempted but cache is disabled
	ErrCacheDisabled = fmt.Errorf("cache is disabled")
)

// Cache wraps Redis client. A nil *Cache is valid and reports ErrCacheDisabled.
type Cache struct {
	client *redis.Client
}

// New creates a new Redis cache client
func New(cfg *config.RedisConfig) (*Cache, error) {
	if !cfg.Enabled {
		logging.GetLogger().Info("Redis cache disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetLogger().Info("Redis connection established")

	return &Cache{client: client}, nil
}

func namespaceKey(key string) string {
	return keyPrefix + key
}

// IncrWindow increments the counter for key inside a fixed window and
// returns the new count plus the time left before the window resets.
func (c *Cache) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if c == nil || c.client == nil {
		return 0, 0, ErrCacheDisabled
	}
	k := namespaceKey(key)

	count, err := c.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("incr %s: %w", k, err)
	}
	if count == 1 {
		if err := c.client.PExpire(ctx, k, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("expire %s: %w", k, err)
		}
		return count, window, nil
	}

	ttl, err := c.client.PTTL(ctx, k).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("ttl %s: %w", k, err)
	}
	if ttl < 0 {
		// key lost its expiry; restart the window
		if err := c.client.PExpire(ctx, k, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("expire %s: %w", k, err)
		}
		ttl = window
	}
	return count, ttl, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Health checks Redis health
func (c *Cache) Health(ctx context.Context) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	return c.client.Ping(ctx).Err()
}
