package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/YusufHabib317/chat-service/internal/config"
)

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// RedisMessageCache implements MessageCache on Redis.
type RedisMessageCache struct {
	client *redis.Client
	prefix string
}

// NewRedisMessageCache connects to Redis and verifies the connection.
func NewRedisMessageCache(cfg config.RedisConfig, prefix string) (*RedisMessageCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisMessageCache{client: client, prefix: prefix}, nil
}

// BuildKey derives the cache key for one history page.
func (c *RedisMessageCache) BuildKey(conversationID string, limit, offset int) string {
	return fmt.Sprintf("%s:%s:%d:%d", c.prefix, conversationID, limit, offset)
}

// Get fetches a cached page, or ErrCacheMiss.
func (c *RedisMessageCache) Get(ctx context.Context, key string) (*MessagePage, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var page MessagePage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return &page, nil
}

// Set stores a page with the given TTL.
func (c *RedisMessageCache) Set(ctx context.Context, key string, page *MessagePage, ttl time.Duration) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *RedisMessageCache) Close() error {
	return c.client.Close()
}
