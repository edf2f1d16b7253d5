package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisPrefix namespaces all response cache keys in Redis.
	DefaultRedisPrefix = "gtahub:content:"

	// DefaultRedisTTL bounds the lifetime of entries whose kind has no
	// freshness window, so a shared Redis does not accumulate
	// process-lifetime entries forever.
	DefaultRedisTTL = 24 * time.Hour
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g. "redis://localhost:6379").
	URL string

	// Prefix namespaces cache keys (defaults to "gtahub:content:").
	Prefix string

	// MaxTTL caps the Redis expiry for kinds without a freshness window
	// (defaults to 24 hours).
	MaxTTL time.Duration
}

// RedisStore implements Store using Redis, for running several site
// instances behind a load balancer against one shared response cache.
// Unlike the in-memory store it lets Redis expire entries at their TTL;
// an expired entry simply reads as a miss, which is equivalent to the
// stale-is-a-miss contract.
type RedisStore struct {
	client *redis.Client
	prefix string
	maxTTL time.Duration
}

// NewRedisStore creates a Redis-backed response cache.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	maxTTL := cfg.MaxTTL
	if maxTTL == 0 {
		maxTTL = DefaultRedisTTL
	}

	slog.Info("redis response cache connected", "prefix", prefix, "max_ttl", maxTTL)

	return &RedisStore{
		client: client,
		prefix: prefix,
		maxTTL: maxTTL,
	}, nil
}

// Get retrieves the entry for key from Redis, nil if absent or expired.
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entry from redis: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse entry from redis: %w", err)
	}

	return &entry, nil
}

// Set stores value under key. Kinds without a freshness window get the
// configured max TTL as their Redis expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := Entry{Value: value, StoredAt: time.Now()}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	if ttl <= 0 || ttl > s.maxTTL {
		ttl = s.maxTTL
	}

	if err := s.client.Set(ctx, s.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set entry in redis: %w", err)
	}

	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
