package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/attendance-api/internal/config"
	"github.com/attendance-api/internal/models"
	"github.com/redis/go-redis/v9"
)

// DirectoryKey is the Redis key holding the directory snapshot
const DirectoryKey = "attendance:barcode_directory"

// NewRedisClient connects to Redis. It returns nil without error when no URL
// is configured.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisStore shares the directory snapshot between API instances
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store writing to DirectoryKey
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: DirectoryKey}
}

// Get loads the snapshot; an absent key is ErrMiss
func (s *RedisStore) Get(ctx context.Context) ([]models.EventTypeBarcode, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get directory: %w", err)
	}

	var entries []models.EventTypeBarcode
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode directory snapshot: %w", err)
	}
	return entries, nil
}

// Set stores the snapshot with the given expiry
func (s *RedisStore) Set(ctx context.Context, entries []models.EventTypeBarcode, ttl time.Duration) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode directory snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set directory: %w", err)
	}
	return nil
}
