package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps items as plain Redis strings under a common key prefix.
type RedisStorage struct {
	RDB    *redis.Client
	Prefix string
}

// OpenRedis parses url (redis://...), pings the server and returns a storage using prefix.
func OpenRedis(ctx context.Context, url, prefix string) (*RedisStorage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("storage: parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("storage: ping redis: %w", err)
	}
	return &RedisStorage{RDB: rdb, Prefix: prefix}, nil
}

func (s *RedisStorage) key(k string) string { return s.Prefix + k }

// GetItem returns the value for key, or ErrNotFound.
func (s *RedisStorage) GetItem(ctx context.Context, key string) (string, error) {
	v, err := s.RDB.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// SetItem stores value under key with no expiry.
func (s *RedisStorage) SetItem(ctx context.Context, key, value string) error {
	return s.RDB.Set(ctx, s.key(key), value, 0).Err()
}

// RemoveItem deletes key.
func (s *RedisStorage) RemoveItem(ctx context.Context, key string) error {
	return s.RDB.Del(ctx, s.key(key)).Err()
}

// Close closes the Redis client.
func (s *RedisStorage) Close() error {
	if s == nil || s.RDB == nil {
		return nil
	}
	return s.RDB.Close()
}
