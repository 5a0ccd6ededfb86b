package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
)

type RedisStorage struct {
	Connection *redis.Client
	ttl        time.Duration
}

// NewRedisStorage connects to Redis and checks the connection with a ping.
func NewRedisStorage(ctx context.Context, addr string, ttl time.Duration) (*RedisStorage, error) {
	conn := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if _, err := conn.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStorageWithClient(conn, ttl), nil
}

func NewRedisStorageWithClient(conn *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{Connection: conn, ttl: ttl}
}

func (that *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := that.Connection.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: key %s", apperror.ErrNotFound, key)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return value, nil
}

func (that *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := that.Connection.Set(ctx, key, value, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}

	return nil
}

func (that *RedisStorage) Delete(ctx context.Context, key string) error {
	deleted, err := that.Connection.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	if deleted == 0 {
		return fmt.Errorf("%w: key %s", apperror.ErrNotFound, key)
	}

	return nil
}

func (that *RedisStorage) Close() error {
	return that.Connection.Close()
}
