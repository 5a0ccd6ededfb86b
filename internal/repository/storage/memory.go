package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
)

// MemoryStorage keeps at most size entries in process memory, evicting the least recently used.
type MemoryStorage struct {
	cache *expirable.LRU[string, []byte]
}

func NewMemoryStorage(size int, ttl time.Duration) *MemoryStorage {
	return &MemoryStorage{
		cache: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

func (that *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := that.cache.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: key %s", apperror.ErrNotFound, key)
	}

	return value, nil
}

func (that *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	that.cache.Add(key, stored)

	return nil
}

func (that *MemoryStorage) Delete(_ context.Context, key string) error {
	if !that.cache.Remove(key) {
		return fmt.Errorf("%w: key %s", apperror.ErrNotFound, key)
	}

	return nil
}

func (that *MemoryStorage) Close() error {
	that.cache.Purge()

	return nil
}
