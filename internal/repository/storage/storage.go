package storage

import (
	"context"
)

// Storage keeps raw values under string keys. Every entry expires after the TTL the
// storage was created with; writing a key again restarts its TTL.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
