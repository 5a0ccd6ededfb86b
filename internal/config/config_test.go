package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Fills defaults", func(t *testing.T) {
		// Given: a config file that only sets the log level
		path := writeConfig(t, "log-level: debug\n")

		// When: loading it
		conf, err := Load(path)

		// Then: everything else has its default
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "9091", conf.SocketPort)
		assert.Equal(t, StorageMemory, conf.Storage)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, 24*time.Hour, conf.Game.TTL)
		assert.Equal(t, 3, conf.Game.DefaultBoardSize)
		assert.Equal(t, []int{3, 4, 10}, conf.Game.BoardSizes)
	})

	t.Run("Reads nested values", func(t *testing.T) {
		path := writeConfig(t, `
storage: redis
redis:
  host: redis.local
  port: "6380"
game:
  ttl: 30m
  board-sizes: [3, 4]
`)

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, StorageRedis, conf.Storage)
		assert.Equal(t, "redis.local:6380", conf.Redis.GetRedisAddr())
		assert.Equal(t, 30*time.Minute, conf.Game.TTL)
		assert.Equal(t, []int{3, 4}, conf.Game.BoardSizes)
	})

	t.Run("Rejects an unknown storage", func(t *testing.T) {
		path := writeConfig(t, "storage: etcd\n")

		_, err := Load(path)

		assert.ErrorContains(t, err, "unknown storage")
	})

	t.Run("Rejects a default board size outside board sizes", func(t *testing.T) {
		path := writeConfig(t, `
game:
  default-board-size: 5
  board-sizes: [3, 4]
`)

		_, err := Load(path)

		assert.ErrorContains(t, err, "default board size 5")
	})

	t.Run("Rejects a board size above the maximum", func(t *testing.T) {
		path := writeConfig(t, `
game:
  board-sizes: [3, 1000]
`)

		_, err := Load(path)

		assert.ErrorContains(t, err, "board sizes must be within")
	})

	t.Run("Missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))

		assert.Error(t, err)
	})
}

func TestConfig_validate(t *testing.T) {
	t.Run("Empty board sizes are rejected", func(t *testing.T) {
		conf := &Config{
			Storage: StorageMemory,
			Game:    Game{DefaultBoardSize: 3},
		}

		assert.ErrorContains(t, conf.validate(), "board sizes must not be empty")
	})
}
