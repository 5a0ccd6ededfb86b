package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Storage    string `yaml:"storage" env:"STORAGE" env-default:"memory"`
	Redis      Redis  `yaml:"redis"`
	Game       Game   `yaml:"game"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Game struct {
	// TTL is how long an untouched session and its game are kept.
	TTL              time.Duration `yaml:"ttl" env:"GAME_TTL" env-default:"24h"`
	DefaultBoardSize int           `yaml:"default-board-size" env:"GAME_DEFAULT_BOARD_SIZE" env-default:"3"`
	BoardSizes       []int         `yaml:"board-sizes" env:"GAME_BOARD_SIZES" env-default:"3,4,10"`
	CacheSize        int           `yaml:"cache-size" env:"GAME_CACHE_SIZE" env-default:"10000"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func (that *Config) validate() error {
	switch that.Storage {
	case StorageMemory, StorageRedis:
	default:
		return fmt.Errorf("unknown storage %q", that.Storage)
	}

	if len(that.Game.BoardSizes) == 0 {
		return errors.New("board sizes must not be empty")
	}

	for _, size := range that.Game.BoardSizes {
		if size < 1 || size > entity.MaxBoardSize {
			return fmt.Errorf("board sizes must be within 1..%d, got %d", entity.MaxBoardSize, size)
		}
	}

	if !slices.Contains(that.Game.BoardSizes, that.Game.DefaultBoardSize) {
		return fmt.Errorf("default board size %d is not among board sizes %v", that.Game.DefaultBoardSize, that.Game.BoardSizes)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
