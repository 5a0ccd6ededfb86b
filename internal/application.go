package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/broadcast"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/config"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/repository"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/service"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-timetravel/transport/rest"
	"github.com/rocketscienceinc/tictactoe-timetravel/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis host is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	gameStorage, broadcaster, err := newBackends(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = broadcaster.Close(); err != nil {
			log.Error("could not close broadcaster", "error", err)
		}

		if err = gameStorage.Close(); err != nil {
			log.Error("could not close storage", "error", err)
		}
	}()

	log.Info("Storage ready", "storage", conf.Storage, "ttl", conf.Game.TTL)

	playerRepo := repository.NewPlayerRepository(gameStorage)
	gameRepo := repository.NewGameRepository(gameStorage)
	gameUseCase := usecase.NewGameUseCase(
		logger,
		service.NewPlayerService(playerRepo),
		service.NewGameService(gameRepo),
		broadcaster,
		usecase.Options{
			DefaultBoardSize: conf.Game.DefaultBoardSize,
			BoardSizes:       conf.Game.BoardSizes,
		},
	)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, rest.NewHandler(logger, gameUseCase)); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameUseCase)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// newBackends picks the storage and the matching broadcaster. With Redis both share one client,
// so several server instances see the same games and updates.
func newBackends(ctx context.Context, conf *config.Config) (storage.Storage, broadcast.Broadcaster, error) {
	if conf.Storage == config.StorageMemory {
		return storage.NewMemoryStorage(conf.Game.CacheSize, conf.Game.TTL), broadcast.NewMemory(), nil
	}

	if conf.Redis.Host == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr(), conf.Game.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	return redisStorage, broadcast.NewRedis(redisStorage.Connection), nil
}
