package usecase

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"slices"
	"sync"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/broadcast"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/repository"
)

// lockStripes bounds the number of mutexes guarding games; games hashing to the same stripe
// share a lock.
const lockStripes = 64

type GameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, *entity.Snapshot, error)
	NewGame(ctx context.Context, playerID string) (*entity.Player, *entity.Snapshot, error)

	GetGame(ctx context.Context, gameID string) (*entity.Snapshot, error)
	Subscribe(ctx context.Context, gameID string) (<-chan *entity.Snapshot, context.CancelFunc, error)

	Play(ctx context.Context, gameID string, cell int) (*entity.Snapshot, error)
	JumpTo(ctx context.Context, gameID string, move int) (*entity.Snapshot, error)
	ChangeBoardSize(ctx context.Context, gameID string, size int) (*entity.Snapshot, error)
	Reset(ctx context.Context, gameID string) (*entity.Snapshot, error)
}

type playerService interface {
	CreatePlayer(ctx context.Context) (*entity.Player, error)
	GetPlayerByID(ctx context.Context, id string) (*entity.Player, error)
	UpdatePlayer(ctx context.Context, player *entity.Player) error
}

type gameService interface {
	CreateGame(ctx context.Context, player *entity.Player, boardSize int) (*entity.Game, error)
	GetGameByID(ctx context.Context, id string) (*entity.Game, error)
	UpdateGame(ctx context.Context, game *entity.Game) error
	DeleteGame(ctx context.Context, gameID string) error
}

type Options struct {
	DefaultBoardSize int
	BoardSizes       []int
}

type gameUseCase struct {
	logger *slog.Logger

	playerService playerService
	gameService   gameService
	broadcaster   broadcast.Broadcaster

	options Options
	locks   [lockStripes]sync.Mutex
}

func NewGameUseCase(
	logger *slog.Logger,
	playerService playerService,
	gameService gameService,
	broadcaster broadcast.Broadcaster,
	options Options,
) GameUseCase {
	return &gameUseCase{
		logger:        logger.With("component", "gameUseCase"),
		playerService: playerService,
		gameService:   gameService,
		broadcaster:   broadcaster,
		options:       options,
	}
}

// GetOrCreatePlayer returns the session and its game. An empty or expired session id gets a
// new session; a session whose game expired gets a new game. A returning session has its
// expiry renewed.
func (that *gameUseCase) GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, *entity.Snapshot, error) {
	player, err := that.getOrCreatePlayer(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}

	if player.GameID != "" {
		game, err := that.gameService.GetGameByID(ctx, player.GameID)
		if err == nil {
			if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
				return nil, nil, fmt.Errorf("could not renew player: %w", err)
			}

			return player, game.Snapshot(), nil
		}

		if !errors.Is(err, repository.ErrGameNotFound) {
			return nil, nil, fmt.Errorf("failed to get game of player: %w", err)
		}
	}

	game, err := that.gameService.CreateGame(ctx, player, that.options.DefaultBoardSize)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create game: %w", err)
	}

	if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
		return nil, nil, fmt.Errorf("could not attach game to player: %w", err)
	}

	that.logger.Info("game created", "playerID", player.ID, "gameID", game.ID())

	return player, game.Snapshot(), nil
}

func (that *gameUseCase) getOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error) {
	if playerID != "" {
		player, err := that.playerService.GetPlayerByID(ctx, playerID)
		if err == nil {
			return player, nil
		}

		if !errors.Is(err, repository.ErrPlayerNotFound) {
			return nil, fmt.Errorf("failed to get player by id: %w", err)
		}
	}

	player, err := that.playerService.CreatePlayer(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not create player: %w", err)
	}

	return player, nil
}

// NewGame replaces the player's game with a fresh one of the default size. Followers of the old
// game receive the new game's snapshot on the old topic before the old game is deleted.
func (that *gameUseCase) NewGame(ctx context.Context, playerID string) (*entity.Player, *entity.Snapshot, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	oldGameID := player.GameID

	game, err := that.gameService.CreateGame(ctx, player, that.options.DefaultBoardSize)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create game: %w", err)
	}

	if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
		return nil, nil, fmt.Errorf("could not attach game to player: %w", err)
	}

	snapshot := game.Snapshot()
	if oldGameID != "" {
		that.retire(ctx, oldGameID, snapshot)
	}

	that.logger.Info("game replaced", "playerID", player.ID, "oldGameID", oldGameID, "gameID", game.ID())

	return player, snapshot, nil
}

// retire points the followers of gameID at successor and deletes the game.
func (that *gameUseCase) retire(ctx context.Context, gameID string, successor *entity.Snapshot) {
	log := that.logger.With("method", "retire", "gameID", gameID)

	lock := that.lockFor(gameID)
	lock.Lock()
	defer lock.Unlock()

	if err := that.broadcaster.Publish(ctx, broadcast.Topic(gameID), successor); err != nil {
		log.Error("failed to announce the new game", "error", err)
	}

	if err := that.gameService.DeleteGame(ctx, gameID); err != nil && !errors.Is(err, repository.ErrGameNotFound) {
		log.Error("failed to delete game", "error", err)
	}
}

func (that *gameUseCase) GetGame(ctx context.Context, gameID string) (*entity.Snapshot, error) {
	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game.Snapshot(), nil
}

func (that *gameUseCase) Subscribe(ctx context.Context, gameID string) (<-chan *entity.Snapshot, context.CancelFunc, error) {
	snapshots, cancel, err := that.broadcaster.Subscribe(ctx, broadcast.Topic(gameID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe to game %s: %w", gameID, err)
	}

	return snapshots, cancel, nil
}

func (that *gameUseCase) Play(ctx context.Context, gameID string, cell int) (*entity.Snapshot, error) {
	return that.update(ctx, gameID, func(game *entity.Game) (bool, error) {
		return game.Play(cell)
	})
}

func (that *gameUseCase) JumpTo(ctx context.Context, gameID string, move int) (*entity.Snapshot, error) {
	return that.update(ctx, gameID, func(game *entity.Game) (bool, error) {
		if err := game.JumpTo(move); err != nil {
			return false, err
		}

		return true, nil
	})
}

func (that *gameUseCase) ChangeBoardSize(ctx context.Context, gameID string, size int) (*entity.Snapshot, error) {
	if !slices.Contains(that.options.BoardSizes, size) {
		return nil, fmt.Errorf("%w: %d", apperror.ErrUnsupportedBoardSize, size)
	}

	return that.update(ctx, gameID, func(game *entity.Game) (bool, error) {
		if err := game.ChangeBoardSize(size); err != nil {
			return false, err
		}

		return true, nil
	})
}

func (that *gameUseCase) Reset(ctx context.Context, gameID string) (*entity.Snapshot, error) {
	return that.update(ctx, gameID, func(game *entity.Game) (bool, error) {
		game.Reset()

		return true, nil
	})
}

// update loads the game, applies action and, when the game changed, saves it and publishes the
// new snapshot. Actions on the same game run one at a time.
func (that *gameUseCase) update(ctx context.Context, gameID string, action func(*entity.Game) (bool, error)) (*entity.Snapshot, error) {
	log := that.logger.With("method", "update", "gameID", gameID)

	lock := that.lockFor(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	changed, err := action(game)
	if err != nil {
		return nil, fmt.Errorf("invalid action: %w", err)
	}

	snapshot := game.Snapshot()
	if !changed {
		log.Debug("action ignored", "currentMove", game.CurrentMove())
		return snapshot, nil
	}

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	that.renewOwner(ctx, log, game)

	if err = that.broadcaster.Publish(ctx, broadcast.Topic(gameID), snapshot); err != nil {
		log.Error("failed to publish game update", "error", err)
	}

	log.Debug("game updated", "currentMove", game.CurrentMove(), "status", snapshot.Status)

	return snapshot, nil
}

// renewOwner saves the owner of game again, so a session that keeps playing outlives the TTL.
func (that *gameUseCase) renewOwner(ctx context.Context, log *slog.Logger, game *entity.Game) {
	if game.Owner() == "" {
		return
	}

	player, err := that.playerService.GetPlayerByID(ctx, game.Owner())
	switch {
	case errors.Is(err, repository.ErrPlayerNotFound):
		player = &entity.Player{ID: game.Owner(), GameID: game.ID()}
	case err != nil:
		log.Error("failed to get owner", "playerID", game.Owner(), "error", err)
		return
	case player.GameID != game.ID():
		return
	}

	if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
		log.Error("failed to renew owner", "playerID", player.ID, "error", err)
	}
}

func (that *gameUseCase) lockFor(gameID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(gameID))

	return &that.locks[h.Sum32()%lockStripes]
}
