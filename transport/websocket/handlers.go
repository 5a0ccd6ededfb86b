package websocket

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

func (that *Server) handleConnect(ctx context.Context, c *client, payload *Payload) error {
	log := that.logger.With("method", "handleConnect")

	playerID := c.sessionID
	if payload.Player != nil && payload.Player.ID != "" {
		playerID = payload.Player.ID
	}

	player, snapshot, err := that.gameUseCase.GetOrCreatePlayer(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to get or create player: %w", err)
	}

	if err = that.attach(ctx, c, player); err != nil {
		return err
	}

	log.Info("player connected", "playerID", player.ID, "gameID", player.GameID)

	return c.send(actionConnect, Payload{Player: player, Game: snapshot})
}

// handleNewGame starts the session over on a fresh game. The session's other connections move to
// it when the old game announces its successor.
func (that *Server) handleNewGame(ctx context.Context, c *client, _ *Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player == nil {
		return apperror.ErrPlayerIsRequired
	}

	player, snapshot, err := that.gameUseCase.NewGame(ctx, c.player.ID)
	if err != nil {
		return fmt.Errorf("failed to start a new game: %w", err)
	}

	if err = that.attachLocked(ctx, c, player); err != nil {
		return err
	}

	return c.send(actionGameNew, Payload{Player: player, Game: snapshot})
}

func (that *Server) handleGameState(ctx context.Context, c *client, _ *Payload) error {
	return that.withGame(c, actionGameState, func(gameID string) (*entity.Snapshot, error) {
		return that.gameUseCase.GetGame(ctx, gameID)
	})
}

func (that *Server) handlePlay(ctx context.Context, c *client, payload *Payload) error {
	if payload.Cell == nil {
		return fmt.Errorf("%w: cell", errMissingArgument)
	}

	return that.withGame(c, actionGamePlay, func(gameID string) (*entity.Snapshot, error) {
		return that.gameUseCase.Play(ctx, gameID, *payload.Cell)
	})
}

func (that *Server) handleJump(ctx context.Context, c *client, payload *Payload) error {
	if payload.Move == nil {
		return fmt.Errorf("%w: move", errMissingArgument)
	}

	return that.withGame(c, actionGameJump, func(gameID string) (*entity.Snapshot, error) {
		return that.gameUseCase.JumpTo(ctx, gameID, *payload.Move)
	})
}

func (that *Server) handleResize(ctx context.Context, c *client, payload *Payload) error {
	if payload.Size == nil {
		return fmt.Errorf("%w: size", errMissingArgument)
	}

	return that.withGame(c, actionGameResize, func(gameID string) (*entity.Snapshot, error) {
		return that.gameUseCase.ChangeBoardSize(ctx, gameID, *payload.Size)
	})
}

func (that *Server) handleReset(ctx context.Context, c *client, _ *Payload) error {
	return that.withGame(c, actionGameReset, func(gameID string) (*entity.Snapshot, error) {
		return that.gameUseCase.Reset(ctx, gameID)
	})
}

// attach binds the connection to the player and follows updates of the player's game.
func (that *Server) attach(ctx context.Context, c *client, player *entity.Player) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return that.attachLocked(ctx, c, player)
}

func (that *Server) attachLocked(ctx context.Context, c *client, player *entity.Player) error {
	snapshots, cancel, err := that.gameUseCase.Subscribe(ctx, player.GameID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to game updates: %w", err)
	}

	c.bind(player, cancel)

	go that.forward(ctx, c, player.GameID, snapshots)

	return nil
}

// forward relays updates of gameID to the connection until the subscription ends. A snapshot of
// another game is the successor of gameID; the connection moves to it.
func (that *Server) forward(ctx context.Context, c *client, gameID string, snapshots <-chan *entity.Snapshot) {
	log := that.logger.With("method", "forward", "gameID", gameID)

	for snapshot := range snapshots {
		if snapshot.ID != gameID {
			if err := that.moveTo(ctx, c, gameID, snapshot); err != nil {
				log.Error("failed to move to the new game", "newGameID", snapshot.ID, "error", err)
			}
			continue
		}

		if err := c.send(actionGameUpdate, Payload{Game: snapshot}); err != nil {
			log.Debug("failed to forward game update", "error", err)
		}
	}
}

// moveTo follows successor when the connection still plays from.
func (that *Server) moveTo(ctx context.Context, c *client, from string, successor *entity.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player == nil || c.player.GameID != from {
		return nil
	}

	player := &entity.Player{ID: c.player.ID, GameID: successor.ID}
	if err := that.attachLocked(ctx, c, player); err != nil {
		return err
	}

	return c.send(actionGameUpdate, Payload{Player: player, Game: successor})
}

// withGame runs action on the connected player's game and replies with the resulting snapshot.
func (that *Server) withGame(c *client, action string, run func(gameID string) (*entity.Snapshot, error)) error {
	player := c.currentPlayer()
	if player == nil {
		return apperror.ErrPlayerIsRequired
	}

	snapshot, err := run(player.GameID)
	if err != nil {
		return err
	}

	return c.send(action, Payload{Game: snapshot})
}
