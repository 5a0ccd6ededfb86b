package websocket

import (
	"encoding/json"
	"errors"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/repository"
)

const (
	actionConnect    = "connect"
	actionGameState  = "game:state"
	actionGameNew    = "game:new"
	actionGamePlay   = "game:play"
	actionGameJump   = "game:jump"
	actionGameResize = "game:resize"
	actionGameReset  = "game:reset"
	actionGameUpdate = "game:update"
	actionError      = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Player *entity.Player   `json:"player,omitempty"`
	Game   *entity.Snapshot `json:"game,omitempty"`
	Cell   *int             `json:"cell,omitempty"`
	Move   *int             `json:"move,omitempty"`
	Size   *int             `json:"size,omitempty"`
	Error  string           `json:"error,omitempty"`
}

var errMissingArgument = errors.New("missing argument")

// clientMessage is the text sent back for a failed action. Unexpected failures are not described.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, errMissingArgument),
		errors.Is(err, apperror.ErrPlayerIsRequired),
		errors.Is(err, apperror.ErrUnsupportedBoardSize),
		errors.Is(err, entity.ErrInvalidCell),
		errors.Is(err, entity.ErrInvalidMove),
		errors.Is(err, entity.ErrInvalidBoardSize):
		return err.Error()
	case errors.Is(err, repository.ErrGameNotFound):
		return "game not found"
	default:
		return "internal error"
	}
}
