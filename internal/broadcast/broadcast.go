// Package broadcast delivers game snapshots to everyone watching a game.
//
// Every state change of a game is published on the game's topic; each open
// connection of the session subscribes to that topic and redraws on receipt.
package broadcast

import (
	"context"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

// subscriberBuffer is the number of snapshots a slow subscriber may fall behind by.
const subscriberBuffer = 16

type Broadcaster interface {
	Publish(ctx context.Context, topic string, snapshot *entity.Snapshot) error
	// Subscribe returns a channel of snapshots published on topic. The channel is closed after
	// the returned cancel func is called or ctx is done.
	Subscribe(ctx context.Context, topic string) (<-chan *entity.Snapshot, context.CancelFunc, error)
	Close() error
}

func Topic(gameID string) string {
	return "game-updates:" + gameID
}
