package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

const writeWait = 10 * time.Second

// client is one open connection. mu guards player and unsubscribe, which the read loop and the
// update forwarder both change.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	sessionID string

	mu          sync.Mutex
	player      *entity.Player
	unsubscribe context.CancelFunc
}

func newClient(conn *websocket.Conn, sessionID string) *client {
	return &client{
		conn:      conn,
		sessionID: sessionID,
	}
}

// currentPlayer returns a copy of the connected player, nil before connect.
func (that *client) currentPlayer() *entity.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.player == nil {
		return nil
	}

	player := *that.player

	return &player
}

func (that *client) send(action string, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err = that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.conn.WriteJSON(Message{Action: action, Payload: data}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// bind replaces the followed player and subscription. The caller holds mu.
func (that *client) bind(player *entity.Player, cancel context.CancelFunc) {
	if that.unsubscribe != nil {
		that.unsubscribe()
	}

	that.player = player
	that.unsubscribe = cancel
}

func (that *client) close() error {
	that.mu.Lock()
	if that.unsubscribe != nil {
		that.unsubscribe()
		that.unsubscribe = nil
	}
	that.mu.Unlock()

	return that.conn.Close()
}
