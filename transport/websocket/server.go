package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

const (
	sessionCookie   = "user_session"
	shutdownTimeout = 5 * time.Second
)

type gameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, *entity.Snapshot, error)
	NewGame(ctx context.Context, playerID string) (*entity.Player, *entity.Snapshot, error)

	GetGame(ctx context.Context, gameID string) (*entity.Snapshot, error)
	Subscribe(ctx context.Context, gameID string) (<-chan *entity.Snapshot, context.CancelFunc, error)

	Play(ctx context.Context, gameID string, cell int) (*entity.Snapshot, error)
	JumpTo(ctx context.Context, gameID string, move int) (*entity.Snapshot, error)
	ChangeBoardSize(ctx context.Context, gameID string, size int) (*entity.Snapshot, error)
	Reset(ctx context.Context, gameID string) (*entity.Snapshot, error)
}

type handlerFunc func(ctx context.Context, c *client, payload *Payload) error

type Server struct {
	logger      *slog.Logger
	gameUseCase gameUseCase
	upgrader    websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, gameUseCase gameUseCase) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		gameUseCase: gameUseCase,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionConnect] = server.handleConnect
	server.handlers[actionGameState] = server.handleGameState
	server.handlers[actionGameNew] = server.handleNewGame
	server.handlers[actionGamePlay] = server.handlePlay
	server.handlers[actionGameJump] = server.handleJump
	server.handlers[actionGameResize] = server.handleResize
	server.handlers[actionGameReset] = server.handleReset

	return server
}

// Handler serves the WebSocket endpoint on /ws. Connections live until ctx is done.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Handler(ctx),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx) //nolint: contextcheck // the parent context is already done
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveWebSocket")

	var sessionID string
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		sessionID = cookie.Value
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := newClient(conn, sessionID)
	defer func() {
		if err = c.close(); err != nil {
			log.Debug("failed to close connection", "error", err)
		}
	}()

	// unblock the read loop on shutdown
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	log.Info("WebSocket connection established")

	if err = that.handleMessages(ctx, c); err != nil &&
		!websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
		ctx.Err() == nil {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, c *client) error {
	log := that.logger.With("method", "handleMessages")

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.sendError(c, actionError, "malformed message")
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.sendError(c, message.Action, "unknown action")
			continue
		}

		var payload Payload
		if len(message.Payload) > 0 {
			if err = json.Unmarshal(message.Payload, &payload); err != nil {
				log.Warn("failed to unmarshal payload", "action", message.Action, "error", err)
				that.sendError(c, message.Action, "malformed payload")
				continue
			}
		}

		if err = handler(ctx, c, &payload); err != nil {
			if msg := clientMessage(err); msg == "internal error" {
				log.Error("error processing message", "action", message.Action, "error", err)
			}

			that.sendError(c, message.Action, clientMessage(err))
		}
	}
}

func (that *Server) sendError(c *client, action, message string) {
	if err := c.send(action, Payload{Error: message}); err != nil {
		that.logger.Debug("failed to send error response", "error", err)
	}
}
