package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/repository"
)

type gameUseCase interface {
	GetGame(ctx context.Context, gameID string) (*entity.Snapshot, error)
	Play(ctx context.Context, gameID string, cell int) (*entity.Snapshot, error)
	JumpTo(ctx context.Context, gameID string, move int) (*entity.Snapshot, error)
	ChangeBoardSize(ctx context.Context, gameID string, size int) (*entity.Snapshot, error)
	Reset(ctx context.Context, gameID string) (*entity.Snapshot, error)
}

type actionRequest struct {
	Cell *int `json:"cell"`
	Move *int `json:"move"`
	Size *int `json:"size"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var errBadRequest = errors.New("bad request")

type handlers struct {
	logger      *slog.Logger
	gameUseCase gameUseCase
}

// NewHandler routes the ping check and the game endpoints.
func NewHandler(logger *slog.Logger, gameUseCase gameUseCase) http.Handler {
	that := &handlers{
		logger:      logger.With("component", "rest"),
		gameUseCase: gameUseCase,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", pingHandler)
	mux.HandleFunc("GET /api/games/{id}", that.getGame)
	mux.HandleFunc("POST /api/games/{id}/play", that.play)
	mux.HandleFunc("POST /api/games/{id}/jump", that.jump)
	mux.HandleFunc("POST /api/games/{id}/resize", that.resize)
	mux.HandleFunc("POST /api/games/{id}/reset", that.reset)

	return mux
}

func (that *handlers) getGame(w http.ResponseWriter, r *http.Request) {
	snapshot, err := that.gameUseCase.GetGame(r.Context(), r.PathValue("id"))
	that.respond(w, "getGame", snapshot, err)
}

func (that *handlers) play(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAction(r, func(req *actionRequest) *int { return req.Cell }, "cell")
	if err != nil {
		that.respond(w, "play", nil, err)
		return
	}

	snapshot, err := that.gameUseCase.Play(r.Context(), r.PathValue("id"), *req.Cell)
	that.respond(w, "play", snapshot, err)
}

func (that *handlers) jump(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAction(r, func(req *actionRequest) *int { return req.Move }, "move")
	if err != nil {
		that.respond(w, "jump", nil, err)
		return
	}

	snapshot, err := that.gameUseCase.JumpTo(r.Context(), r.PathValue("id"), *req.Move)
	that.respond(w, "jump", snapshot, err)
}

func (that *handlers) resize(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAction(r, func(req *actionRequest) *int { return req.Size }, "size")
	if err != nil {
		that.respond(w, "resize", nil, err)
		return
	}

	snapshot, err := that.gameUseCase.ChangeBoardSize(r.Context(), r.PathValue("id"), *req.Size)
	that.respond(w, "resize", snapshot, err)
}

func (that *handlers) reset(w http.ResponseWriter, r *http.Request) {
	snapshot, err := that.gameUseCase.Reset(r.Context(), r.PathValue("id"))
	that.respond(w, "reset", snapshot, err)
}

func decodeAction(r *http.Request, field func(*actionRequest) *int, name string) (*actionRequest, error) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}

	if field(&req) == nil {
		return nil, fmt.Errorf("%w: missing %s", errBadRequest, name)
	}

	return &req, nil
}

func (that *handlers) respond(w http.ResponseWriter, method string, snapshot *entity.Snapshot, err error) {
	if err != nil {
		status := statusOf(err)
		if status == http.StatusInternalServerError {
			that.logger.Error("request failed", "method", method, "error", err)
		}

		writeJSON(w, status, errorResponse{Error: publicMessage(err, status)})
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, repository.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, entity.ErrInvalidCell),
		errors.Is(err, entity.ErrInvalidMove),
		errors.Is(err, entity.ErrInvalidBoardSize),
		errors.Is(err, apperror.ErrUnsupportedBoardSize):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		return http.StatusText(status)
	}

	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}
