package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

const (
	StatusOngoing = "ongoing"
	StatusWon     = "won"
	StatusDraw    = "draw"
)

var (
	ErrInvalidCell      = errors.New("invalid cell index")
	ErrInvalidMove      = errors.New("invalid move index")
	ErrInvalidBoardSize = errors.New("invalid board size")
	ErrCorruptedGame    = errors.New("corrupted game state")
)

// MaxBoardSize bounds N so a board never grows past MaxBoardSize² cells.
const MaxBoardSize = 100

// Game owns the board size, the history of boards and the index of the board on display.
// Boards stored in the history are never modified; every read hands out a copy.
type Game struct {
	id          string
	owner       string
	size        int
	history     []Board
	currentMove int
}

func NewGame(id string, size int) (*Game, error) {
	if !validBoardSize(size) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBoardSize, size)
	}

	return &Game{
		id:      id,
		size:    size,
		history: []Board{NewBoard(size)},
	}, nil
}

func (that *Game) ID() string {
	return that.id
}

// Owner is the id of the player the game belongs to, empty when unassigned.
func (that *Game) Owner() string {
	return that.owner
}

func (that *Game) SetOwner(playerID string) {
	that.owner = playerID
}

func (that *Game) BoardSize() int {
	return that.size
}

func (that *Game) CurrentMove() int {
	return that.currentMove
}

func (that *Game) HistoryLen() int {
	return len(that.history)
}

func (that *Game) CurrentBoard() Board {
	return that.history[that.currentMove].Clone()
}

// BoardAt returns a copy of the board after the given move.
func (that *Game) BoardAt(move int) (Board, error) {
	if move < 0 || move >= len(that.history) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMove, move)
	}

	return that.history[move].Clone(), nil
}

// NextMark is X on even moves and O on odd ones.
func (that *Game) NextMark() Mark {
	if that.currentMove%2 == 0 {
		return PlayerX
	}

	return PlayerO
}

func (that *Game) Winner() (Mark, bool) {
	return DetectWinner(that.history[that.currentMove], that.size)
}

func (that *Game) Status() string {
	if _, ok := that.Winner(); ok {
		return StatusWon
	}

	if that.history[that.currentMove].IsFull() {
		return StatusDraw
	}

	return StatusOngoing
}

// Play puts the next mark on the cell. A move on an occupied cell or on a won board is ignored
// and reported as not applied. Moves after the current one are discarded before appending.
func (that *Game) Play(cell int) (bool, error) {
	current := that.history[that.currentMove]

	if cell < 0 || cell >= len(current) {
		return false, fmt.Errorf("%w: %d", ErrInvalidCell, cell)
	}

	if _, won := DetectWinner(current, that.size); won || current[cell] != EmptyCell {
		return false, nil
	}

	next := current.Clone()
	next[cell] = that.NextMark()

	that.history = append(that.history[:that.currentMove+1:that.currentMove+1], next)
	that.currentMove = len(that.history) - 1

	return true, nil
}

func (that *Game) JumpTo(move int) error {
	if move < 0 || move >= len(that.history) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidMove, move, len(that.history))
	}

	that.currentMove = move

	return nil
}

// ChangeBoardSize starts over on an empty board of the new size.
func (that *Game) ChangeBoardSize(size int) error {
	if !validBoardSize(size) {
		return fmt.Errorf("%w: %d", ErrInvalidBoardSize, size)
	}

	that.size = size
	that.Reset()

	return nil
}

func (that *Game) Reset() {
	that.history = []Board{NewBoard(that.size)}
	that.currentMove = 0
}

// Move is an entry of the history list shown to the player.
type Move struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	Current     bool   `json:"current,omitempty"`
}

func (that *Game) Moves() []Move {
	moves := make([]Move, 0, len(that.history))
	for i := range that.history {
		description := "Go to game start"
		if i > 0 {
			description = "Go to move #" + strconv.Itoa(i)
		}

		moves = append(moves, Move{
			Index:       i,
			Description: description,
			Current:     i == that.currentMove,
		})
	}

	return moves
}

// Snapshot is everything a client needs to draw the game.
type Snapshot struct {
	ID          string `json:"id"`
	BoardSize   int    `json:"board_size"`
	Board       Board  `json:"board"`
	CurrentMove int    `json:"current_move"`
	Winner      Mark   `json:"winner"`
	NextPlayer  Mark   `json:"next_player,omitempty"`
	Status      string `json:"status"`
	StatusText  string `json:"status_text"`
	Moves       []Move `json:"moves"`
}

func (that *Game) Snapshot() *Snapshot {
	snapshot := &Snapshot{
		ID:          that.id,
		BoardSize:   that.size,
		Board:       that.CurrentBoard(),
		CurrentMove: that.currentMove,
		Status:      that.Status(),
		Moves:       that.Moves(),
	}

	switch snapshot.Status {
	case StatusWon:
		snapshot.Winner, _ = that.Winner()
		snapshot.StatusText = "Winner: " + string(snapshot.Winner)
	case StatusDraw:
		snapshot.StatusText = "Draw"
	default:
		snapshot.NextPlayer = that.NextMark()
		snapshot.StatusText = "Next player: " + string(snapshot.NextPlayer)
	}

	return snapshot
}

type gameJSON struct {
	ID          string  `json:"id"`
	Owner       string  `json:"owner,omitempty"`
	BoardSize   int     `json:"board_size"`
	History     []Board `json:"history"`
	CurrentMove int     `json:"current_move"`
}

func (that *Game) MarshalJSON() ([]byte, error) {
	return json.Marshal(gameJSON{
		ID:          that.id,
		BoardSize:   that.size,
		History:     that.history,
		CurrentMove: that.currentMove,
	})
}

// UnmarshalJSON restores a stored game and refuses histories that no sequence of moves produces.
func (that *Game) UnmarshalJSON(data []byte) error {
	var stored gameJSON
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to unmarshal game: %w", err)
	}

	if err := validateHistory(stored); err != nil {
		return err
	}

	that.id = stored.ID
	that.owner = stored.Owner
	that.size = stored.BoardSize
	that.history = stored.History
	that.currentMove = stored.CurrentMove

	return nil
}

func validateHistory(stored gameJSON) error {
	if !validBoardSize(stored.BoardSize) {
		return fmt.Errorf("%w: board size %d", ErrCorruptedGame, stored.BoardSize)
	}

	if len(stored.History) == 0 {
		return fmt.Errorf("%w: empty history", ErrCorruptedGame)
	}

	if stored.CurrentMove < 0 || stored.CurrentMove >= len(stored.History) {
		return fmt.Errorf("%w: current move %d", ErrCorruptedGame, stored.CurrentMove)
	}

	cells := stored.BoardSize * stored.BoardSize
	for i, board := range stored.History {
		if len(board) != cells {
			return fmt.Errorf("%w: board %d has %d cells", ErrCorruptedGame, i, len(board))
		}

		if i == 0 {
			if !isEmptyBoard(board) {
				return fmt.Errorf("%w: first board is not empty", ErrCorruptedGame)
			}
			continue
		}

		if _, won := DetectWinner(stored.History[i-1], stored.BoardSize); won {
			return fmt.Errorf("%w: board %d follows a won board", ErrCorruptedGame, i)
		}

		if !isSingleMove(stored.History[i-1], board, expectedMark(i)) {
			return fmt.Errorf("%w: board %d is not one move after board %d", ErrCorruptedGame, i, i-1)
		}
	}

	return nil
}

func validBoardSize(size int) bool {
	return size >= 1 && size <= MaxBoardSize
}

func isEmptyBoard(board Board) bool {
	for _, cell := range board {
		if cell != EmptyCell {
			return false
		}
	}

	return true
}

// isSingleMove reports whether next is prev with one empty cell set to mark.
func isSingleMove(prev, next Board, mark Mark) bool {
	changed := 0
	for i := range next {
		if prev[i] == next[i] {
			continue
		}

		if prev[i] != EmptyCell || next[i] != mark {
			return false
		}
		changed++
	}

	return changed == 1
}

// expectedMark is the mark placed by the move that produced board i.
func expectedMark(i int) Mark {
	if i%2 == 1 {
		return PlayerX
	}

	return PlayerO
}
