package entity

import "strings"

// WinLength is the number of equal marks in a row that wins, independent of the board size.
const WinLength = 3

type Mark string

const (
	PlayerX Mark = "X"
	PlayerO Mark = "O"

	EmptyCell Mark = ""
)

// Board is a row-major sequence of n*n cells.
type Board []Mark

func NewBoard(size int) Board {
	return make(Board, size*size)
}

func (that Board) Clone() Board {
	board := make(Board, len(that))
	copy(board, that)

	return board
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// String renders the board as rows of X, O and dots.
func (that Board) String() string {
	size := boardSide(len(that))
	if size == 0 {
		return ""
	}

	var sb strings.Builder
	for r := 0; r < size; r++ {
		if r > 0 {
			sb.WriteByte('\n')
		}
		for c := 0; c < size; c++ {
			switch cell := that[r*size+c]; cell {
			case EmptyCell:
				sb.WriteByte('.')
			default:
				sb.WriteString(string(cell))
			}
		}
	}

	return sb.String()
}

func boardSide(cells int) int {
	size := 0
	for size*size < cells {
		size++
	}

	if size*size != cells {
		return 0
	}

	return size
}

// direction is a step along a line: → ↓ ↘ ↙.
type direction struct {
	dr, dc int
}

var directions = [...]direction{
	{dr: 0, dc: 1},
	{dr: 1, dc: 0},
	{dr: 1, dc: 1},
	{dr: 1, dc: -1},
}

// DetectWinner scans the board in row-major order and returns the mark of the first run of
// WinLength equal marks found, checking → ↓ ↘ ↙ from each occupied cell.
func DetectWinner(board Board, size int) (Mark, bool) {
	if size < WinLength || len(board) != size*size {
		return EmptyCell, false
	}

	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			mark := board[r*size+c]
			if mark == EmptyCell {
				continue
			}

			for _, d := range directions {
				if !runFits(r, c, d, size) {
					continue
				}

				if runMatches(board, size, r, c, d, mark) {
					return mark, true
				}
			}
		}
	}

	return EmptyCell, false
}

// runFits reports whether WinLength cells starting at (r, c) along d stay on the board.
func runFits(r, c int, d direction, size int) bool {
	last := WinLength - 1

	endR, endC := r+d.dr*last, c+d.dc*last

	return endR >= 0 && endR < size && endC >= 0 && endC < size
}

func runMatches(board Board, size, r, c int, d direction, mark Mark) bool {
	for k := 1; k < WinLength; k++ {
		if board[(r+d.dr*k)*size+(c+d.dc*k)] != mark {
			return false
		}
	}

	return true
}
