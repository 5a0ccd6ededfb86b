package apperror

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrUnsupportedBoardSize = errors.New("unsupported board size")
	ErrPlayerIsRequired     = errors.New("player is required")
)
