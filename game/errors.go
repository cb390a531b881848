package game

import "errors"

var (
	// ErrMatchNotFound indicates the match id has no active session.
	ErrMatchNotFound = errors.New("match not found")

	// ErrInvalidMoveContext indicates a move against a non-active session or
	// out of turn. Surfaced to the acting client only; no state changed.
	ErrInvalidMoveContext = errors.New("invalid move context")

	// ErrIllegalMove indicates the rule oracle rejected the move. The session
	// is left untouched.
	ErrIllegalMove = errors.New("illegal move")
)
