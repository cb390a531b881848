package game

import "skillarena/models"

// MoveResult is the oracle's verdict on a legal move.
type MoveResult struct {
	NewState         any
	TurnShouldSwitch bool
}

// EndResult is the oracle's terminal-state check.
type EndResult struct {
	IsGameOver bool
	WinnerID   string
	IsDraw     bool
}

// Oracle is the per-game-type rule engine. The session manager is rules
// agnostic: board state is opaque to it and only ever interpreted by the
// oracle that produced it.
type Oracle interface {
	// ProcessMove validates and applies a move, returning the resulting
	// state. An error means the move is illegal and nothing changed.
	ProcessMove(state any, move any, actorID string, players [2]models.Participant) (*MoveResult, error)

	// CheckGameEnd reports whether the state is terminal and, if decisive,
	// which participant won.
	CheckGameEnd(state any, players [2]models.Participant) EndResult

	// MakeBotMove generates the next move for the bot seat, or nil when the
	// bot has no move to make.
	MakeBotMove(state any, botID string) any
}
