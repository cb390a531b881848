package models

import (
	"fmt"
	"strings"
)

// GameType identifies which rule oracle drives a match.
type GameType string

const (
	GameTypeChess      GameType = "chess"
	GameTypeCheckers   GameType = "checkers"
	GameTypeBackgammon GameType = "backgammon"
	GameTypeTicTacToe  GameType = "tic-tac-toe"
)

// BotIDPrefix is the reserved identifier namespace for synthetic bot
// participants. It is consulted once, at session creation; the financial
// path only ever looks at Participant.IsBot.
const BotIDPrefix = "bot-"

// Participant is one side of a match: either a real user or a synthetic bot.
type Participant struct {
	ID       string
	Username string
	SocketID string
	IsBot    bool
}

// NewParticipant builds a participant, deriving the bot tag from the
// identifier namespace.
func NewParticipant(id, username, socketID string) Participant {
	return Participant{
		ID:       id,
		Username: username,
		SocketID: socketID,
		IsBot:    strings.HasPrefix(id, BotIDPrefix),
	}
}

// MatchStatus is the lifecycle state of an in-memory match session.
type MatchStatus string

const (
	MatchStatusActive    MatchStatus = "active"
	MatchStatusSettling  MatchStatus = "settling"
	MatchStatusSettled   MatchStatus = "settled"
	MatchStatusAbandoned MatchStatus = "abandoned"
)

// OutcomeKind distinguishes a decisive result from a draw.
type OutcomeKind string

const (
	OutcomeWin  OutcomeKind = "win"
	OutcomeDraw OutcomeKind = "draw"
)

// SettlementOutcome is the terminal result of one finished match, produced
// exactly once per session and handed to the settlement engine.
type SettlementOutcome struct {
	MatchID   string
	GameType  GameType
	Kind      OutcomeKind
	Winner    *Participant
	Loser     *Participant
	Players   [2]Participant
	BetAmount int64
}

// RealParticipants returns the non-bot sides of the outcome.
func (o *SettlementOutcome) RealParticipants() []Participant {
	var real []Participant
	for _, p := range o.Players {
		if !p.IsBot {
			real = append(real, p)
		}
	}
	return real
}

// MatchRef is the decoded form of a room identifier. Lobby matches settle
// immediately; tournament matches only forward their winner to the bracket.
type MatchRef struct {
	ID           string
	Tournament   bool
	TournamentID string
	MatchIndex   int
}

// ParseMatchRef decodes a room identifier of the form "lobby-<id>" or
// "tournament-<tournamentID>-<matchIndex>".
func ParseMatchRef(id string) (MatchRef, error) {
	if strings.HasPrefix(id, "tournament-") {
		rest := strings.TrimPrefix(id, "tournament-")
		i := strings.LastIndex(rest, "-")
		if i <= 0 || i == len(rest)-1 {
			return MatchRef{}, fmt.Errorf("malformed tournament match id %q", id)
		}
		var idx int
		if _, err := fmt.Sscanf(rest[i+1:], "%d", &idx); err != nil {
			return MatchRef{}, fmt.Errorf("malformed tournament match index in %q: %w", id, err)
		}
		return MatchRef{ID: id, Tournament: true, TournamentID: rest[:i], MatchIndex: idx}, nil
	}
	if strings.HasPrefix(id, "lobby-") {
		return MatchRef{ID: id}, nil
	}
	return MatchRef{}, fmt.Errorf("unrecognized match id %q", id)
}
