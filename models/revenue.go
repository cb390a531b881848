package models

import (
	"time"
)

// RevenueSource tells which settlement path produced a ledger entry.
type RevenueSource string

const (
	RevenueSourceLobby      RevenueSource = "lobby"
	RevenueSourceTournament RevenueSource = "tournament"
)

// ParticipantResult is the per-participant outcome recorded on a ledger entry.
type ParticipantResult string

const (
	ParticipantResultWin  ParticipantResult = "win"
	ParticipantResultLose ParticipantResult = "lose"
	ParticipantResultDraw ParticipantResult = "draw"
)

// RevenueParticipant is one side of a settled match as recorded on the
// ledger. Synthetic bots are listed too, tagged IsBot, so revenue queries
// can reconstruct full game history without branching on bot-ness.
type RevenueParticipant struct {
	ParticipantID string            `json:"participant_id"`
	Username      string            `json:"username"`
	BetAmount     int64             `json:"bet_amount"`
	Result        ParticipantResult `json:"result"`
	IsBot         bool              `json:"is_bot"`
}

// RevenueRecord is one immutable, append-only ledger entry: the sole audit
// trail for platform revenue. Amount may be negative when the platform nets
// a payout (a real player beating a bot).
type RevenueRecord struct {
	ID             int64                `db:"id"`
	Source         RevenueSource        `db:"source"`
	GameType       GameType             `db:"game_type"`
	TournamentRef  *string              `db:"tournament_ref"`
	Amount         int64                `db:"amount"`
	CommissionRate int                  `db:"commission_rate"`
	Description    string               `db:"description"`
	MatchID        string               `db:"match_id"`
	Participants   []RevenueParticipant `db:"participants"`
	CreatedAt      time.Time            `db:"created_at"`
}
