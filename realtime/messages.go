package realtime

import "time"

// Message is the envelope for every frame pushed to a client.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Outbound message types. These are the engine's contractual client-facing
// events; the hub only delivers them.
const (
	MessageTypeGameUpdate           = "gameUpdate"
	MessageTypeGameEnd              = "gameEnd"
	MessageTypeBalanceUpdated       = "balanceUpdated"
	MessageTypeOpponentDisconnected = "opponentDisconnected"
	MessageTypeOpponentReconnected  = "opponentReconnected"
)

// GameUpdatePayload carries the board after an accepted move.
type GameUpdatePayload struct {
	MatchID    string `json:"match_id"`
	BoardState any    `json:"board_state"`
	Turn       string `json:"turn"`
}

// GameEndPayload announces the decided outcome. Settled is false while the
// monetary settlement is still pending.
type GameEndPayload struct {
	MatchID  string `json:"match_id"`
	Kind     string `json:"kind"`
	WinnerID string `json:"winner_id,omitempty"`
	Settled  bool   `json:"settled"`
}

// BalanceUpdatedPayload is only ever sent after the balance change committed.
type BalanceUpdatedPayload struct {
	MatchID         string `json:"match_id,omitempty"`
	ChangeAmount    int64  `json:"change_amount"`
	NewBalance      int64  `json:"new_balance"`
	TransactionType string `json:"transaction_type"`
}

// OpponentDisconnectedPayload starts the client-side grace countdown.
type OpponentDisconnectedPayload struct {
	MatchID        string    `json:"match_id"`
	DisconnectedID string    `json:"disconnected_id"`
	GraceDeadline  time.Time `json:"grace_deadline"`
}

// OpponentReconnectedPayload resumes play.
type OpponentReconnectedPayload struct {
	MatchID       string `json:"match_id"`
	ParticipantID string `json:"participant_id"`
}
