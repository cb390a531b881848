package game

import (
	"sync"
	"time"

	"skillarena/models"
)

// Session is the in-memory state of one active match. It is exclusively
// owned by the Manager; all mutation happens under mu, keyed by match id, so
// moves, bot auto-play and disconnect handling for one match are serialized
// while different matches proceed in parallel.
type Session struct {
	ID        string
	Ref       models.MatchRef
	GameType  models.GameType
	Players   [2]models.Participant
	BetAmount int64

	mu         sync.Mutex
	boardState any
	turn       string
	status     models.MatchStatus

	// Timers are owned by the session and cancelled on teardown. A fired
	// callback re-resolves the session through the registry and re-checks
	// status, so a stale timer can never touch a destroyed session.
	botTimer        *time.Timer
	disconnectTimer *time.Timer
	disconnectedID  string

	// settlementPending marks a session whose outcome is decided but whose
	// monetary settlement exhausted its retries. The session is deliberately
	// held in SETTLING for reconciliation instead of being discarded.
	settlementPending bool
}

// NewSession builds an active session with the given opening state and first
// turn holder.
func NewSession(ref models.MatchRef, gameType models.GameType, players [2]models.Participant, betAmount int64, initialState any, firstTurn string) *Session {
	return &Session{
		ID:         ref.ID,
		Ref:        ref,
		GameType:   gameType,
		Players:    players,
		BetAmount:  betAmount,
		boardState: initialState,
		turn:       firstTurn,
		status:     models.MatchStatusActive,
	}
}

// Status returns the current lifecycle state.
func (s *Session) Status() models.MatchStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Turn returns the participant id whose move is expected next.
func (s *Session) Turn() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// BoardState returns the opaque board state.
func (s *Session) BoardState() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boardState
}

// SettlementPending reports whether the decided outcome is still waiting for
// its monetary settlement.
func (s *Session) SettlementPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settlementPending
}

// participant returns the seat for a participant id.
func (s *Session) participant(id string) (models.Participant, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return models.Participant{}, false
}

// opponent returns the other seat.
func (s *Session) opponent(id string) (models.Participant, bool) {
	for _, p := range s.Players {
		if p.ID != id {
			return p, true
		}
	}
	return models.Participant{}, false
}

// tryBeginSettling is the single gate into SETTLING. Exactly one caller wins
// the transition even when a terminal move races a disconnect timeout; every
// other trigger sees false and stands down.
func (s *Session) tryBeginSettling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != models.MatchStatusActive {
		return false
	}
	s.status = models.MatchStatusSettling
	s.cancelTimersLocked()
	return true
}

// markSettled finalizes a settled session. Only valid from SETTLING.
func (s *Session) markSettled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = models.MatchStatusSettled
	s.settlementPending = false
}

// markSettlementPending flags a SETTLING session for reconciliation.
func (s *Session) markSettlementPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settlementPending = true
}

// abandon tears the session down without settlement. Returns false if the
// session already left ACTIVE.
func (s *Session) abandon() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != models.MatchStatusActive {
		return false
	}
	s.status = models.MatchStatusAbandoned
	s.cancelTimersLocked()
	return true
}

// cancelTimers stops all outstanding scheduled work for the session.
func (s *Session) cancelTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimersLocked()
}

func (s *Session) cancelTimersLocked() {
	if s.botTimer != nil {
		s.botTimer.Stop()
		s.botTimer = nil
	}
	if s.disconnectTimer != nil {
		s.disconnectTimer.Stop()
		s.disconnectTimer = nil
	}
	s.disconnectedID = ""
}
