package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skillarena/config"
	"skillarena/events"
	"skillarena/models"
	"skillarena/service"

	log "github.com/sirupsen/logrus"
)

// Settler settles a finished lobby match. The concrete implementation is the
// settlement service; the narrow interface keeps the manager testable.
type Settler interface {
	Settle(ctx context.Context, outcome *models.SettlementOutcome) (*models.SettlementResult, error)
}

// BracketNotifier receives the winner of a finished tournament match. Bracket
// progression and tournament-level revenue recognition happen elsewhere.
type BracketNotifier interface {
	MatchCompleted(matchID string, winner models.Participant)
}

// Manager owns the lifecycle of active match sessions: it serializes move
// application per match, drives bot turns, detects terminal states and
// invokes settlement exactly once per session.
type Manager struct {
	registry *Registry
	oracles  map[models.GameType]Oracle
	settler  Settler
	bracket  BracketNotifier
	bus      *events.Bus

	botMoveDelay      time.Duration
	botMoveCap        int
	settlementRetries int
}

// NewManager creates a session manager wired to the given collaborators.
// bracket may be nil when no tournament play is hosted.
func NewManager(registry *Registry, settler Settler, bus *events.Bus, oracles map[models.GameType]Oracle, bracket BracketNotifier) *Manager {
	cfg := config.Get()
	return &Manager{
		registry:          registry,
		oracles:           oracles,
		settler:           settler,
		bracket:           bracket,
		bus:               bus,
		botMoveDelay:      cfg.BotMoveDelay,
		botMoveCap:        cfg.BotMoveCap,
		settlementRetries: cfg.SettlementRetries,
	}
}

// CreateMatch registers a new active session. If the opening turn belongs to
// a bot, its first move is scheduled immediately.
func (m *Manager) CreateMatch(ctx context.Context, ref models.MatchRef, gameType models.GameType, players [2]models.Participant, betAmount int64, initialState any, firstTurn string) (*Session, error) {
	if _, ok := m.oracles[gameType]; !ok {
		return nil, fmt.Errorf("no rule oracle registered for game type %s", gameType)
	}
	if betAmount < 0 {
		return nil, fmt.Errorf("bet amount must not be negative")
	}
	if players[0].ID != firstTurn && players[1].ID != firstTurn {
		return nil, fmt.Errorf("first turn holder %s is not a participant", firstTurn)
	}

	session := NewSession(ref, gameType, players, betAmount, initialState, firstTurn)
	if err := m.registry.Insert(session); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"matchId":   session.ID,
		"gameType":  gameType,
		"betAmount": betAmount,
	}).Info("Match session created")

	if p, ok := session.participant(firstTurn); ok && p.IsBot {
		m.scheduleBotPlay(session)
	}

	return session, nil
}

// ApplyMove validates and applies one move from a participant. A rejected
// move leaves the session completely untouched. If the move is terminal the
// session settles synchronously before this call returns, so no later move
// can interleave with settlement.
func (m *Manager) ApplyMove(ctx context.Context, matchID, actorID string, move any) error {
	session, ok := m.registry.Get(matchID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	oracle := m.oracles[session.GameType]

	session.mu.Lock()

	if session.status != models.MatchStatusActive {
		session.mu.Unlock()
		return fmt.Errorf("%w: match %s is %s", ErrInvalidMoveContext, matchID, session.status)
	}
	if _, ok := session.participant(actorID); !ok {
		session.mu.Unlock()
		return fmt.Errorf("%w: %s is not a participant of match %s", ErrInvalidMoveContext, actorID, matchID)
	}
	if session.turn != actorID {
		session.mu.Unlock()
		return fmt.Errorf("%w: not %s's turn in match %s", ErrInvalidMoveContext, actorID, matchID)
	}

	result, err := oracle.ProcessMove(session.boardState, move, actorID, session.Players)
	if err != nil {
		session.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrIllegalMove, err)
	}

	session.boardState = result.NewState
	if result.TurnShouldSwitch {
		if next, ok := session.opponent(actorID); ok {
			session.turn = next.ID
		}
	}

	end := oracle.CheckGameEnd(session.boardState, session.Players)
	if end.IsGameOver {
		// Enter SETTLING under the same lock as the terminal detection: a
		// racing disconnect timeout sees a non-ACTIVE status and stands down.
		session.status = models.MatchStatusSettling
		session.cancelTimersLocked()
		outcome := buildOutcome(session, end)
		session.mu.Unlock()

		m.finish(ctx, session, outcome)
		return nil
	}

	state := session.boardState
	turn := session.turn
	nextIsBot := false
	if p, ok := session.participant(turn); ok {
		nextIsBot = p.IsBot
	}
	session.mu.Unlock()

	m.bus.Emit(ctx, events.GameUpdateEvent{
		MatchID:    matchID,
		BoardState: state,
		Turn:       turn,
	})

	if nextIsBot {
		m.scheduleBotPlay(session)
	}

	return nil
}

// scheduleBotPlay arms the "bot is thinking" timer. The callback re-resolves
// the session through the registry, so a timer that outlives its session
// does nothing.
func (m *Manager) scheduleBotPlay(session *Session) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.status != models.MatchStatusActive {
		return
	}
	if session.botTimer != nil {
		session.botTimer.Stop()
	}
	matchID := session.ID
	session.botTimer = time.AfterFunc(m.botMoveDelay, func() {
		m.runBotTurn(context.Background(), matchID)
	})
}

// runBotTurn plays consecutive bot moves until the turn returns to a human,
// the oracle runs out of moves, the game ends, or the iteration cap trips.
func (m *Manager) runBotTurn(ctx context.Context, matchID string) {
	session, ok := m.registry.Get(matchID)
	if !ok {
		return
	}
	oracle := m.oracles[session.GameType]

	session.mu.Lock()

	for i := 0; i < m.botMoveCap; i++ {
		if session.status != models.MatchStatusActive {
			session.mu.Unlock()
			return
		}
		actor, ok := session.participant(session.turn)
		if !ok || !actor.IsBot {
			break
		}

		move := oracle.MakeBotMove(session.boardState, actor.ID)
		if move == nil {
			break
		}

		result, err := oracle.ProcessMove(session.boardState, move, actor.ID, session.Players)
		if err != nil {
			log.WithFields(log.Fields{
				"matchId": matchID,
				"botId":   actor.ID,
				"error":   err,
			}).Warn("Bot move rejected by oracle")
			break
		}

		session.boardState = result.NewState
		if result.TurnShouldSwitch {
			if next, ok := session.opponent(actor.ID); ok {
				session.turn = next.ID
			}
		}

		end := oracle.CheckGameEnd(session.boardState, session.Players)
		if end.IsGameOver {
			session.status = models.MatchStatusSettling
			session.cancelTimersLocked()
			outcome := buildOutcome(session, end)
			session.mu.Unlock()

			m.finish(ctx, session, outcome)
			return
		}
	}

	state := session.boardState
	turn := session.turn
	session.mu.Unlock()

	m.bus.Emit(ctx, events.GameUpdateEvent{
		MatchID:    matchID,
		BoardState: state,
		Turn:       turn,
	})
}

// finish drives a SETTLING session to its end state. Lobby matches settle
// monetarily with bounded retries; tournament matches only forward their
// winner to the bracket. Players always receive the decided outcome; the
// Settled flag distinguishes "funds moved" from "funds pending".
func (m *Manager) finish(ctx context.Context, session *Session, outcome *models.SettlementOutcome) {
	if session.Ref.Tournament {
		if m.bracket != nil && outcome.Winner != nil {
			m.bracket.MatchCompleted(session.ID, *outcome.Winner)
		}
		session.markSettled()
		m.registry.Remove(session.ID)
		m.bus.Emit(ctx, events.GameEndEvent{
			MatchID:  session.ID,
			Kind:     outcome.Kind,
			WinnerID: winnerID(outcome),
			Settled:  true,
		})

		log.WithFields(log.Fields{
			"matchId":      session.ID,
			"tournamentId": session.Ref.TournamentID,
			"winnerId":     winnerID(outcome),
		}).Info("Tournament match completed, winner forwarded to bracket")
		return
	}

	var lastErr error
	for attempt := 1; attempt <= m.settlementRetries; attempt++ {
		_, err := m.settler.Settle(ctx, outcome)
		if err == nil {
			lastErr = nil
			break
		}
		if errors.Is(err, service.ErrDuplicateMatchRecord) {
			// A concurrent trigger already committed this settlement.
			lastErr = nil
			break
		}
		lastErr = err
		log.WithFields(log.Fields{
			"matchId": session.ID,
			"attempt": attempt,
			"error":   err,
		}).Warn("Settlement attempt failed")
	}

	if lastErr != nil {
		// Money-moving correctness outranks availability: the session stays
		// in SETTLING for reconciliation instead of being discarded, and the
		// outcome is announced as funds-pending.
		session.markSettlementPending()
		log.WithFields(log.Fields{
			"matchId": session.ID,
			"error":   lastErr,
		}).Error("Settlement retries exhausted, match held for reconciliation")

		m.bus.Emit(ctx, events.GameEndEvent{
			MatchID:  session.ID,
			Kind:     outcome.Kind,
			WinnerID: winnerID(outcome),
			Settled:  false,
		})
		return
	}

	session.markSettled()
	m.registry.Remove(session.ID)
	m.bus.Emit(ctx, events.GameEndEvent{
		MatchID:  session.ID,
		Kind:     outcome.Kind,
		WinnerID: winnerID(outcome),
		Settled:  true,
	})
}

// buildOutcome snapshots the terminal result. Caller must hold session.mu.
func buildOutcome(session *Session, end EndResult) *models.SettlementOutcome {
	outcome := &models.SettlementOutcome{
		MatchID:   session.ID,
		GameType:  session.GameType,
		Players:   session.Players,
		BetAmount: session.BetAmount,
	}

	if end.IsDraw {
		outcome.Kind = models.OutcomeDraw
		return outcome
	}

	outcome.Kind = models.OutcomeWin
	if winner, ok := session.participant(end.WinnerID); ok {
		loser, _ := session.opponent(end.WinnerID)
		outcome.Winner = &winner
		outcome.Loser = &loser
	}
	return outcome
}

func winnerID(outcome *models.SettlementOutcome) string {
	if outcome.Winner == nil {
		return ""
	}
	return outcome.Winner.ID
}
