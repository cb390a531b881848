package game

import (
	"context"
	"fmt"
	"time"

	"skillarena/config"
	"skillarena/events"
	"skillarena/models"

	log "github.com/sirupsen/logrus"
)

// Presence converts socket liveness into deterministic match outcomes: a
// disconnect starts a grace timer, a reconnect cancels it, and an expired
// timer forfeits the match through the same single-fire settlement gate as a
// terminal move.
type Presence struct {
	manager *Manager
	grace   time.Duration
}

// NewPresence creates a presence supervisor for the manager's sessions.
func NewPresence(manager *Manager) *Presence {
	return &Presence{
		manager: manager,
		grace:   config.Get().DisconnectGrace,
	}
}

// HandleDisconnect records that a participant's socket dropped. The opponent
// is notified and a grace timer starts; if the match has no real participant
// at all it is discarded outright, since no money ever moved.
func (p *Presence) HandleDisconnect(ctx context.Context, matchID, participantID string) error {
	session, ok := p.manager.registry.Get(matchID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}

	session.mu.Lock()

	if session.status != models.MatchStatusActive {
		session.mu.Unlock()
		return nil
	}
	if _, ok := session.participant(participantID); !ok {
		session.mu.Unlock()
		return fmt.Errorf("%s is not a participant of match %s", participantID, matchID)
	}

	realCount := 0
	for _, player := range session.Players {
		if !player.IsBot {
			realCount++
		}
	}
	if realCount == 0 {
		session.mu.Unlock()
		// Not an error path: nothing was ever staked, so the session is
		// discarded without settlement.
		if session.abandon() {
			p.manager.registry.Remove(matchID)
			log.WithFields(log.Fields{
				"matchId": matchID,
			}).Info("Match abandoned with no real participant")
		}
		return nil
	}

	if session.disconnectTimer != nil {
		session.disconnectTimer.Stop()
	}
	deadline := time.Now().Add(p.grace)
	session.disconnectedID = participantID
	session.disconnectTimer = time.AfterFunc(p.grace, func() {
		p.forfeit(matchID, participantID)
	})
	session.mu.Unlock()

	log.WithFields(log.Fields{
		"matchId":       matchID,
		"participantId": participantID,
		"graceDeadline": deadline,
	}).Info("Participant disconnected, grace timer started")

	p.manager.bus.Emit(ctx, events.OpponentDisconnectedEvent{
		MatchID:        matchID,
		DisconnectedID: participantID,
		GraceDeadline:  deadline,
	})

	return nil
}

// HandleReconnect cancels a running grace timer and resumes play with no
// state loss. A reconnect after the timer fired is a no-op; the session has
// already been forfeited.
func (p *Presence) HandleReconnect(ctx context.Context, matchID, participantID, socketID string) error {
	session, ok := p.manager.registry.Get(matchID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}

	session.mu.Lock()
	if session.status != models.MatchStatusActive || session.disconnectedID != participantID {
		session.mu.Unlock()
		return nil
	}

	if session.disconnectTimer != nil {
		session.disconnectTimer.Stop()
		session.disconnectTimer = nil
	}
	session.disconnectedID = ""
	for i := range session.Players {
		if session.Players[i].ID == participantID {
			session.Players[i].SocketID = socketID
		}
	}
	session.mu.Unlock()

	log.WithFields(log.Fields{
		"matchId":       matchID,
		"participantId": participantID,
	}).Info("Participant reconnected within grace period")

	p.manager.bus.Emit(ctx, events.OpponentReconnectedEvent{
		MatchID:       matchID,
		ParticipantID: participantID,
	})

	return nil
}

// forfeit fires when a grace timer expires: the remaining participant is
// declared winner and the match settles through the normal terminal path.
// Stale invocations fall through the registry lookup or the status check.
func (p *Presence) forfeit(matchID, participantID string) {
	session, ok := p.manager.registry.Get(matchID)
	if !ok {
		return
	}

	session.mu.Lock()
	if session.status != models.MatchStatusActive || session.disconnectedID != participantID {
		session.mu.Unlock()
		return
	}

	winner, ok := session.opponent(participantID)
	if !ok {
		session.mu.Unlock()
		return
	}
	loser, _ := session.participant(participantID)

	session.status = models.MatchStatusSettling
	session.cancelTimersLocked()
	outcome := &models.SettlementOutcome{
		MatchID:   session.ID,
		GameType:  session.GameType,
		Kind:      models.OutcomeWin,
		Winner:    &winner,
		Loser:     &loser,
		Players:   session.Players,
		BetAmount: session.BetAmount,
	}
	session.mu.Unlock()

	log.WithFields(log.Fields{
		"matchId":  matchID,
		"loserId":  participantID,
		"winnerId": winner.ID,
	}).Info("Grace period expired, match forfeited")

	p.manager.finish(context.Background(), session, outcome)
}
