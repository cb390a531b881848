package events

import (
	"context"
	"sync"
	"time"

	"skillarena/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange        EventType = "balance_change"
	EventTypeGameUpdate           EventType = "game_update"
	EventTypeGameEnd              EventType = "game_end"
	EventTypeRevenueRecorded      EventType = "revenue_recorded"
	EventTypeOpponentDisconnected EventType = "opponent_disconnected"
	EventTypeOpponentReconnected  EventType = "opponent_reconnected"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a committed balance change. It is only
// published through the transactional bus, so subscribers never observe a
// delta that was rolled back.
type BalanceChangeEvent struct {
	UserID          string
	MatchID         string
	ChangeAmount    int64
	NewBalance      int64
	TransactionType models.TransactionType
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// GameUpdateEvent carries the new board state after an accepted move.
type GameUpdateEvent struct {
	MatchID    string
	BoardState any
	Turn       string
}

func (e GameUpdateEvent) Type() EventType {
	return EventTypeGameUpdate
}

// GameEndEvent announces the decided outcome of a match. Settled reports
// whether funds have actually moved; a false value means the monetary
// settlement is still pending reconciliation.
type GameEndEvent struct {
	MatchID  string
	Kind     models.OutcomeKind
	WinnerID string
	Settled  bool
}

func (e GameEndEvent) Type() EventType {
	return EventTypeGameEnd
}

// RevenueRecordedEvent signals that one immutable ledger entry was written.
type RevenueRecordedEvent struct {
	RecordID int64
	MatchID  string
	Source   models.RevenueSource
	Amount   int64
}

func (e RevenueRecordedEvent) Type() EventType {
	return EventTypeRevenueRecorded
}

// OpponentDisconnectedEvent notifies the remaining participant that a grace
// timer is running against the other side.
type OpponentDisconnectedEvent struct {
	MatchID        string
	DisconnectedID string
	GraceDeadline  time.Time
}

func (e OpponentDisconnectedEvent) Type() EventType {
	return EventTypeOpponentDisconnected
}

// OpponentReconnectedEvent notifies the remaining participant that play
// resumes.
type OpponentReconnectedEvent struct {
	MatchID       string
	ParticipantID string
}

func (e OpponentReconnectedEvent) Type() EventType {
	return EventTypeOpponentReconnected
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus")

	// Use background context for event emission to avoid issues with
	// transaction context expiration
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
