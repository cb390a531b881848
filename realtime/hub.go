package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"skillarena/events"

	log "github.com/sirupsen/logrus"
)

// PresenceListener observes match-scoped liveness transitions. The hub only
// reports them; grace timers and forfeits live with the session manager.
type PresenceListener interface {
	HandleDisconnect(ctx context.Context, matchID, participantID string) error
	HandleReconnect(ctx context.Context, matchID, participantID, socketID string) error
}

// Hub fans engine events out to connected clients. It tracks which sockets
// belong to which match and which user, and does nothing else: all game and
// money logic stays behind the event bus.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client            // socket id -> client
	byUser   map[string]map[string]*Client // user id -> socket id -> client
	rooms    map[string]map[string]*Client // match id -> socket id -> client
	presence PresenceListener
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		byUser:  make(map[string]map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// Register adds a connected client.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.SocketID] = client
	if h.byUser[client.UserID] == nil {
		h.byUser[client.UserID] = make(map[string]*Client)
	}
	h.byUser[client.UserID][client.SocketID] = client

	log.WithFields(log.Fields{
		"socketId": client.SocketID,
		"userId":   client.UserID,
	}).Debug("Client registered")
}

// SetPresenceListener wires disconnect/reconnect reporting. Must be called
// before clients connect.
func (h *Hub) SetPresenceListener(listener PresenceListener) {
	h.presence = listener
}

// Unregister removes a client and drops it from every room, reporting the
// disconnect to the presence listener per match the socket was in.
func (h *Hub) Unregister(socketID string) {
	h.mu.Lock()

	client, ok := h.clients[socketID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, socketID)
	if sockets := h.byUser[client.UserID]; sockets != nil {
		delete(sockets, socketID)
		if len(sockets) == 0 {
			delete(h.byUser, client.UserID)
		}
	}
	var left []string
	for matchID, room := range h.rooms {
		if _, in := room[socketID]; !in {
			continue
		}
		delete(room, socketID)
		if len(room) == 0 {
			delete(h.rooms, matchID)
		}
		left = append(left, matchID)
	}
	client.close()
	h.mu.Unlock()

	if h.presence != nil {
		for _, matchID := range left {
			if err := h.presence.HandleDisconnect(context.Background(), matchID, client.UserID); err != nil {
				log.WithFields(log.Fields{
					"matchId": matchID,
					"userId":  client.UserID,
					"error":   err,
				}).Debug("Disconnect not tracked for match")
			}
		}
	}
}

// JoinMatch subscribes a socket to a match's broadcasts. Joining also clears
// any running disconnect grace timer for this user in that match.
func (h *Hub) JoinMatch(matchID, socketID string) {
	h.mu.Lock()

	client, ok := h.clients[socketID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if h.rooms[matchID] == nil {
		h.rooms[matchID] = make(map[string]*Client)
	}
	h.rooms[matchID][socketID] = client
	h.mu.Unlock()

	if h.presence != nil {
		if err := h.presence.HandleReconnect(context.Background(), matchID, client.UserID, socketID); err != nil {
			log.WithFields(log.Fields{
				"matchId": matchID,
				"userId":  client.UserID,
				"error":   err,
			}).Debug("Reconnect not tracked for match")
		}
	}
}

// LeaveMatch unsubscribes a socket from a match's broadcasts.
func (h *Hub) LeaveMatch(matchID, socketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room := h.rooms[matchID]; room != nil {
		delete(room, socketID)
		if len(room) == 0 {
			delete(h.rooms, matchID)
		}
	}
}

// BroadcastToMatch sends a message to every socket in a match room.
func (h *Hub) BroadcastToMatch(matchID string, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.WithFields(log.Fields{
			"matchId": matchID,
			"type":    message.Type,
			"error":   err,
		}).Error("Failed to marshal broadcast message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.rooms[matchID] {
		client.send(data)
	}
}

// SendToUser sends a message to every socket a user holds.
func (h *Hub) SendToUser(userID string, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.WithFields(log.Fields{
			"userId": userID,
			"type":   message.Type,
			"error":  err,
		}).Error("Failed to marshal user message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.byUser[userID] {
		client.send(data)
	}
}

// ConnectedClients returns the number of registered sockets.
func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscribeTo wires the hub to the engine's event bus. Balance changes go to
// the affected user only; everything else goes to the match room.
func (h *Hub) SubscribeTo(bus *events.Bus) {
	bus.Subscribe(events.EventTypeGameUpdate, func(ctx context.Context, event events.Event) {
		e := event.(events.GameUpdateEvent)
		h.BroadcastToMatch(e.MatchID, Message{
			Type: MessageTypeGameUpdate,
			Payload: GameUpdatePayload{
				MatchID:    e.MatchID,
				BoardState: e.BoardState,
				Turn:       e.Turn,
			},
		})
	})

	bus.Subscribe(events.EventTypeGameEnd, func(ctx context.Context, event events.Event) {
		e := event.(events.GameEndEvent)
		h.BroadcastToMatch(e.MatchID, Message{
			Type: MessageTypeGameEnd,
			Payload: GameEndPayload{
				MatchID:  e.MatchID,
				Kind:     string(e.Kind),
				WinnerID: e.WinnerID,
				Settled:  e.Settled,
			},
		})
	})

	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		e := event.(events.BalanceChangeEvent)
		h.SendToUser(e.UserID, Message{
			Type: MessageTypeBalanceUpdated,
			Payload: BalanceUpdatedPayload{
				MatchID:         e.MatchID,
				ChangeAmount:    e.ChangeAmount,
				NewBalance:      e.NewBalance,
				TransactionType: string(e.TransactionType),
			},
		})
	})

	bus.Subscribe(events.EventTypeOpponentDisconnected, func(ctx context.Context, event events.Event) {
		e := event.(events.OpponentDisconnectedEvent)
		h.BroadcastToMatch(e.MatchID, Message{
			Type: MessageTypeOpponentDisconnected,
			Payload: OpponentDisconnectedPayload{
				MatchID:        e.MatchID,
				DisconnectedID: e.DisconnectedID,
				GraceDeadline:  e.GraceDeadline,
			},
		})
	})

	bus.Subscribe(events.EventTypeOpponentReconnected, func(ctx context.Context, event events.Event) {
		e := event.(events.OpponentReconnectedEvent)
		h.BroadcastToMatch(e.MatchID, Message{
			Type: MessageTypeOpponentReconnected,
			Payload: OpponentReconnectedPayload{
				MatchID:       e.MatchID,
				ParticipantID: e.ParticipantID,
			},
		})
	})
}
