package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checking belongs to the fronting auth layer
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket connection. Writes go through a buffered channel so
// a slow consumer never blocks a broadcast; a client that can't keep up is
// dropped.
type Client struct {
	SocketID string
	UserID   string

	conn    *websocket.Conn
	outbox  chan []byte
	closed  bool
	closeMu sync.Mutex
}

// ServeWS upgrades an HTTP request to a websocket client and registers it
// with the hub. The caller supplies the authenticated user id.
func ServeWS(hub *Hub, userID string, w http.ResponseWriter, r *http.Request) (*Client, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	client := &Client{
		SocketID: uuid.NewString(),
		UserID:   userID,
		conn:     conn,
		outbox:   make(chan []byte, sendBuffer),
	}
	hub.Register(client)

	go client.writePump(hub)
	go client.readPump(hub)

	return client, nil
}

// send queues a frame for delivery. Frames to a full or closed outbox are
// dropped; the connection-level ping cycle will reap a dead peer.
func (c *Client) send(data []byte) {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.outbox <- data:
	default:
		log.WithFields(log.Fields{
			"socketId": c.SocketID,
			"userId":   c.UserID,
		}).Warn("Dropping frame to slow client")
	}
}

func (c *Client) close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.outbox)
}

func (c *Client) writePump(hub *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.outbox:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.Unregister(c.SocketID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Inbound frames are ignored: move submission rides the application's
	// command path, not this delivery channel.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithFields(log.Fields{
					"socketId": c.SocketID,
					"error":    err,
				}).Debug("Websocket closed unexpectedly")
			}
			return
		}
	}
}
