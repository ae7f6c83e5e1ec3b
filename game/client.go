package game

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 8192
	sendBufferSize = 64
)

// Client is one connected player: a websocket plus its outbox. All game
// state lives in the Manager; the client only shuttles frames.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	playerID string
	name     string
	limiter  *rate.Limiter
	log      zerolog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, playerID, name string, log zerolog.Logger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		playerID: playerID,
		name:     name,
		send:     make(chan []byte, sendBufferSize),
		limiter:  rate.NewLimiter(5, 10),
		log:      log.With().Str("player", playerID).Logger(),
	}
}

// ReadPump reads frames until the connection drops, rate-limiting inbound
// messages. It owns the unregister: when it returns the player is removed
// from their room.
func (c *Client) ReadPump() {
	defer c.hub.Unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("read error")
			}
			return
		}
		if !c.limiter.Allow() {
			c.log.Warn().Msg("rate limit exceeded, dropping connection")
			return
		}
		c.hub.Dispatch(c, data)
	}
}

// WritePump drains the outbox and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
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

// enqueue drops the frame if the outbox is full rather than blocking the
// hub on a slow consumer. Frames for a closed client are discarded; the
// mutex keeps the send from racing closeSend.
func (c *Client) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Warn().Msg("send buffer full, dropping frame")
	}
}

// closeSend shuts the outbox down exactly once, letting WritePump drain and
// exit. Safe to call from any goroutine, including concurrently with
// enqueue.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
