package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const defaultWriteWait = 10 * time.Second

// Client represents a websocket client connection.
type Client struct {
	id   string
	conn *websocket.Conn
	log  *slog.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewClient constructs a client wrapper.
func NewClient(conn *websocket.Conn, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Client{id: id, conn: conn, log: logger.With("client_id", id), done: make(chan struct{})}
}

// ID returns the client identifier used in logs.
func (c *Client) ID() string {
	return c.id
}

// Send writes a message to the websocket connection.
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(defaultWriteWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.log.Warn("websocket send failed", "error", err)
		c.closeLocked()
		return err
	}
	return nil
}

// Close terminates the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	_ = c.conn.Close()
	close(c.done)
}

// Done is closed once the connection is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ReadLoop drains inbound frames until the peer disconnects.
func (c *Client) ReadLoop() {
	defer c.Close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
