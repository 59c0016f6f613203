package notifications

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// Streams are server to client; inbound frames are control traffic only.
	maxInboundFrame = 1024

	sendBuffer = 64
)

// Client is one notification stream registered with the Hub. Only the
// writer goroutine started by Serve writes to the connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	UserID uint

	// Send carries encoded events to the writer. It is closed exactly once
	// by closeSend.
	Send chan []byte

	mu        sync.Mutex
	closed    bool
	closeCode int
	closeText string
}

func newClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
	}
}

// TrySend queues message without blocking. It reports false when the
// buffer is full or the client is closed.
func (c *Client) TrySend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		slog.Default().Warn("notification buffer full, dropped event", slog.Uint64("user_id", uint64(c.UserID)))
		return false
	}
}

// closeSend stops the writer, which then sends a close frame with code and text.
func (c *Client) closeSend(code int, text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	c.closeCode, c.closeText = code, text
	close(c.Send)
	return true
}

// Serve runs the stream until the peer goes away or the hub closes it.
func (c *Client) Serve() {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop()
	}()

	c.readLoop()
	c.hub.UnregisterClient(c)
	<-writerDone
}

// readLoop keeps read deadlines fresh from pongs and discards data frames.
func (c *Client) readLoop() {
	c.conn.SetReadLimit(maxInboundFrame)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Default().Warn("notification stream read failed",
					slog.Uint64("user_id", uint64(c.UserID)), slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.mu.Lock()
				frame := websocket.FormatCloseMessage(c.closeCode, c.closeText)
				c.mu.Unlock()
				_ = c.conn.WriteMessage(websocket.CloseMessage, frame)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
