package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// Dashboards only send control frames.
	maxInbound = 4 * 1024
)

// Conn is the part of *websocket.Conn a client needs.
type Conn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one dashboard connection joined to a hub.
type Client struct {
	hub  *Hub
	conn Conn
	send chan []byte
}

// NewClient joins conn to h. If h has already stopped the client
// closes as soon as it runs.
func NewClient(h *Hub, conn Conn) *Client {
	c := &Client{hub: h, conn: conn, send: make(chan []byte, clientBuffer)}
	select {
	case h.join <- c:
	case <-h.done:
		close(c.send)
	}
	return c
}

// Run serves the connection until either side closes it.
func (c *Client) Run() {
	go c.write()
	c.read()
}

// read only exists to process pongs and notice the peer going away.
func (c *Client) read() {
	defer func() {
		select {
		case c.hub.leave <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInbound)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// write is the only goroutine writing to conn.
func (c *Client) write() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, event); err != nil {
				return
			}

		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
