package network

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to complete one write to the peer.
	writeWait = 10 * time.Second

	// Time allowed between pongs before the connection is considered dead.
	pongWait = 60 * time.Second

	// Ping cadence; must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Client pairs one websocket connection with its outbound queue. The hub
// places messages on send; the client's writeLoop drains it. The buffer
// keeps a slow client from stalling whoever is broadcasting.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	send   chan Message
	logger *zap.Logger
}

func (c *Client) Send() chan<- Message { return c.send }

func (c *Client) Addr() string { return c.conn.RemoteAddr().String() }

func (c *Client) readLoop() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("unexpected close", zap.String("addr", c.Addr()), zap.Error(err))
			}
			return
		}
		c.hub.incoming <- clientMessage{client: c, msg: msg}
	}
}

// writeLoop pumps the send queue onto the wire and keeps the connection
// alive with periodic pings.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the queue: the client was unregistered.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("write failed", zap.String("addr", c.Addr()), zap.Error(err))
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
