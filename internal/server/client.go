package server

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one websocket connection attached to a table. A client with an
// empty playerID is a spectator: it receives state frames but its action
// frames are rejected because they can never match a seated connection.
type Client struct {
	logger    *zap.Logger
	conn      *websocket.Conn
	table     *tableHub
	send      chan []byte
	playerID  string
	sessionID string
	readLimit int64
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn, table *tableHub, playerID, sessionID string, readLimit int64, logger *zap.Logger) *Client {
	return &Client{
		logger:    logger,
		conn:      conn,
		table:     table,
		send:      make(chan []byte, 32),
		playerID:  playerID,
		sessionID: sessionID,
		readLimit: readLimit,
	}
}

// Run registers the client and starts its pumps. Blocks until the read pump
// exits.
func (c *Client) Run() {
	c.table.register <- c
	go c.writePump()
	c.readPump()
}

// enqueue hands a frame to the write pump without blocking the table loop.
// A client that cannot keep up loses frames; the next full-state broadcast
// makes it whole again.
func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		c.logger.Warn("dropping frame for slow client",
			zap.String("player_id", c.playerID),
		)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.table.unregister <- c
		c.conn.Close()
	}()

	if c.readLimit > 0 {
		c.conn.SetReadLimit(c.readLimit)
	}
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error",
					zap.String("player_id", c.playerID),
					zap.Error(err),
				)
			}
			return
		}
		c.table.inbound <- inboundFrame{client: c, raw: raw}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
