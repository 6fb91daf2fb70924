package realtime

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// writeWait is the maximum time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// pongWait is the maximum time to wait for a pong reply from the peer.
	pongWait = 60 * time.Second
	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize is the maximum inbound message size in bytes. Clients
	// only receive; inbound traffic is limited to control frames.
	maxMessageSize = 512
)

// Client represents a single admitted websocket connection, bound to the
// tenant room it was admitted into.
type Client struct {
	ID   string
	Room string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// NewClient creates a Client bound to the given tenant room. The caller still
// has to register it with the hub.
func NewClient(hub *Hub, conn *websocket.Conn, tenant string) *Client {
	return &Client{
		ID:   uuid.New().String(),
		Room: tenant,
		conn: conn,
		send: make(chan []byte, 256),
		hub:  hub,
	}
}

// ReadPump drains the connection until the peer goes away, keeping the pong
// deadline fresh. Clients have no inbound protocol; channel filtering happens
// client-side. It runs in its own goroutine per client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("realtime: client %s read error: %v", c.ID, err)
			}
			break
		}
	}
}

// WritePump pumps frames from the hub to the websocket connection. It runs in
// its own goroutine per client.
func (c *Client) WritePump() {
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
				// Hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
