package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
	sendBuffer = 256
)

// Client is one websocket connection joined to a scene room. A user may
// hold several clients; presence is tracked per client.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu          sync.Mutex
	closed      bool
	closeReason string

	UserID      string
	DisplayName string
	SceneID     string
	ClientID    string

	// ReadOnly clients may send presence but not operations.
	ReadOnly bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, sceneID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		UserID:      userID,
		DisplayName: displayName,
		SceneID:     sceneID,
		ClientID:    clientID,
	}
}

// Send queues msg for the write pump. Messages to a closed client are
// discarded, as are messages that overflow the buffer.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}
	c.sendBytes(data)
}

func (c *Client) sendBytes(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "client", c.ClientID)
	}
}

// closeSend stops further sends. The write pump flushes what is queued and
// then closes the connection, with reason as the close text when set.
func (c *Client) closeSend(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.closeReason = reason
	close(c.send)
}

// Closed reports whether the hub has let go of the client.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ReadPump feeds incoming messages to the hub until the connection drops
// or the hub closes the client.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				slog.Debug("read error", "error", err, "client", c.ClientID)
			}
			return
		}
		if c.Closed() {
			return
		}

		msg, err := c.decode(data)
		if err != nil {
			slog.Warn("invalid message", "error", err, "client", c.ClientID)
			continue
		}
		c.hub.handleMessage(c, msg)
	}
}

// decode parses a frame and stamps it with the connection's identity so
// clients cannot speak for each other.
func (c *Client) decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	msg.UserID = c.UserID
	msg.ClientID = c.ClientID
	msg.SceneID = c.SceneID
	return &msg, nil
}

// WritePump drains the send queue onto the connection and keeps it alive
// with pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.closeConn()
				return
			}
			if err := c.write(ctx, data); err != nil {
				slog.Debug("write error", "error", err, "client", c.ClientID)
				c.conn.Close(websocket.StatusInternalError, "write failed")
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.conn.Close(websocket.StatusGoingAway, "ping failed")
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *Client) closeConn() {
	c.mu.Lock()
	reason := c.closeReason
	c.mu.Unlock()

	if reason != "" {
		c.conn.Close(websocket.StatusPolicyViolation, reason)
		return
	}
	c.conn.Close(websocket.StatusNormalClosure, "")
}
