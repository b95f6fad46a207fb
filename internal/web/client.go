package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codefionn/calculate42/internal/consts"
	"github.com/codefionn/calculate42/internal/history"
	"github.com/codefionn/calculate42/internal/logger"
)

// Client is one websocket connection. Every text frame it sends is an
// expression and is answered with exactly one reply frame.
type Client struct {
	ID       string
	hub      *Hub
	conn     *websocket.Conn
	calc     Evaluator
	observer bool
	log      *logger.Logger

	sendMu sync.Mutex
	send   chan *WebMessage
	closed bool
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, conn *websocket.Conn, calc Evaluator, observer bool) *Client {
	id, _ := generateClientID()

	return &Client{
		ID:       id,
		hub:      hub,
		conn:     conn,
		calc:     calc,
		observer: observer,
		send:     make(chan *WebMessage, consts.WSSendBuffer),
		log:      logger.Global().WithPrefix("ws"),
	}
}

// ReadPump evaluates frames until the peer goes away or misbehaves
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(consts.WSMaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(consts.WSPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(consts.WSPongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("WebSocket read error from %s: %v", c.ID, err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			c.log.Warn("Closing %s: unsupported frame type %d", c.ID, messageType)
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseUnsupportedData, "text frames only"),
				time.Now().Add(consts.WSWriteWait))
			return
		}

		out := c.calc.Evaluate(ctx, history.SourceWS, string(message))
		c.sendResponse(newReplyMessage(out))
		c.hub.Broadcast(newOutcomeMessage(MessageTypeEvaluation, history.SourceWS, out))
	}
}

// WritePump pumps queued messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(consts.WSPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(consts.WSWriteWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(message)
			if err != nil {
				c.log.Error("Failed to marshal message: %v", err)
				continue
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug("Failed to write to %s: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(consts.WSWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendResponse queues msg unless the queue is closed or full
func (c *Client) sendResponse(msg *WebMessage) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.log.Warn("Client %s send channel full, dropping message", c.ID)
		return false
	}
}

// closeSend closes the outbound queue once
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// generateClientID generates a random client ID
func generateClientID() (string, error) {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
