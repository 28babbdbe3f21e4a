package server

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/knightwatch/arena-server/pkg/messages"
)

// Connection is one client's websocket, served by independent read and
// write goroutines.
type Connection struct {
	ID      uuid.UUID
	ws      *websocket.Conn
	hub     *Hub
	writeMu sync.Mutex

	// send is closed exactly once by closeSend. sendMu orders every queue
	// attempt against that close: clock broadcasts and finish notifications
	// race the hub's unregister path for the same connection.
	send       chan []byte // buffered channel of outbound messages
	sendMu     sync.Mutex
	sendClosed bool

	logger *zap.Logger
}

// NewConnection wraps an upgraded websocket.
func NewConnection(ws *websocket.Conn, hub *Hub, logger *zap.Logger) *Connection {
	return &Connection{
		ID:     uuid.New(),
		ws:     ws,
		hub:    hub,
		send:   make(chan []byte, 256),
		logger: logger,
	}
}

// ReadPump handles inbound messages from the client. A malformed frame is
// answered with an ERROR event; it never tears the loop down.
func (c *Connection) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.ws.Close()
	}()

	for {
		msgType, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("read error", zap.Error(err))
			}
			break
		}

		if msgType != websocket.TextMessage {
			continue
		}

		var inbound messages.InboundMessage
		if err := json.Unmarshal(msg, &inbound); err != nil {
			c.logger.Warn("failed to parse inbound JSON",
				zap.String("connection_id", c.ID.String()),
				zap.Error(err))
			c.SendJSON(messages.OutboundMessage{
				Event:   messages.EventError,
				Payload: messages.ErrorPayload{Message: "Malformed message."},
			})
			continue
		}

		c.hub.inbound <- InboundHubMessage{Conn: c, Message: inbound}
	}
}

// WritePump handles outbound messages to the client.
func (c *Connection) WritePump() {
	defer c.ws.Close()

	for {
		message, ok := <-c.send
		if !ok {
			c.logger.Debug("send channel closed",
				zap.String("connection_id", c.ID.String()))
			return
		}
		c.writeMu.Lock()
		err := c.ws.WriteMessage(websocket.TextMessage, message)
		c.writeMu.Unlock()
		if err != nil {
			c.logger.Error("write error", zap.Error(err))
			return
		}
	}
}

// SendJSON queues a JSON message for this connection. Messages to a
// connection whose buffer is full are dropped rather than allowed to stall
// every session it shares; messages after teardown are dropped silently.
func (c *Connection) SendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("error marshaling JSON", zap.Error(err))
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, dropping message",
			zap.String("connection_id", c.ID.String()))
	}
}

// closeSend shuts the outbound queue down, stopping the write pump.
// Idempotent; SendJSON calls after it are no-ops.
func (c *Connection) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}
