// Package server owns the websocket side of the system: connection pumps
// and the hub that routes decoded events to the orchestrator.
package server

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/knightwatch/arena-server/pkg/manager"
	"github.com/knightwatch/arena-server/pkg/messages"
)

// InboundHubMessage pairs a decoded envelope with the connection it came in
// on, so handlers attribute actions to connections, not claimed names.
type InboundHubMessage struct {
	Conn    *Connection
	Message messages.InboundMessage
}

// Hub keeps track of all active connections and dispatches each inbound
// event to the matching orchestrator handler. Payloads are decoded exactly
// once, here; an unknown kind or invalid shape becomes an ERROR event back
// to the sender and touches no session state.
type Hub struct {
	mu          sync.RWMutex
	connections map[*Connection]bool

	register   chan *Connection
	unregister chan *Connection
	inbound    chan InboundHubMessage
	quit       chan struct{}

	manager *manager.Manager
	logger  *zap.Logger
}

// NewHub creates a hub dispatching into the given orchestrator.
func NewHub(m *manager.Manager, logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		inbound:     make(chan InboundHubMessage),
		quit:        make(chan struct{}),
		manager:     m,
		logger:      logger,
	}
}

// Run is the main execution loop of the hub.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.registerConnection(conn)

		case conn := <-h.unregister:
			h.unregisterConnection(conn)

		case msg := <-h.inbound:
			h.handleInbound(msg)

		case <-h.quit:
			return
		}
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister drops a connection, triggering the disconnect path.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Shutdown stops the run loop.
func (h *Hub) Shutdown() {
	close(h.quit)
}

func (h *Hub) registerConnection(conn *Connection) {
	h.mu.Lock()
	h.connections[conn] = true
	total := len(h.connections)
	h.mu.Unlock()

	h.logger.Info("connection registered",
		zap.String("connection_id", conn.ID.String()),
		zap.Int("total", total))

	conn.SendJSON(messages.OutboundMessage{
		Event:   messages.EventConnected,
		Payload: messages.ConnectedPayload{ConnectionID: conn.ID.String()},
	})
}

func (h *Hub) unregisterConnection(conn *Connection) {
	h.mu.Lock()
	_, ok := h.connections[conn]
	if ok {
		delete(h.connections, conn)
		conn.closeSend()
	}
	total := len(h.connections)
	h.mu.Unlock()

	if !ok {
		return
	}
	h.logger.Info("connection unregistered",
		zap.String("connection_id", conn.ID.String()),
		zap.Int("total", total))

	h.manager.HandleConnectionClosed(conn)
}

// handleInbound decodes the payload for one event and routes it.
func (h *Hub) handleInbound(msg InboundHubMessage) {
	conn := msg.Conn

	switch msg.Message.Event {
	case messages.EventInitGame:
		var payload messages.InitGamePayload
		if !h.decode(conn, msg.Message.Payload, &payload) {
			return
		}
		h.manager.HandleInitGame(conn, payload)

	case messages.EventCreateGame:
		var payload messages.CreateGamePayload
		if !h.decode(conn, msg.Message.Payload, &payload) {
			return
		}
		h.manager.HandleCreateGame(conn, payload)

	case messages.EventJoinGame:
		var payload messages.JoinGamePayload
		if !h.decode(conn, msg.Message.Payload, &payload) {
			return
		}
		h.manager.HandleJoinGame(conn, payload)

	case messages.EventMove:
		var payload messages.MovePayload
		if !h.decode(conn, msg.Message.Payload, &payload) {
			return
		}
		h.manager.HandleMove(conn, payload)

	case messages.EventResign:
		var payload messages.ResignPayload
		if !h.decode(conn, msg.Message.Payload, &payload) {
			return
		}
		h.manager.HandleResign(conn, payload)

	case messages.EventReconnect:
		var payload messages.ReconnectPayload
		if !h.decode(conn, msg.Message.Payload, &payload) {
			return
		}
		h.manager.HandleReconnect(conn, payload)

	case messages.EventOffer, messages.EventAnswer, messages.EventICECandidate:
		var payload messages.SignalPayload
		if !h.decode(conn, msg.Message.Payload, &payload) {
			return
		}
		h.manager.HandleSignal(conn, msg.Message.Event, payload)

	default:
		h.sendError(conn, "Unknown message type")
	}
}

// decode unmarshals a payload, reporting a structural error to the sender.
func (h *Hub) decode(conn *Connection, raw json.RawMessage, v interface{}) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		h.logger.Warn("invalid payload",
			zap.String("connection_id", conn.ID.String()),
			zap.Error(err))
		h.sendError(conn, "Invalid payload")
		return false
	}
	return true
}

func (h *Hub) sendError(conn *Connection, msg string) {
	conn.SendJSON(messages.OutboundMessage{
		Event:   messages.EventError,
		Payload: messages.ErrorPayload{Message: msg},
	})
}
