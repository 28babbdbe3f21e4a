// Package events is a small in-process pub/sub used to decouple session
// lifecycle observers (logging, metrics hooks) from the orchestrator.
package events

import "sync"

// EventType represents the type of event.
type EventType string

// All lifecycle events the orchestrator publishes.
const (
	EventGameStarted        EventType = "GAME_STARTED"
	EventMoveApplied        EventType = "MOVE_APPLIED"
	EventGameFinished       EventType = "GAME_FINISHED"
	EventPlayerDisconnected EventType = "PLAYER_DISCONNECTED"
	EventPlayerReconnected  EventType = "PLAYER_RECONNECTED"
	EventConnectionClosed   EventType = "CONNECTION_CLOSED"
)

// allEvents subscribes a handler to every published type.
const allEvents EventType = "*"

// Event represents an event in the system.
type Event struct {
	Type      EventType
	SessionID string // empty for non-session events
	Payload   interface{}
}

// Handler is a function that processes events.
type Handler func(event Event)

// Publisher is the central event publisher.
type Publisher struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Handler
}

// NewPublisher creates a new event publisher.
func NewPublisher() *Publisher {
	return &Publisher{
		subscribers: make(map[EventType][]Handler),
	}
}

// Subscribe registers a handler for a specific event type.
func (p *Publisher) Subscribe(eventType EventType, handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.subscribers[eventType] = append(p.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for all event types.
func (p *Publisher) SubscribeAll(handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.subscribers[allEvents] = append(p.subscribers[allEvents], handler)
}

// Publish broadcasts an event to its subscribers and to the catch-all
// handlers. Handlers run concurrently; publishers never block on them.
func (p *Publisher) Publish(event Event) {
	p.mu.RLock()
	handlers := p.subscribers[event.Type]
	catchAll := p.subscribers[allEvents]
	p.mu.RUnlock()

	for _, handler := range handlers {
		go handler(event)
	}
	for _, handler := range catchAll {
		go handler(event)
	}
}
