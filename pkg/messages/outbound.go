package messages

import "encoding/json"

// OutboundMessage is how we wrap responses before sending them to the client.
type OutboundMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Outbound event kinds.
const (
	EventConnected            = "CONNECTED"
	EventWaiting              = "WAITING"
	EventGameCreated          = "GAME_CREATED"
	EventGameStarted          = "GAME_STARTED"
	EventGameState            = "GAME_STATE"
	EventGameOver             = "GAME_OVER"
	EventClockUpdate          = "CLOCK_UPDATE"
	EventError                = "ERROR"
	EventOpponentDisconnected = "OPPONENT_DISCONNECTED"
	EventReconnected          = "RECONNECTED"
)

type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
}

// WaitingPayload tells a queued player their position in the bucket.
type WaitingPayload struct {
	Message  string `json:"message"`
	Position int    `json:"position"`
}

// GameCreatedPayload returns the room id for a private game.
type GameCreatedPayload struct {
	Message string `json:"message"`
	GameID  string `json:"game_id"`
}

// GameStartedPayload goes to both players once a pairing succeeds.
type GameStartedPayload struct {
	GameID    string `json:"game_id"`
	Opponent  string `json:"opponent"`
	FirstTurn string `json:"turn"`
	TotalTime int64  `json:"total_time"`
	Increment int64  `json:"increment"`
}

// ClockSnapshot maps player name to remaining time in milliseconds.
type ClockSnapshot map[string]int64

// MovePayloadOut echoes an applied move to both sides, with the authoritative
// clock state and best-effort analysis. The analysis fields are omitted
// whenever the analysis engine fails or runs out of budget.
type MovePayloadOut struct {
	GameID string `json:"game_id"`
	Move   string `json:"move"`
	Turn   string `json:"turn"`

	Clocks ClockSnapshot `json:"clocks,omitempty"`

	Suggestion    string             `json:"suggestion,omitempty"`
	Evaluation    *float64           `json:"evaluation,omitempty"`
	WinningChance map[string]float64 `json:"winning_chance,omitempty"`
}

// GameStatePayload replays the full session state to a reconnecting player.
type GameStatePayload struct {
	GameID string        `json:"game_id"`
	Moves  []string      `json:"moves"`
	Turn   string        `json:"turn"`
	Status string        `json:"status"`
	Clocks ClockSnapshot `json:"clocks"`
}

// GameOverPayload announces the final status; Winner is empty on a draw.
type GameOverPayload struct {
	Status string `json:"status"`
	Winner string `json:"winner,omitempty"`
}

// ClockUpdatePayload is the periodic clock broadcast.
type ClockUpdatePayload struct {
	GameID string        `json:"game_id"`
	Clocks ClockSnapshot `json:"clocks"`
	Active string        `json:"active"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// PlayerPayload names a player for presence notifications.
type PlayerPayload struct {
	PlayerName string `json:"player_name"`
}

// SignalPayloadOut forwards an opaque signaling body to the opponent.
type SignalPayloadOut struct {
	GameID string          `json:"game_id"`
	From   string          `json:"from"`
	Body   json.RawMessage `json:"body"`
}
