package messages

import "encoding/json"

// InboundMessage is the generic wrapper for messages coming from the client.
// The "event" field tells us the action; "payload" is the data we parse further,
// once, at the router boundary.
type InboundMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Inbound event kinds.
const (
	EventInitGame     = "INIT_GAME"
	EventCreateGame   = "CREATE_GAME"
	EventJoinGame     = "JOIN_GAME"
	EventMove         = "MOVE"
	EventResign       = "RESIGN"
	EventReconnect    = "RECONNECT"
	EventOffer        = "OFFER"
	EventAnswer       = "ANSWER"
	EventICECandidate = "ICE_CANDIDATE"
)

// InitGamePayload asks to be queued for an opponent under a time control.
type InitGamePayload struct {
	PlayerName string `json:"player_name"`
	TotalTime  int64  `json:"total_time"` // seconds
	Increment  int64  `json:"increment"`  // seconds
}

// CreateGamePayload opens a private room to share with a friend.
type CreateGamePayload struct {
	PlayerName string `json:"player_name"`
	TotalTime  int64  `json:"total_time"`
	Increment  int64  `json:"increment"`
}

// JoinGamePayload joins a previously created private room.
type JoinGamePayload struct {
	PlayerName string `json:"player_name"`
	GameID     string `json:"game_id"`
}

// MovePayload submits a move for an ongoing session.
type MovePayload struct {
	GameID string `json:"game_id"`
	Move   string `json:"move"`
}

// ResignPayload concedes an ongoing session.
type ResignPayload struct {
	GameID string `json:"game_id"`
}

// ReconnectPayload rebinds a player to a session after a dropped connection.
type ReconnectPayload struct {
	PlayerName string `json:"player_name"`
	GameID     string `json:"game_id"`
}

// SignalPayload carries an opaque WebRTC signaling message. Only the session
// id is inspected; the body is forwarded verbatim to the opponent.
type SignalPayload struct {
	GameID string          `json:"game_id"`
	Body   json.RawMessage `json:"body"`
}
