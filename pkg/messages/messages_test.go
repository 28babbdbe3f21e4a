package messages

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInboundEnvelopeDefersPayloadParsing(t *testing.T) {
	raw := []byte(`{"event":"MOVE","payload":{"game_id":"abc","move":"e2e4"}}`)

	var msg InboundMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, EventMove, msg.Event)

	var mv MovePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &mv))
	assert.Equal(t, "abc", mv.GameID)
	assert.Equal(t, "e2e4", mv.Move)
}

func TestSignalPayloadBodyIsOpaque(t *testing.T) {
	raw := []byte(`{"game_id":"abc","body":{"type":"offer","sdp":"v=0..."}}`)

	var sig SignalPayload
	require.NoError(t, json.Unmarshal(raw, &sig))
	assert.Equal(t, "abc", sig.GameID)
	assert.JSONEq(t, `{"type":"offer","sdp":"v=0..."}`, string(sig.Body))
}

func TestOutboundMessageShape(t *testing.T) {
	out := OutboundMessage{
		Event: EventGameStarted,
		Payload: GameStartedPayload{
			GameID:    "abc",
			Opponent:  "bob",
			FirstTurn: "alice",
			TotalTime: 300,
			Increment: 2,
		},
	}

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"event": "GAME_STARTED",
		"payload": {
			"game_id": "abc",
			"opponent": "bob",
			"turn": "alice",
			"total_time": 300,
			"increment": 2
		}
	}`, string(data))
}

func TestMovePayloadOutOmitsAnalysisWhenAbsent(t *testing.T) {
	out := MovePayloadOut{
		GameID: "abc",
		Move:   "e4",
		Turn:   "bob",
		Clocks: ClockSnapshot{"alice": 299000, "bob": 300000},
	}

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "evaluation")
	assert.NotContains(t, string(data), "suggestion")
	assert.NotContains(t, string(data), "winning_chance")
}
