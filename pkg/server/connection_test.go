package server

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/knightwatch/arena-server/pkg/messages"
)

func testMessage() messages.OutboundMessage {
	return messages.OutboundMessage{
		Event:   messages.EventClockUpdate,
		Payload: messages.ClockUpdatePayload{GameID: "g"},
	}
}

func TestSendJSONAfterCloseIsDropped(t *testing.T) {
	c := NewConnection(nil, nil, zap.NewNop())

	c.SendJSON(testMessage())
	c.closeSend()

	assert.NotPanics(t, func() { c.SendJSON(testMessage()) })
}

func TestCloseSendIsIdempotent(t *testing.T) {
	c := NewConnection(nil, nil, zap.NewNop())

	c.closeSend()
	assert.NotPanics(t, func() { c.closeSend() })
}

func TestSendJSONRacingCloseDoesNotPanic(t *testing.T) {
	// A session broadcast can hold this connection handle while the hub tears
	// it down; queueing must lose that race cleanly.
	c := NewConnection(nil, nil, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.SendJSON(testMessage())
			}
		}()
	}
	c.closeSend()
	wg.Wait()
}

func TestSendJSONDropsWhenBufferFull(t *testing.T) {
	c := NewConnection(nil, nil, zap.NewNop())

	// Nothing drains c.send in this test; overfilling must not block.
	for i := 0; i < cap(c.send)+10; i++ {
		c.SendJSON(testMessage())
	}
	assert.Len(t, c.send, cap(c.send))
}
