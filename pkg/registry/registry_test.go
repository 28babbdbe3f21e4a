package registry

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/knightwatch/arena-server/pkg/game"
	"github.com/knightwatch/arena-server/pkg/rules"
)

// stubConn carries a name so every instance is a distinct allocation;
// zero-size values may share an address and compare equal.
type stubConn struct{ name string }

func (s *stubConn) SendJSON(v interface{}) {}

func newSession(connA, connB game.Conn) *game.Session {
	return game.NewSession(game.SessionParams{
		ID:          uuid.New(),
		PlayerA:     "alice",
		PlayerB:     "bob",
		ConnA:       connA,
		ConnB:       connB,
		TimeControl: game.TimeControl{Initial: time.Minute},
		Rules:       rules.NewChessEngine(),
		WallClock:   clockwork.NewFakeClock(),
		Logger:      zap.NewNop(),
	})
}

func TestRegistryAddGetRemove(t *testing.T) {
	r := New()
	s := newSession(&stubConn{name: "a"}, &stubConn{name: "b"})

	r.Add(s)
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.Get(uuid.New())
	assert.False(t, ok)

	assert.True(t, r.Remove(s.ID))
	assert.Equal(t, 0, r.Len())

	// Racing terminal paths: only one caller wins the removal.
	assert.False(t, r.Remove(s.ID))
}

func TestRegistryFindByConn(t *testing.T) {
	r := New()
	connA := &stubConn{name: "alice"}
	connB := &stubConn{name: "bob"}
	s := newSession(connA, connB)
	r.Add(s)

	found, player, ok := r.FindByConn(connB)
	require.True(t, ok)
	assert.Same(t, s, found)
	assert.Equal(t, "bob", player)

	_, _, ok = r.FindByConn(&stubConn{name: "other"})
	assert.False(t, ok)
}
