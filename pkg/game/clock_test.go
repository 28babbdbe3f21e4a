package game

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClock(tc TimeControl) (*Clock, *clockwork.FakeClock) {
	fake := clockwork.NewFakeClock()
	return NewClock("alice", "bob", tc, fake), fake
}

func TestClockCountsDownActivePlayerOnly(t *testing.T) {
	c, fake := newTestClock(TimeControl{Initial: time.Minute})

	c.Start("alice")
	fake.Advance(10 * time.Second)

	assert.Equal(t, 50*time.Second, c.Remaining("alice"))
	assert.Equal(t, time.Minute, c.Remaining("bob"))
}

func TestClockMoveCompletedCreditsIncrementAndSwitches(t *testing.T) {
	c, fake := newTestClock(TimeControl{Initial: time.Minute, Increment: 2 * time.Second})

	c.Start("alice")
	fake.Advance(5 * time.Second)

	flagged, timedOut := c.MoveCompleted("alice", "bob")
	require.False(t, timedOut)
	assert.Empty(t, flagged)

	// 60 - 5 + 2 increment
	assert.Equal(t, 57*time.Second, c.Remaining("alice"))
	assert.Equal(t, "bob", c.Active())

	fake.Advance(3 * time.Second)
	assert.Equal(t, 57*time.Second, c.Remaining("alice"))
	assert.Equal(t, 57*time.Second, c.Remaining("bob"))
}

func TestClockMoveCompletedAfterBudgetExhaustedFlags(t *testing.T) {
	c, fake := newTestClock(TimeControl{Initial: 10 * time.Second, Increment: 5 * time.Second})

	c.Start("alice")
	fake.Advance(11 * time.Second)

	flagged, timedOut := c.MoveCompleted("alice", "bob")
	require.True(t, timedOut)
	assert.Equal(t, "alice", flagged)

	// No increment credit for a flagged mover, floor at zero.
	assert.Equal(t, time.Duration(0), c.Remaining("alice"))
}

func TestClockFlagsExactlyOnce(t *testing.T) {
	c, fake := newTestClock(TimeControl{Initial: time.Second})

	c.Start("alice")
	fake.Advance(2 * time.Second)

	flagged, ok := c.AccountElapsed()
	require.True(t, ok)
	assert.Equal(t, "alice", flagged)

	for i := 0; i < 3; i++ {
		fake.Advance(time.Second)
		_, ok := c.AccountElapsed()
		assert.False(t, ok)
	}
}

func TestClockRemainingNeverNegative(t *testing.T) {
	c, fake := newTestClock(TimeControl{Initial: time.Second})

	c.Start("alice")
	fake.Advance(time.Hour)

	assert.GreaterOrEqual(t, c.Remaining("alice"), time.Duration(0))
	for _, ms := range c.Snapshot() {
		assert.GreaterOrEqual(t, ms, int64(0))
	}
}

func TestClockSnapshotIsLive(t *testing.T) {
	c, fake := newTestClock(TimeControl{Initial: time.Minute})

	c.Start("alice")
	fake.Advance(15 * time.Second)

	snap := c.Snapshot()
	assert.Equal(t, int64(45000), snap["alice"])
	assert.Equal(t, int64(60000), snap["bob"])
}

func TestClockStopHaltsAccounting(t *testing.T) {
	c, fake := newTestClock(TimeControl{Initial: time.Minute})

	c.Start("alice")
	fake.Advance(10 * time.Second)
	c.Stop()
	fake.Advance(10 * time.Second)

	assert.Equal(t, 50*time.Second, c.Remaining("alice"))
	_, ok := c.AccountElapsed()
	assert.False(t, ok)
}
