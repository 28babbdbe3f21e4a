package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TimeControl defines the time settings for a session: the starting budget
// per player and the credit added after each completed move.
type TimeControl struct {
	Initial   time.Duration
	Increment time.Duration
}

// Clock tracks the two countdowns of one session. All accounting happens
// against the injected wall clock so tests can drive time deterministically.
//
// A player times out at most once: the first settlement that would cross zero
// floors the countdown at zero, records the flagged player, and stops the
// clock. Every later call is a no-op.
type Clock struct {
	mu sync.Mutex

	remaining map[string]time.Duration
	increment time.Duration

	active   string
	lastTick time.Time
	running  bool
	flagged  string

	clk clockwork.Clock
}

// NewClock creates a stopped clock for the two named players.
func NewClock(playerA, playerB string, tc TimeControl, clk clockwork.Clock) *Clock {
	return &Clock{
		remaining: map[string]time.Duration{
			playerA: tc.Initial,
			playerB: tc.Initial,
		},
		increment: tc.Increment,
		clk:       clk,
	}
}

// Start begins accounting from now against the first mover's budget.
func (c *Clock) Start(firstPlayer string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running || c.flagged != "" {
		return
	}
	c.active = firstPlayer
	c.lastTick = c.clk.Now()
	c.running = true
}

// Stop halts accounting after settling the active player's elapsed time.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	c.settle()
	c.running = false
}

// AccountElapsed settles elapsed wall-clock time against the active player.
// It returns the flagged player and true exactly once, on the call whose
// settlement crosses zero.
func (c *Clock) AccountElapsed() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return "", false
	}
	return c.settle()
}

// MoveCompleted settles the mover's elapsed time and, if they have not been
// flagged by that settlement, credits the increment and hands the clock to
// the opponent. It returns the flagged player and true when the mover ran
// out before completing the move.
func (c *Clock) MoveCompleted(mover, next string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return c.flagged, c.flagged != ""
	}
	if flagged, just := c.settle(); just {
		return flagged, true
	}

	c.remaining[mover] += c.increment
	c.active = next
	return "", false
}

// settle applies elapsed time since lastTick to the active player. Callers
// hold c.mu.
func (c *Clock) settle() (string, bool) {
	now := c.clk.Now()
	elapsed := now.Sub(c.lastTick)
	c.lastTick = now

	rem := c.remaining[c.active] - elapsed
	if rem <= 0 {
		c.remaining[c.active] = 0
		c.flagged = c.active
		c.running = false
		return c.active, true
	}
	c.remaining[c.active] = rem
	return "", false
}

// Remaining returns the live countdown for one player, floored at zero.
func (c *Clock) Remaining(player string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	rem := c.remaining[player]
	if c.running && player == c.active {
		rem -= c.clk.Now().Sub(c.lastTick)
	}
	if rem < 0 {
		rem = 0
	}
	return rem
}

// Snapshot returns both countdowns in milliseconds, computed live.
func (c *Clock) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := make(map[string]int64, len(c.remaining))
	for player, rem := range c.remaining {
		if c.running && player == c.active {
			rem -= c.clk.Now().Sub(c.lastTick)
		}
		if rem < 0 {
			rem = 0
		}
		snap[player] = rem.Milliseconds()
	}
	return snap
}

// Active returns the player whose countdown is running.
func (c *Clock) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}
