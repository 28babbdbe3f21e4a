package manager

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type graceKey struct {
	session uuid.UUID
	player  string
}

type graceTimer struct {
	timer  clockwork.Timer
	cancel chan struct{}
}

// Supervisor runs the disconnect grace-period timers, one per
// (session, player). Scheduling the same key again replaces the previous
// timer, so timers never stack. Expiry only invokes the callback when the
// timer is still the active one for its key; the callback re-validates the
// session on top of that, so a late firing is always harmless.
type Supervisor struct {
	mu     sync.Mutex
	timers map[graceKey]*graceTimer

	clk      clockwork.Clock
	grace    time.Duration
	onExpire func(sessionID uuid.UUID, player string)
	logger   *zap.Logger
}

// NewSupervisor creates a supervisor firing onExpire after grace.
func NewSupervisor(
	clk clockwork.Clock,
	grace time.Duration,
	onExpire func(sessionID uuid.UUID, player string),
	logger *zap.Logger,
) *Supervisor {
	return &Supervisor{
		timers:   make(map[graceKey]*graceTimer),
		clk:      clk,
		grace:    grace,
		onExpire: onExpire,
		logger:   logger,
	}
}

// Watch starts (or restarts) the grace timer for a disconnected player.
func (s *Supervisor) Watch(sessionID uuid.UUID, player string) {
	key := graceKey{session: sessionID, player: player}
	gt := &graceTimer{
		timer:  s.clk.NewTimer(s.grace),
		cancel: make(chan struct{}),
	}

	s.mu.Lock()
	if old, ok := s.timers[key]; ok {
		close(old.cancel)
	}
	s.timers[key] = gt
	s.mu.Unlock()

	s.logger.Debug("grace timer started",
		zap.String("session_id", sessionID.String()),
		zap.String("player", player),
		zap.Duration("grace", s.grace),
	)

	go func() {
		select {
		case <-gt.timer.Chan():
			if s.release(key, gt) {
				s.onExpire(sessionID, player)
			}
		case <-gt.cancel:
			stopAndDrainTimer(gt.timer)
		}
	}()
}

// Cancel drops the pending timer for a player, if any. Idempotent.
func (s *Supervisor) Cancel(sessionID uuid.UUID, player string) {
	key := graceKey{session: sessionID, player: player}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gt, ok := s.timers[key]; ok {
		close(gt.cancel)
		delete(s.timers, key)
	}
}

// CancelSession drops every pending timer of a session, called when the
// session reaches a terminal status.
func (s *Supervisor) CancelSession(sessionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, gt := range s.timers {
		if key.session == sessionID {
			close(gt.cancel)
			delete(s.timers, key)
		}
	}
}

// release removes the key if gt is still its active timer, reporting
// whether this firing should proceed.
func (s *Supervisor) release(key graceKey, gt *graceTimer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.timers[key]; ok && cur == gt {
		delete(s.timers, key)
		return true
	}
	return false
}

// stopAndDrainTimer stops a timer and drains its channel so a concurrent
// fire cannot leak, the pattern time.Timer.Stop documents.
func stopAndDrainTimer(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}
