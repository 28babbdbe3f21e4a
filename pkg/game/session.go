// Package game holds the session state machine and its clock: whose turn it
// is, how much time each player has left, and how a game reaches a terminal
// status. Everything that mutates one session is serialized on that
// session's mutex; unrelated sessions never contend.
package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/knightwatch/arena-server/pkg/rules"
)

// Conn is the live connection handle bound to a player.
type Conn interface {
	SendJSON(v interface{})
}

// Status is the session lifecycle state. It is monotonic: once a session
// leaves StatusOngoing it never returns.
type Status string

const (
	StatusOngoing      Status = "ongoing"
	StatusCheckmate    Status = "checkmate"
	StatusStalemate    Status = "stalemate"
	StatusDraw         Status = "draw"
	StatusResigned     Status = "resigned"
	StatusTimeout      Status = "timeout"
	StatusDisconnected Status = "disconnected"
)

// Terminal reports whether the status ends the session.
func (s Status) Terminal() bool { return s != StatusOngoing }

// SessionParams carries everything needed to create a session.
type SessionParams struct {
	ID      uuid.UUID
	PlayerA string // moves first
	PlayerB string
	ConnA   Conn
	ConnB   Conn

	TimeControl TimeControl
	Rules       rules.Engine
	WallClock   clockwork.Clock
	Logger      *zap.Logger
}

// MoveResult reports what one accepted ApplyMove did.
type MoveResult struct {
	Move   rules.Move
	Turn   string
	Status Status
	Winner string
	Clocks map[string]int64
	FEN    string

	// TimedOut means the mover's own clock crossed zero before the move
	// completed; the move was not applied and the caller must run the
	// timeout path instead.
	TimedOut bool
}

// Session is one active game between two identified players.
type Session struct {
	ID      uuid.UUID
	PlayerA string
	PlayerB string

	mu           sync.Mutex
	turn         string
	status       Status
	moveLog      []string // SAN
	pos          rules.Position
	conns        map[string]Conn
	disconnected string
	deadline     time.Time

	clock *Clock
	rules rules.Engine

	done     chan struct{}
	doneOnce sync.Once

	logger *zap.Logger
}

// NewSession creates an ongoing session with PlayerA to move and a fresh,
// not-yet-started clock.
func NewSession(p SessionParams) *Session {
	return &Session{
		ID:      p.ID,
		PlayerA: p.PlayerA,
		PlayerB: p.PlayerB,
		turn:    p.PlayerA,
		status:  StatusOngoing,
		pos:     p.Rules.Start(),
		conns: map[string]Conn{
			p.PlayerA: p.ConnA,
			p.PlayerB: p.ConnB,
		},
		clock: NewClock(p.PlayerA, p.PlayerB, p.TimeControl, p.WallClock),
		rules: p.Rules,
		done:  make(chan struct{}),
		logger: p.Logger.With(
			zap.String("session_id", p.ID.String()),
		),
	}
}

// Clock exposes the session's clock. Its lifetime is bound to the session.
func (s *Session) Clock() *Clock { return s.clock }

// Done is closed exactly once, when the session reaches a terminal status.
func (s *Session) Done() <-chan struct{} { return s.done }

// Opponent resolves the other player of a session member.
func (s *Session) Opponent(player string) string {
	if player == s.PlayerA {
		return s.PlayerB
	}
	return s.PlayerA
}

// HasPlayer reports whether the named player belongs to this session.
func (s *Session) HasPlayer(player string) bool {
	return player == s.PlayerA || player == s.PlayerB
}

// PlayerByConn resolves the acting player from a connection handle. Events
// are attributed this way, never by a name claimed in a payload.
func (s *Session) PlayerByConn(conn Conn) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for player, c := range s.conns {
		if c == conn {
			return player, true
		}
	}
	return "", false
}

// ConnOf returns the live connection of a player, if any.
func (s *Session) ConnOf(player string) (Conn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[player]
	return c, ok && c != nil
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Turn returns the player allowed to move next.
func (s *Session) Turn() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// Moves returns a copy of the move log.
func (s *Session) Moves() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.moveLog...)
}

// ApplyMove validates and applies one move for player. Rejections leave the
// move log, turn and clock untouched.
func (s *Session) ApplyMove(player, notation string) (MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() {
		return MoveResult{}, ErrGameFinished
	}
	if player != s.turn {
		return MoveResult{}, ErrNotYourTurn
	}

	mv, err := s.rules.ParseMove(s.pos, notation)
	if err != nil {
		return MoveResult{}, err
	}
	next, err := s.rules.Apply(s.pos, mv)
	if err != nil {
		return MoveResult{}, err
	}

	// Settle the mover's clock before committing the turn change. A mover
	// whose time ran out loses the race: the move is discarded and the
	// caller runs the timeout path.
	opponent := s.Opponent(player)
	if _, flagged := s.clock.MoveCompleted(player, opponent); flagged {
		return MoveResult{TimedOut: true, Status: s.status}, nil
	}

	s.pos = next
	s.moveLog = append(s.moveLog, mv.SAN)

	res := MoveResult{
		Move: mv,
		FEN:  s.pos.FEN(),
	}

	switch s.rules.TerminalStatus(s.pos) {
	case rules.StatusCheckmate:
		s.finishLocked(StatusCheckmate)
		res.Winner = player
	case rules.StatusStalemate:
		s.finishLocked(StatusStalemate)
	case rules.StatusInsufficientMaterial:
		s.finishLocked(StatusDraw)
	default:
		s.turn = opponent
	}

	res.Turn = s.turn
	res.Status = s.status
	res.Clocks = s.clock.Snapshot()

	s.logger.Info("processed move",
		zap.String("player", player),
		zap.String("move", mv.SAN),
		zap.String("new_turn", s.turn),
		zap.String("status", string(s.status)),
	)

	return res, nil
}

// ForceTimeout ends the session because player's countdown reached zero.
// Called only from the clock path. Returns the winner and true on the call
// that performs the transition; later calls are no-ops.
func (s *Session) ForceTimeout(player string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() || !s.HasPlayer(player) {
		return "", false
	}
	s.finishLocked(StatusTimeout)
	return s.Opponent(player), true
}

// Resign concedes the game for player.
func (s *Session) Resign(player string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() || !s.HasPlayer(player) {
		return "", false
	}
	s.finishLocked(StatusResigned)
	return s.Opponent(player), true
}

// MarkDisconnected records a dropped connection while the game is ongoing.
func (s *Session) MarkDisconnected(player string, deadline time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() || !s.HasPlayer(player) {
		return false
	}
	s.conns[player] = nil
	s.disconnected = player
	s.deadline = deadline
	return true
}

// MarkReconnected rebinds a live connection for a player previously marked
// disconnected. It is a no-op for anyone else, which guards stale signals.
func (s *Session) MarkReconnected(player string, conn Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() || s.disconnected != player {
		return false
	}
	s.conns[player] = conn
	s.disconnected = ""
	s.deadline = time.Time{}
	return true
}

// ForfeitDisconnected ends the session after a grace period expired. Both
// conditions are re-validated here: the session must still be ongoing and
// this exact player must still be the disconnected one, so a late-firing
// timer after a reconnection or a normal game end is harmless.
func (s *Session) ForfeitDisconnected(player string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() || s.disconnected != player {
		return "", false
	}
	s.finishLocked(StatusDisconnected)
	return s.Opponent(player), true
}

// DisconnectedPlayer returns the player awaiting reconnection, if any.
func (s *Session) DisconnectedPlayer() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnected, s.deadline
}

// TickClock re-accounts elapsed time. It reports the flagged player and true
// on the tick that detects a timeout; a tick against a terminal session is a
// no-op, never an error.
func (s *Session) TickClock() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() {
		return "", false
	}
	return s.clock.AccountElapsed()
}

// State captures the session for replay to a reconnecting player.
type State struct {
	Moves  []string
	Turn   string
	Status Status
	Clocks map[string]int64
}

// Snapshot returns a consistent copy of the visible session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		Moves:  append([]string(nil), s.moveLog...),
		Turn:   s.turn,
		Status: s.status,
		Clocks: s.clock.Snapshot(),
	}
}

// finishLocked performs the one-way transition out of StatusOngoing.
// Callers hold s.mu and have already checked the session is ongoing.
func (s *Session) finishLocked(status Status) {
	s.status = status
	s.disconnected = ""
	s.deadline = time.Time{}
	s.clock.Stop()
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Session) String() string {
	return fmt.Sprintf("session %s (%s vs %s)", s.ID, s.PlayerA, s.PlayerB)
}
