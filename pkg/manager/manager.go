// Package manager is the session orchestrator: it turns pairings into live
// sessions, routes moves through the rules engine, runs the clock tickers,
// supervises disconnect grace periods, and hands finished games to the
// archive.
package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/knightwatch/arena-server/pkg/analysis"
	"github.com/knightwatch/arena-server/pkg/archive"
	"github.com/knightwatch/arena-server/pkg/events"
	"github.com/knightwatch/arena-server/pkg/game"
	"github.com/knightwatch/arena-server/pkg/matchmaking"
	"github.com/knightwatch/arena-server/pkg/messages"
	"github.com/knightwatch/arena-server/pkg/registry"
	"github.com/knightwatch/arena-server/pkg/rules"
)

// Config carries the orchestrator's timing knobs.
type Config struct {
	GracePeriod time.Duration
	ClockTick   time.Duration
}

// Manager coordinates matchmaking, sessions, clocks and persistence.
type Manager struct {
	registry  *registry.Registry
	queue     *matchmaking.Queue
	rules     rules.Engine
	analyzer  analysis.Analyzer // nil disables move suggestions
	recorder  archive.Recorder
	publisher *events.Publisher
	super     *Supervisor
	clk       clockwork.Clock
	cfg       Config
	logger    *zap.Logger
}

// New wires the orchestrator together.
func New(
	reg *registry.Registry,
	queue *matchmaking.Queue,
	rulesEngine rules.Engine,
	analyzer analysis.Analyzer,
	recorder archive.Recorder,
	publisher *events.Publisher,
	clk clockwork.Clock,
	cfg Config,
	logger *zap.Logger,
) *Manager {
	m := &Manager{
		registry:  reg,
		queue:     queue,
		rules:     rulesEngine,
		analyzer:  analyzer,
		recorder:  recorder,
		publisher: publisher,
		clk:       clk,
		cfg:       cfg,
		logger:    logger,
	}
	m.super = NewSupervisor(clk, cfg.GracePeriod, m.expireGrace, logger)
	return m
}

// HandleInitGame queues a player for open matchmaking, starting a session
// immediately when a compatible opponent is already waiting.
func (m *Manager) HandleInitGame(conn game.Conn, p messages.InitGamePayload) {
	if p.PlayerName == "" || p.TotalTime <= 0 || p.Increment < 0 {
		m.sendError(conn, "Invalid player name or time control.")
		return
	}

	ticket := &matchmaking.Ticket{
		Player:     p.PlayerName,
		Conn:       conn,
		Key:        matchmaking.Key{TotalTime: p.TotalTime, Increment: p.Increment},
		EnqueuedAt: m.clk.Now(),
	}

	pairing, position := m.queue.Enqueue(ticket)
	if pairing == nil {
		conn.SendJSON(messages.OutboundMessage{
			Event: messages.EventWaiting,
			Payload: messages.WaitingPayload{
				Message: fmt.Sprintf(
					"Waiting for an opponent with %ds + %ds increment... (%d players in queue)",
					p.TotalTime, p.Increment, position,
				),
				Position: position,
			},
		})
		return
	}

	m.startSession(pairing)
}

// HandleCreateGame opens a private room and returns its id to the creator.
func (m *Manager) HandleCreateGame(conn game.Conn, p messages.CreateGamePayload) {
	if p.PlayerName == "" || p.TotalTime <= 0 || p.Increment < 0 {
		m.sendError(conn, "Invalid player name or time control.")
		return
	}

	roomID := m.queue.CreateRoom(&matchmaking.Ticket{
		Player:     p.PlayerName,
		Conn:       conn,
		Key:        matchmaking.Key{TotalTime: p.TotalTime, Increment: p.Increment},
		EnqueuedAt: m.clk.Now(),
	})

	conn.SendJSON(messages.OutboundMessage{
		Event: messages.EventGameCreated,
		Payload: messages.GameCreatedPayload{
			Message: "Game created. Share the game ID to invite a friend.",
			GameID:  roomID,
		},
	})
}

// HandleJoinGame pairs a player into a previously created room.
func (m *Manager) HandleJoinGame(conn game.Conn, p messages.JoinGamePayload) {
	if p.PlayerName == "" {
		m.sendError(conn, "Invalid player name.")
		return
	}

	pairing, err := m.queue.JoinRoom(p.GameID, &matchmaking.Ticket{
		Player:     p.PlayerName,
		Conn:       conn,
		EnqueuedAt: m.clk.Now(),
	})
	if err != nil {
		m.sendError(conn, "Invalid game ID or game not available for joining.")
		return
	}

	m.startSession(pairing)
}

// startSession creates the session for a pairing, registers it, notifies
// both players and starts the clock ticker.
func (m *Manager) startSession(pairing *matchmaking.Pairing) {
	sess := game.NewSession(game.SessionParams{
		ID:          uuid.New(),
		PlayerA:     pairing.First.Player,
		PlayerB:     pairing.Second.Player,
		ConnA:       pairing.First.Conn,
		ConnB:       pairing.Second.Conn,
		TimeControl: pairing.Key.TimeControl(),
		Rules:       m.rules,
		WallClock:   m.clk,
		Logger:      m.logger,
	})

	m.registry.Add(sess)

	m.logger.Info("session started",
		zap.String("session_id", sess.ID.String()),
		zap.String("player_a", sess.PlayerA),
		zap.String("player_b", sess.PlayerB),
		zap.Int64("total_time", pairing.Key.TotalTime),
		zap.Int64("increment", pairing.Key.Increment),
	)
	m.publisher.Publish(events.Event{
		Type:      events.EventGameStarted,
		SessionID: sess.ID.String(),
	})

	for _, ticket := range []*matchmaking.Ticket{pairing.First, pairing.Second} {
		ticket.Conn.SendJSON(messages.OutboundMessage{
			Event: messages.EventGameStarted,
			Payload: messages.GameStartedPayload{
				GameID:    sess.ID.String(),
				Opponent:  sess.Opponent(ticket.Player),
				FirstTurn: sess.PlayerA,
				TotalTime: pairing.Key.TotalTime,
				Increment: pairing.Key.Increment,
			},
		})
	}

	sess.Clock().Start(sess.PlayerA)
	go m.runTicker(sess)
}

// runTicker re-accounts the session clock at the configured interval so an
// idle player is flagged promptly, and broadcasts clock snapshots. It stops
// exactly once, when the session becomes terminal.
func (m *Manager) runTicker(sess *game.Session) {
	ticker := m.clk.NewTicker(m.cfg.ClockTick)
	defer ticker.Stop()

	for {
		select {
		case <-sess.Done():
			return
		case <-ticker.Chan():
			flagged, timedOut := sess.TickClock()
			if timedOut {
				m.finishTimeout(sess, flagged)
				return
			}
			if sess.Status().Terminal() {
				return
			}
			m.broadcast(sess, messages.OutboundMessage{
				Event: messages.EventClockUpdate,
				Payload: messages.ClockUpdatePayload{
					GameID: sess.ID.String(),
					Clocks: sess.Clock().Snapshot(),
					Active: sess.Clock().Active(),
				},
			})
		}
	}
}

// HandleMove applies a move for whoever owns the sending connection.
func (m *Manager) HandleMove(conn game.Conn, p messages.MovePayload) {
	sess, ok := m.lookup(conn, p.GameID)
	if !ok {
		return
	}
	player, ok := sess.PlayerByConn(conn)
	if !ok {
		m.sendError(conn, "Player not found in the game!")
		return
	}

	res, err := sess.ApplyMove(player, p.Move)
	switch {
	case errors.Is(err, game.ErrNotYourTurn):
		m.sendError(conn, "It's not your turn!")
		return
	case errors.Is(err, rules.ErrIllegalMove):
		m.sendError(conn, fmt.Sprintf("Invalid move: %s", p.Move))
		return
	case errors.Is(err, game.ErrGameFinished):
		m.sendError(conn, "Game is already over.")
		return
	case err != nil:
		m.logger.Error("move failed", zap.Error(err))
		m.sendError(conn, "Could not process move.")
		return
	}

	if res.TimedOut {
		m.finishTimeout(sess, player)
		return
	}

	out := messages.MovePayloadOut{
		GameID: sess.ID.String(),
		Move:   res.Move.SAN,
		Turn:   res.Turn,
		Clocks: res.Clocks,
	}

	if res.Status == game.StatusOngoing {
		m.annotate(&out, res.FEN)
		m.broadcast(sess, messages.OutboundMessage{Event: messages.EventMove, Payload: out})
		m.publisher.Publish(events.Event{
			Type:      events.EventMoveApplied,
			SessionID: sess.ID.String(),
			Payload:   res.Move.SAN,
		})
		return
	}

	// Terminal move: echo it without analysis, then close the session out.
	m.broadcast(sess, messages.OutboundMessage{Event: messages.EventMove, Payload: out})
	m.finish(sess, res.Status, res.Winner)
}

// annotate attaches best-effort analysis to an outbound move. Any engine
// failure or timeout leaves the fields absent; it never affects the move.
func (m *Manager) annotate(out *messages.MovePayloadOut, fen string) {
	if m.analyzer == nil {
		return
	}
	ctx := context.Background()

	eval, err := m.analyzer.Evaluate(ctx, fen)
	if err != nil {
		m.logger.Warn("evaluation unavailable", zap.Error(err))
	} else {
		pawns := eval.Pawns
		out.Evaluation = &pawns
		out.WinningChance = analysis.WinningChances(pawns)
	}

	suggestion, err := m.analyzer.SuggestMove(ctx, fen)
	if err != nil {
		m.logger.Warn("suggestion unavailable", zap.Error(err))
	} else {
		out.Suggestion = suggestion
	}
}

// HandleResign concedes the game for the sending connection's player.
func (m *Manager) HandleResign(conn game.Conn, p messages.ResignPayload) {
	sess, ok := m.lookup(conn, p.GameID)
	if !ok {
		return
	}
	player, ok := sess.PlayerByConn(conn)
	if !ok {
		m.sendError(conn, "Player not found in the game!")
		return
	}

	winner, ok := sess.Resign(player)
	if !ok {
		m.sendError(conn, "Game is already over.")
		return
	}
	m.finish(sess, game.StatusResigned, winner)
}

// HandleSignal forwards an opaque signaling payload to the sender's
// opponent. The sender is resolved from the connection, never from the body.
func (m *Manager) HandleSignal(conn game.Conn, kind string, p messages.SignalPayload) {
	sess, ok := m.lookup(conn, p.GameID)
	if !ok {
		return
	}
	player, ok := sess.PlayerByConn(conn)
	if !ok {
		m.sendError(conn, "Player not found in the game!")
		return
	}

	oppConn, ok := sess.ConnOf(sess.Opponent(player))
	if !ok {
		// Opponent currently disconnected; signaling is best effort.
		return
	}
	oppConn.SendJSON(messages.OutboundMessage{
		Event: kind,
		Payload: messages.SignalPayloadOut{
			GameID: sess.ID.String(),
			From:   player,
			Body:   p.Body,
		},
	})
}

// HandleReconnect rebinds a returning player to their session and replays
// the current state. A reconnect for a player who was never marked
// disconnected replays state without rebinding, guarding stale signals.
func (m *Manager) HandleReconnect(conn game.Conn, p messages.ReconnectPayload) {
	sess, ok := m.lookup(conn, p.GameID)
	if !ok {
		return
	}
	if !sess.HasPlayer(p.PlayerName) {
		m.sendError(conn, "Player not found in the game!")
		return
	}

	if sess.MarkReconnected(p.PlayerName, conn) {
		m.super.Cancel(sess.ID, p.PlayerName)
		m.publisher.Publish(events.Event{
			Type:      events.EventPlayerReconnected,
			SessionID: sess.ID.String(),
			Payload:   p.PlayerName,
		})
		m.logger.Info("player reconnected",
			zap.String("session_id", sess.ID.String()),
			zap.String("player", p.PlayerName),
		)

		if oppConn, ok := sess.ConnOf(sess.Opponent(p.PlayerName)); ok {
			oppConn.SendJSON(messages.OutboundMessage{
				Event:   messages.EventReconnected,
				Payload: messages.PlayerPayload{PlayerName: p.PlayerName},
			})
		}
	}

	state := sess.Snapshot()
	conn.SendJSON(messages.OutboundMessage{
		Event: messages.EventGameState,
		Payload: messages.GameStatePayload{
			GameID: sess.ID.String(),
			Moves:  state.Moves,
			Turn:   state.Turn,
			Status: string(state.Status),
			Clocks: state.Clocks,
		},
	})
}

// HandleConnectionClosed withdraws a dropped connection from matchmaking
// and, if it was bound to an ongoing session, starts the grace period.
func (m *Manager) HandleConnectionClosed(conn game.Conn) {
	m.queue.Withdraw(conn)

	sess, player, ok := m.registry.FindByConn(conn)
	if !ok {
		return
	}

	deadline := m.clk.Now().Add(m.cfg.GracePeriod)
	if !sess.MarkDisconnected(player, deadline) {
		return
	}

	m.logger.Info("player disconnected",
		zap.String("session_id", sess.ID.String()),
		zap.String("player", player),
		zap.Time("deadline", deadline),
	)
	m.publisher.Publish(events.Event{
		Type:      events.EventPlayerDisconnected,
		SessionID: sess.ID.String(),
		Payload:   player,
	})

	if oppConn, ok := sess.ConnOf(sess.Opponent(player)); ok {
		oppConn.SendJSON(messages.OutboundMessage{
			Event:   messages.EventOpponentDisconnected,
			Payload: messages.PlayerPayload{PlayerName: player},
		})
	}

	m.super.Watch(sess.ID, player)
}

// expireGrace is the supervisor callback. Forfeiture only happens when the
// session is still ongoing and the same player is still the disconnected
// one; anything else makes the firing a no-op.
func (m *Manager) expireGrace(sessionID uuid.UUID, player string) {
	sess, ok := m.registry.Get(sessionID)
	if !ok {
		return
	}
	winner, ok := sess.ForfeitDisconnected(player)
	if !ok {
		return
	}

	m.logger.Info("grace period expired",
		zap.String("session_id", sessionID.String()),
		zap.String("player", player),
		zap.String("winner", winner),
	)
	m.finish(sess, game.StatusDisconnected, winner)
}

// finishTimeout runs the timeout path for a flagged player.
func (m *Manager) finishTimeout(sess *game.Session, flagged string) {
	winner, ok := sess.ForceTimeout(flagged)
	if !ok {
		return
	}
	m.logger.Info("player flagged",
		zap.String("session_id", sess.ID.String()),
		zap.String("player", flagged),
	)
	m.finish(sess, game.StatusTimeout, winner)
}

// finish archives a terminal session, notifies both players and removes the
// session from the registry. Callers reach here exactly once per session,
// gated by the state machine's one-way transition.
func (m *Manager) finish(sess *game.Session, status game.Status, winner string) {
	m.super.CancelSession(sess.ID)

	rec := archive.Record{
		SessionID: sess.ID.String(),
		PlayerA:   sess.PlayerA,
		PlayerB:   sess.PlayerB,
		Moves:     sess.Moves(),
		Winner:    winner,
		Status:    string(status),
		SavedAt:   m.clk.Now(),
	}
	if err := m.recorder.RecordFinishedGame(context.Background(), rec); err != nil {
		// Persistence is fire-and-forget: log and move on.
		m.logger.Error("failed to archive finished game",
			zap.String("session_id", sess.ID.String()),
			zap.Error(err))
	}

	m.broadcast(sess, messages.OutboundMessage{
		Event: messages.EventGameOver,
		Payload: messages.GameOverPayload{
			Status: string(status),
			Winner: winner,
		},
	})
	m.publisher.Publish(events.Event{
		Type:      events.EventGameFinished,
		SessionID: sess.ID.String(),
		Payload:   rec,
	})

	m.registry.Remove(sess.ID)
	m.logger.Info("session finished",
		zap.String("session_id", sess.ID.String()),
		zap.String("status", string(status)),
		zap.String("winner", winner),
	)
}

// lookup resolves a session id string, reporting errors to the sender.
func (m *Manager) lookup(conn game.Conn, gameID string) (*game.Session, bool) {
	id, err := uuid.Parse(gameID)
	if err != nil {
		m.sendError(conn, "Invalid game ID or no active game found!")
		return nil, false
	}
	sess, ok := m.registry.Get(id)
	if !ok {
		m.sendError(conn, "Invalid game ID or no active game found!")
		return nil, false
	}
	return sess, true
}

func (m *Manager) broadcast(sess *game.Session, msg messages.OutboundMessage) {
	for _, player := range []string{sess.PlayerA, sess.PlayerB} {
		if conn, ok := sess.ConnOf(player); ok {
			conn.SendJSON(msg)
		}
	}
}

func (m *Manager) sendError(conn game.Conn, msg string) {
	conn.SendJSON(messages.OutboundMessage{
		Event:   messages.EventError,
		Payload: messages.ErrorPayload{Message: msg},
	})
}
