// Package rules defines the rules-engine boundary. The orchestrator only
// ever talks to these types; it never inspects board internals.
package rules

import "errors"

// ErrIllegalMove covers both unparsable notation and moves the position
// does not allow.
var ErrIllegalMove = errors.New("illegal move")

// Color is the side to move.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opp returns the opposite color.
func (c Color) Opp() Color {
	if c == White {
		return Black
	}
	return White
}

// Status is the terminal condition of a position.
type Status string

const (
	StatusNone                 Status = "none"
	StatusCheckmate            Status = "checkmate"
	StatusStalemate            Status = "stalemate"
	StatusInsufficientMaterial Status = "insufficient_material"
)

// Move is a move normalized by the engine. UCI is the canonical form.
type Move struct {
	UCI string
	SAN string
}

// Position is an opaque board state owned by the rules engine.
type Position interface {
	FEN() string
	Turn() Color
}

// Engine validates and applies moves and reports terminal conditions.
type Engine interface {
	// Start returns the initial position.
	Start() Position

	// ParseMove normalizes SAN or UCI notation against a position,
	// returning ErrIllegalMove when it is unparsable or not legal.
	ParseMove(pos Position, notation string) (Move, error)

	// IsLegal reports whether a parsed move is playable from pos.
	IsLegal(pos Position, mv Move) bool

	// Apply plays the move and returns the resulting position. The input
	// position is not modified.
	Apply(pos Position, mv Move) (Position, error)

	// TerminalStatus reports whether pos ends the game.
	TerminalStatus(pos Position) Status
}
