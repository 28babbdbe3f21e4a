package rules

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// ChessEngine implements Engine on top of corentings/chess.
type ChessEngine struct{}

// NewChessEngine returns the standard-chess rules engine.
func NewChessEngine() *ChessEngine {
	return &ChessEngine{}
}

// chessPosition keeps the full move history so every Apply replays onto a
// fresh game; corentings games are mutable and sharing one across positions
// would let an Apply leak into the caller's copy.
type chessPosition struct {
	moves []string // UCI, from the start position
}

func (p *chessPosition) game() *nchess.Game {
	game := nchess.NewGame()
	for _, mv := range p.moves {
		if err := game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return nil
		}
	}
	return game
}

func (p *chessPosition) FEN() string {
	if g := p.game(); g != nil {
		return g.FEN()
	}
	return ""
}

func (p *chessPosition) Turn() Color {
	g := p.game()
	if g == nil || g.Position().Turn() == nchess.White {
		return White
	}
	return Black
}

func (e *ChessEngine) Start() Position {
	return &chessPosition{}
}

func (e *ChessEngine) ParseMove(pos Position, notation string) (Move, error) {
	cp, ok := pos.(*chessPosition)
	if !ok {
		return Move{}, fmt.Errorf("foreign position type %T: %w", pos, ErrIllegalMove)
	}
	game := cp.game()
	if game == nil {
		return Move{}, ErrIllegalMove
	}

	raw := strings.TrimSpace(notation)
	if raw == "" {
		return Move{}, ErrIllegalMove
	}
	cur := game.Position()

	// UCI first, SAN as fallback.
	mv, err := (nchess.UCINotation{}).Decode(cur, strings.ToLower(raw))
	if err != nil {
		mv, err = (nchess.AlgebraicNotation{}).Decode(cur, raw)
		if err != nil {
			return Move{}, fmt.Errorf("%q: %w", raw, ErrIllegalMove)
		}
	}

	// Decoding only checks shape; a well-formed move can still be unplayable
	// from this position.
	if err := game.PushNotationMove(mv.String(), nchess.UCINotation{}, nil); err != nil {
		return Move{}, fmt.Errorf("%q: %w", raw, ErrIllegalMove)
	}

	return Move{
		UCI: mv.String(),
		SAN: nchess.AlgebraicNotation{}.Encode(cur, mv),
	}, nil
}

func (e *ChessEngine) IsLegal(pos Position, mv Move) bool {
	cp, ok := pos.(*chessPosition)
	if !ok {
		return false
	}
	game := cp.game()
	if game == nil {
		return false
	}
	return game.PushNotationMove(mv.UCI, nchess.UCINotation{}, nil) == nil
}

func (e *ChessEngine) Apply(pos Position, mv Move) (Position, error) {
	cp, ok := pos.(*chessPosition)
	if !ok {
		return nil, fmt.Errorf("foreign position type %T: %w", pos, ErrIllegalMove)
	}
	next := &chessPosition{moves: append(append([]string(nil), cp.moves...), mv.UCI)}
	if next.game() == nil {
		return nil, fmt.Errorf("%q: %w", mv.UCI, ErrIllegalMove)
	}
	return next, nil
}

func (e *ChessEngine) TerminalStatus(pos Position) Status {
	cp, ok := pos.(*chessPosition)
	if !ok {
		return StatusNone
	}
	game := cp.game()
	if game == nil {
		return StatusNone
	}
	if game.Outcome() == nchess.NoOutcome {
		return StatusNone
	}
	switch game.Method() {
	case nchess.Checkmate:
		return StatusCheckmate
	case nchess.Stalemate:
		return StatusStalemate
	case nchess.InsufficientMaterial:
		return StatusInsufficientMaterial
	default:
		return StatusNone
	}
}
