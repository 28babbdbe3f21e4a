package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoveNormalizesNotation(t *testing.T) {
	eng := NewChessEngine()
	pos := eng.Start()

	tests := []struct {
		name     string
		notation string
		wantUCI  string
	}{
		{"uci", "e2e4", "e2e4"},
		{"san pawn", "e4", "e2e4"},
		{"san knight", "Nf3", "g1f3"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mv, err := eng.ParseMove(pos, tc.notation)
			require.NoError(t, err)
			assert.Equal(t, tc.wantUCI, mv.UCI)
		})
	}
}

func TestParseMoveRejectsIllegal(t *testing.T) {
	eng := NewChessEngine()
	pos := eng.Start()

	// "e2e5", "e7e5" and "a1a3" are well-formed UCI that no piece can play
	// from the start position; decoding alone does not reject them.
	for _, notation := range []string{"", "e2e5", "e7e5", "a1a3", "Ke2", "garbage"} {
		_, err := eng.ParseMove(pos, notation)
		assert.ErrorIs(t, err, ErrIllegalMove, "notation %q", notation)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	eng := NewChessEngine()
	pos := eng.Start()

	mv, err := eng.ParseMove(pos, "e4")
	require.NoError(t, err)
	next, err := eng.Apply(pos, mv)
	require.NoError(t, err)

	assert.Equal(t, White, pos.Turn(), "original position must be untouched")
	assert.Equal(t, Black, next.Turn())
	assert.NotEqual(t, pos.FEN(), next.FEN())
}

func TestTurnAlternates(t *testing.T) {
	eng := NewChessEngine()
	pos := eng.Start()

	for i, notation := range []string{"e4", "e5", "Nf3", "Nc6"} {
		want := White
		if i%2 == 1 {
			want = Black
		}
		require.Equal(t, want, pos.Turn(), "before move %d", i)

		mv, err := eng.ParseMove(pos, notation)
		require.NoError(t, err)
		pos, err = eng.Apply(pos, mv)
		require.NoError(t, err)
	}
}

func TestTerminalStatusCheckmate(t *testing.T) {
	eng := NewChessEngine()
	pos := eng.Start()

	// Fool's mate.
	for _, notation := range []string{"f3", "e5", "g4", "Qh4"} {
		mv, err := eng.ParseMove(pos, notation)
		require.NoError(t, err)
		pos, err = eng.Apply(pos, mv)
		require.NoError(t, err)
	}

	assert.Equal(t, StatusCheckmate, eng.TerminalStatus(pos))
}

func TestTerminalStatusOngoing(t *testing.T) {
	eng := NewChessEngine()
	assert.Equal(t, StatusNone, eng.TerminalStatus(eng.Start()))
}
