package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWinningChancesSumTo100(t *testing.T) {
	for _, pawns := range []float64{-300, -5.5, -0.3, 0, 0.3, 1.2, 9.9, 300} {
		chances := WinningChances(pawns)
		assert.InDelta(t, 100, chances["white"]+chances["black"], 0.011, "eval %v", pawns)
	}
}

func TestWinningChancesFavorTheBetterSide(t *testing.T) {
	chances := WinningChances(2.0)
	assert.Greater(t, chances["white"], chances["black"])

	chances = WinningChances(-2.0)
	assert.Greater(t, chances["black"], chances["white"])

	chances = WinningChances(0)
	assert.Equal(t, 50.0, chances["white"])
	assert.Equal(t, 50.0, chances["black"])
}

func TestWinningChancesArePure(t *testing.T) {
	// The same evaluation must always produce the same split, no matter how
	// many times it is computed.
	first := WinningChances(1.37)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, WinningChances(1.37))
	}
}

func TestWinningChancesSymmetric(t *testing.T) {
	pos := WinningChances(1.5)
	neg := WinningChances(-1.5)
	assert.Equal(t, pos["white"], neg["black"])
	assert.Equal(t, pos["black"], neg["white"])
}

func TestSideToMove(t *testing.T) {
	assert.Equal(t, "w", sideToMove("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"))
	assert.Equal(t, "b", sideToMove("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"))
	assert.Equal(t, "w", sideToMove("not-a-fen"))
}
