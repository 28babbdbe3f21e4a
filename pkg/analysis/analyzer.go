// Package analysis is the boundary to the position-analysis engine. It is
// best effort everywhere: a slow or dead engine degrades responses, it never
// blocks a move from being accepted.
package analysis

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrEngineUnavailable reports an analysis engine failure or exhaustion.
var ErrEngineUnavailable = errors.New("analysis engine unavailable")

// Evaluation is a position score from white's perspective, in pawns.
// MateIn is non-zero when a forced mate was found (negative: white is mated).
type Evaluation struct {
	Pawns  float64
	MateIn int
}

// Analyzer produces bounded-time move suggestions and evaluations.
type Analyzer interface {
	SuggestMove(ctx context.Context, fen string) (string, error)
	Evaluate(ctx context.Context, fen string) (Evaluation, error)
}

// UCIAnalyzer serves analysis requests from a pool of UCI engines.
type UCIAnalyzer struct {
	pool   *Pool
	budget time.Duration
	logger *zap.Logger
}

// NewUCIAnalyzer wraps an engine pool with a per-request time budget.
func NewUCIAnalyzer(pool *Pool, budget time.Duration, logger *zap.Logger) *UCIAnalyzer {
	return &UCIAnalyzer{pool: pool, budget: budget, logger: logger}
}

// SuggestMove returns the engine's best move for the position in UCI notation.
func (a *UCIAnalyzer) SuggestMove(ctx context.Context, fen string) (string, error) {
	res, err := a.search(ctx, fen)
	if err != nil {
		return "", err
	}
	return res.bestMove, nil
}

// Evaluate scores the position from white's perspective.
func (a *UCIAnalyzer) Evaluate(ctx context.Context, fen string) (Evaluation, error) {
	res, err := a.search(ctx, fen)
	if err != nil {
		return Evaluation{}, err
	}
	if !res.hasScore {
		return Evaluation{}, ErrEngineUnavailable
	}

	// UCI scores are relative to the side to move; flip for black.
	cp, mate := res.scoreCP, res.mateIn
	if sideToMove(fen) == "b" {
		cp, mate = -cp, -mate
	}
	return Evaluation{Pawns: float64(cp) / 100.0, MateIn: mate}, nil
}

func (a *UCIAnalyzer) search(ctx context.Context, fen string) (searchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.budget)
	defer cancel()

	engine, err := a.pool.Get(ctx)
	if err != nil {
		return searchResult{}, err
	}
	defer a.pool.Return(engine.ID.String())

	// Leave the engine headroom to report before the context expires.
	moveTime := a.budget.Milliseconds() * 8 / 10
	if moveTime < 10 {
		moveTime = 10
	}

	res, err := engine.Search(ctx, fen, moveTime)
	if err != nil {
		a.logger.Debug("analysis search failed", zap.Error(err))
		return searchResult{}, err
	}
	return res, nil
}

func sideToMove(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) > 1 {
		return fields[1]
	}
	return "w"
}

// WinningChances converts a white-perspective evaluation in pawns into
// percentage chances for each side. Pure: the same evaluation always yields
// the same split.
func WinningChances(pawns float64) map[string]float64 {
	normalized := pawns / (math.Abs(pawns) + 1)
	white := round2(50 + normalized*50)
	return map[string]float64{
		"white": white,
		"black": round2(100 - white),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
