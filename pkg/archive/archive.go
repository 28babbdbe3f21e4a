// Package archive durably records finished games. The orchestrator hands a
// game off once, fire-and-forget: a failed write is logged and never reopens
// or re-terminates a session.
package archive

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Record is one finished game.
type Record struct {
	SessionID string
	PlayerA   string
	PlayerB   string
	Moves     []string
	Winner    string // empty on a draw
	Status    string
	SavedAt   time.Time
}

// Recorder is the persistence collaborator.
type Recorder interface {
	RecordFinishedGame(ctx context.Context, rec Record) error
}

// InMemoryArchive is an in-memory Recorder, useful standalone and in tests.
type InMemoryArchive struct {
	mu      sync.RWMutex
	records []Record
	logger  *zap.Logger
}

// NewInMemoryArchive creates an empty archive.
func NewInMemoryArchive(logger *zap.Logger) *InMemoryArchive {
	return &InMemoryArchive{logger: logger}
}

// RecordFinishedGame appends the record.
func (a *InMemoryArchive) RecordFinishedGame(_ context.Context, rec Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.records = append(a.records, rec)
	a.logger.Info("archived finished game",
		zap.String("session_id", rec.SessionID),
		zap.String("status", rec.Status),
		zap.String("winner", rec.Winner),
		zap.Int("moves", len(rec.Moves)),
	)
	return nil
}

// GamesFor lists the finished games a player took part in, oldest first.
func (a *InMemoryArchive) GamesFor(player string) []Record {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []Record
	for _, rec := range a.records {
		if rec.PlayerA == player || rec.PlayerB == player {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the number of archived games.
func (a *InMemoryArchive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records)
}
