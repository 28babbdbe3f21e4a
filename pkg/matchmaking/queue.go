// Package matchmaking pairs waiting players into sessions: a FIFO queue per
// time-control bucket for open matchmaking, and invite rooms for private
// games.
package matchmaking

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/knightwatch/arena-server/pkg/game"
)

// ErrUnknownRoom reports a join against a room id that does not exist or was
// already consumed.
var ErrUnknownRoom = errors.New("unknown or unavailable room")

// Key identifies a compatibility bucket. Only tickets with the same key are
// ever paired.
type Key struct {
	TotalTime int64 // seconds
	Increment int64 // seconds
}

// TimeControl converts the key into clock settings.
func (k Key) TimeControl() game.TimeControl {
	return game.TimeControl{
		Initial:   time.Duration(k.TotalTime) * time.Second,
		Increment: time.Duration(k.Increment) * time.Second,
	}
}

// Ticket is one waiting player's request for a game.
type Ticket struct {
	Player     string
	Conn       game.Conn
	Key        Key
	EnqueuedAt time.Time
}

// Pairing is two matched tickets. First is the designated first mover.
type Pairing struct {
	First  *Ticket
	Second *Ticket
	Key    Key
}

// Queue holds the matchmaking buckets and invite rooms. Buckets are
// independent: time controls run concurrently without interference, and
// pairing within a bucket is strictly by arrival order.
type Queue struct {
	mu      sync.Mutex
	buckets map[Key][]*Ticket
	rooms   map[string]*Ticket
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		buckets: make(map[Key][]*Ticket),
		rooms:   make(map[string]*Ticket),
	}
}

// Enqueue pairs the ticket with the earliest-waiting compatible one, or
// appends it and returns its 1-based queue position. A connection already
// waiting in the bucket keeps its original position instead of matching
// against itself.
func (q *Queue) Enqueue(t *Ticket) (*Pairing, int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	bucket := q.buckets[t.Key]
	for i, waiting := range bucket {
		if waiting.Conn == t.Conn {
			return nil, i + 1
		}
	}

	if len(bucket) > 0 {
		head := bucket[0]
		q.buckets[t.Key] = bucket[1:]
		if len(q.buckets[t.Key]) == 0 {
			delete(q.buckets, t.Key)
		}
		// The ticket completing the pairing moves first.
		return &Pairing{First: t, Second: head, Key: t.Key}, 0
	}

	q.buckets[t.Key] = append(bucket, t)
	return nil, 1
}

// Withdraw removes every ticket and room owned by a dropped connection.
// Idempotent: withdrawing an absent connection is a no-op.
func (q *Queue) Withdraw(conn game.Conn) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for key, bucket := range q.buckets {
		kept := bucket[:0]
		for _, t := range bucket {
			if t.Conn != conn {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(q.buckets, key)
		} else {
			q.buckets[key] = kept
		}
	}

	for id, t := range q.rooms {
		if t.Conn == conn {
			delete(q.rooms, id)
		}
	}
}

// CreateRoom opens a private room and returns its shareable id.
func (q *Queue) CreateRoom(t *Ticket) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := uuid.NewString()
	q.rooms[id] = t
	return id
}

// JoinRoom consumes a room and pairs its creator with the joiner. The
// creator is the first mover.
func (q *Queue) JoinRoom(roomID string, t *Ticket) (*Pairing, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	creator, ok := q.rooms[roomID]
	if !ok {
		return nil, ErrUnknownRoom
	}
	delete(q.rooms, roomID)

	return &Pairing{First: creator, Second: t, Key: creator.Key}, nil
}

// Waiting returns the number of tickets in one bucket.
func (q *Queue) Waiting(key Key) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buckets[key])
}
