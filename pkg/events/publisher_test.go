package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	events []Event
	wg     sync.WaitGroup
}

func (c *collector) handler(event Event) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	c.wg.Done()
}

func (c *collector) collected() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func waitDone(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for handlers")
	}
}

func TestPublishReachesTypedSubscribers(t *testing.T) {
	p := NewPublisher()
	c := &collector{}
	p.Subscribe(EventGameStarted, c.handler)

	c.wg.Add(1)
	p.Publish(Event{Type: EventGameStarted, SessionID: "s1"})
	waitDone(t, &c.wg)

	got := c.collected()
	require.Len(t, got, 1)
	assert.Equal(t, EventGameStarted, got[0].Type)
	assert.Equal(t, "s1", got[0].SessionID)
}

func TestPublishSkipsOtherTypes(t *testing.T) {
	p := NewPublisher()
	c := &collector{}
	p.Subscribe(EventGameFinished, c.handler)

	p.Publish(Event{Type: EventMoveApplied})
	time.Sleep(20 * time.Millisecond)

	assert.Empty(t, c.collected())
}

func TestSubscribeAllSeesEveryType(t *testing.T) {
	p := NewPublisher()
	c := &collector{}
	p.SubscribeAll(c.handler)

	types := []EventType{EventGameStarted, EventMoveApplied, EventGameFinished}
	c.wg.Add(len(types))
	for _, typ := range types {
		p.Publish(Event{Type: typ})
	}
	waitDone(t, &c.wg)

	got := c.collected()
	assert.Len(t, got, len(types))
}

func TestTypedAndCatchAllBothFire(t *testing.T) {
	p := NewPublisher()
	typed := &collector{}
	all := &collector{}
	p.Subscribe(EventPlayerDisconnected, typed.handler)
	p.SubscribeAll(all.handler)

	typed.wg.Add(1)
	all.wg.Add(1)
	p.Publish(Event{Type: EventPlayerDisconnected, SessionID: "s2"})
	waitDone(t, &typed.wg)
	waitDone(t, &all.wg)

	assert.Len(t, typed.collected(), 1)
	assert.Len(t, all.collected(), 1)
}
