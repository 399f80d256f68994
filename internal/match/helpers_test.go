package match

import (
	"sync"
	"time"

	"trickshot/internal/game/physics"
	"trickshot/internal/network"
)

// fakeConn satisfies network.Conn with a buffered queue the tests can drain.
type fakeConn struct {
	ch chan network.Message
}

func newFakeConn() *fakeConn {
	return &fakeConn{ch: make(chan network.Message, 64)}
}

func (f *fakeConn) Send() chan<- network.Message { return f.ch }

func (f *fakeConn) Addr() string { return "fake" }

// fakeClock is a settable clock shared between test and code under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// windSeq rolls a predictable wind sequence so reroll behavior is observable.
type windSeq struct {
	mu sync.Mutex
	n  int
}

func (w *windSeq) roll() physics.Vector {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.n++
	return physics.Vector{X: float64(w.n), Y: float64(-w.n)}
}

func (w *windSeq) rolls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

func newTestRegistry(clock *fakeClock, wind *windSeq) *Registry {
	opts := Options{}
	if clock != nil {
		opts.Clock = clock.Now
	}
	if wind != nil {
		opts.WindRoll = wind.roll
	}
	return NewRegistry(opts)
}

func makeTestMessage() network.Message {
	return network.Message{Type: "test"}
}

// fixedScore builds a compute callback awarding a constant score.
func fixedScore(score int) func(physics.Vector) physics.Result {
	return func(physics.Vector) physics.Result {
		return physics.Result{Path: []physics.Vector{{}}, Score: score}
	}
}
