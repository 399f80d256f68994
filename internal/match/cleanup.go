package match

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultGraceWindow is how long a solo match survives its owner's
// disconnect before being torn down.
const DefaultGraceWindow = 60 * time.Second

// Cleanup defers destruction of solo matches across transient disconnects.
// Per match id it is a small state machine: active (no pending teardown),
// grace-pending (deferred-deletion timer armed), destroyed. Rejoining within
// the window cancels the pending teardown; the match itself never noticed
// the disconnect beyond its emptied turn holder.
type Cleanup struct {
	registry *Registry
	window   time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewCleanup(reg *Registry, window time.Duration, logger *zap.Logger) *Cleanup {
	if window <= 0 {
		window = DefaultGraceWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleanup{
		registry: reg,
		window:   window,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
	}
}

// HandleSoloDisconnect reacts to the sole participant's connection dropping.
// A match that is already over is torn down immediately; otherwise the turn
// holder is emptied and a deferred deletion is armed.
func (c *Cleanup) HandleSoloDisconnect(matchID string) {
	m := c.registry.Get(matchID)
	if m == nil {
		return
	}

	if m.Over() {
		c.registry.Delete(matchID)
		return
	}

	m.ClearTurn()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, armed := c.pending[matchID]; armed {
		return
	}
	c.pending[matchID] = time.AfterFunc(c.window, func() { c.expire(matchID) })
	c.logger.Info("grace window armed",
		zap.String("match_id", matchID),
		zap.Duration("window", c.window))
}

// expire runs when a grace window elapses. Cancel may race with the firing
// callback; the map membership check makes the teardown happen at most once.
func (c *Cleanup) expire(matchID string) {
	c.mu.Lock()
	if _, armed := c.pending[matchID]; !armed {
		c.mu.Unlock()
		return
	}
	delete(c.pending, matchID)
	c.mu.Unlock()

	c.registry.Delete(matchID)
	c.logger.Info("grace window elapsed, match destroyed", zap.String("match_id", matchID))
}

// Cancel disarms a pending teardown, if any. Called when the owning
// identity rejoins in time.
func (c *Cleanup) Cancel(matchID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, armed := c.pending[matchID]; armed {
		t.Stop()
		delete(c.pending, matchID)
		c.logger.Info("grace window canceled, player rejoined", zap.String("match_id", matchID))
	}
}

// Pending reports whether a deferred teardown is armed for the match.
func (c *Cleanup) Pending(matchID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, armed := c.pending[matchID]
	return armed
}
