package match

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// TimerHooks are the session-layer reactions to clock events. They run on
// the timer goroutine after the match lock has been released, so they may
// broadcast or hand scores off without stalling match mutation.
type TimerHooks struct {
	// OnTick fires once per cadence with the freshly derived remaining time.
	OnTick func(m *Match, remaining float64)
	// OnExpire fires exactly once, on the tick that sees the countdown
	// reach zero.
	OnExpire func(m *Match)
}

// SoloTimer drives one solo match's countdown independent of player action.
// It re-resolves the match through the registry on every tick, so a
// concurrent delete makes it stop itself instead of operating on stale
// state.
type SoloTimer struct {
	matchID  string
	registry *Registry
	interval time.Duration
	hooks    TimerHooks
	logger   *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func newSoloTimer(reg *Registry, matchID string, interval time.Duration, hooks TimerHooks, logger *zap.Logger) *SoloTimer {
	return &SoloTimer{
		matchID:  matchID,
		registry: reg,
		interval: interval,
		hooks:    hooks,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run loops until the match concludes, is deleted, or Stop is called.
func (t *SoloTimer) Run() {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			m := t.registry.Get(t.matchID)
			if m == nil {
				// Deleted while this tick was pending.
				t.logger.Debug("timer stopping, match gone", zap.String("match_id", t.matchID))
				t.Stop()
				return
			}

			remaining, newlyOver := m.TickTime()
			if newlyOver {
				t.Stop()
				t.logger.Info("solo match timed out", zap.String("match_id", t.matchID))
				if t.hooks.OnExpire != nil {
					t.hooks.OnExpire(m)
				}
				return
			}
			if t.hooks.OnTick != nil {
				t.hooks.OnTick(m, remaining)
			}
		}
	}
}

// Stop is idempotent: the driver is stopped exactly once no matter how many
// of match deletion, countdown expiry and external teardown race.
func (t *SoloTimer) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// Done is closed once the driver's goroutine has exited.
func (t *SoloTimer) Done() <-chan struct{} { return t.done }
