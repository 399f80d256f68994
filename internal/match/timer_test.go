package match

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTickTimeDerivesFromWallClock(t *testing.T) {
	clock := newFakeClock()
	reg := newTestRegistry(clock, &windSeq{})
	m, _, err := reg.Join(SoloID("p1"), newFakeConn(), "p1", "One", ModeSolo)
	require.NoError(t, err)

	remaining, over := m.TickTime()
	assert.InDelta(t, 60, remaining, 0.001)
	assert.False(t, over)

	// Remaining time tracks elapsed wall time, not tick count: one late
	// tick after 25s reports the same value 25 individual ticks would.
	clock.Advance(25 * time.Second)
	remaining, over = m.TickTime()
	assert.InDelta(t, 35, remaining, 0.001)
	assert.False(t, over)

	clock.Advance(34 * time.Second)
	next, _ := m.TickTime()
	assert.LessOrEqual(t, next, remaining, "remaining never increases")

	clock.Advance(5 * time.Second)
	remaining, over = m.TickTime()
	assert.Zero(t, remaining, "clamped at zero, never negative")
	assert.True(t, over, "transition observed exactly once")
	assert.Empty(t, m.Snapshot().CurrentTurn)

	_, over = m.TickTime()
	assert.False(t, over, "second tick does not re-report the transition")
}

func TestSoloTimerExpiresOnce(t *testing.T) {
	clock := newFakeClock()
	reg := newTestRegistry(clock, &windSeq{})
	m, _, err := reg.Join(SoloID("p1"), newFakeConn(), "p1", "One", ModeSolo)
	require.NoError(t, err)

	var ticks, expires atomic.Int64
	timer := reg.StartSoloTimer(m, 2*time.Millisecond, TimerHooks{
		OnTick:   func(*Match, float64) { ticks.Add(1) },
		OnExpire: func(*Match) { expires.Add(1) },
	})

	require.Eventually(t, func() bool { return ticks.Load() > 2 }, time.Second, time.Millisecond)

	clock.Advance(SoloTimeLimit + time.Second)
	select {
	case <-timer.Done():
	case <-time.After(time.Second):
		t.Fatal("timer did not stop after expiry")
	}
	assert.Equal(t, int64(1), expires.Load())

	// Stop after exit stays safe.
	timer.Stop()
	timer.Stop()
}

func TestSoloTimerStopsWhenMatchDeleted(t *testing.T) {
	clock := newFakeClock()
	reg := newTestRegistry(clock, &windSeq{})
	_, _, err := reg.Join(SoloID("p1"), newFakeConn(), "p1", "One", ModeSolo)
	require.NoError(t, err)

	// Deliberately not attached to the match, so Delete cannot stop it:
	// the driver has to notice the stale id on its own.
	var expires atomic.Int64
	timer := newSoloTimer(reg, SoloID("p1"), 2*time.Millisecond, TimerHooks{
		OnExpire: func(*Match) { expires.Add(1) },
	}, zap.NewNop())
	go timer.Run()

	reg.Delete(SoloID("p1"))
	select {
	case <-timer.Done():
	case <-time.After(time.Second):
		t.Fatal("timer kept running against a deleted match")
	}
	assert.Zero(t, expires.Load(), "stale timer must not conclude anything")
}
