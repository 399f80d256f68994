package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraceWindowDestroysUnclaimedMatch(t *testing.T) {
	clock := newFakeClock()
	reg := newTestRegistry(clock, &windSeq{})
	cleanup := NewCleanup(reg, 20*time.Millisecond, nil)

	id := SoloID("p1")
	_, _, err := reg.Join(id, newFakeConn(), "p1", "One", ModeSolo)
	require.NoError(t, err)

	cleanup.HandleSoloDisconnect(id)
	assert.True(t, cleanup.Pending(id))
	assert.NotNil(t, reg.Get(id), "match survives the start of the window")

	require.Eventually(t, func() bool { return reg.Get(id) == nil },
		time.Second, 5*time.Millisecond, "grace window elapsed without teardown")
	assert.False(t, cleanup.Pending(id))
}

func TestGraceWindowCanceledByRejoin(t *testing.T) {
	clock := newFakeClock()
	reg := newTestRegistry(clock, &windSeq{})
	cleanup := NewCleanup(reg, 20*time.Millisecond, nil)

	id := SoloID("p1")
	m, _, err := reg.Join(id, newFakeConn(), "p1", "One", ModeSolo)
	require.NoError(t, err)
	_, err = m.FireShot("p1", fixedScore(6))
	require.NoError(t, err)

	// Disconnect at ~40s remaining, rejoin 10s later.
	clock.Advance(20 * time.Second)
	cleanup.HandleSoloDisconnect(id)
	assert.Empty(t, m.Snapshot().CurrentTurn, "no one may act while the owner is away")

	clock.Advance(10 * time.Second)
	m2, status, err := reg.Join(id, newFakeConn(), "p1", "One", ModeSolo)
	require.NoError(t, err)
	require.Equal(t, JoinRejoined, status)
	require.Same(t, m, m2)
	cleanup.Cancel(id)

	snap := m.Snapshot()
	assert.Equal(t, "p1", snap.CurrentTurn)
	assert.Equal(t, 6, snap.Players[0].Score, "score survives the disconnect")
	assert.Equal(t, 2, snap.Round)
	assert.InDelta(t, 30, snap.TimeRemainingSeconds, 0.001,
		"time keeps elapsing during the disconnect")

	time.Sleep(60 * time.Millisecond)
	assert.NotNil(t, reg.Get(id), "canceled teardown must not fire")
	assert.False(t, cleanup.Pending(id))
}

func TestDisconnectAfterTimeoutTearsDownImmediately(t *testing.T) {
	clock := newFakeClock()
	reg := newTestRegistry(clock, &windSeq{})
	cleanup := NewCleanup(reg, time.Hour, nil)

	id := SoloID("p1")
	_, _, err := reg.Join(id, newFakeConn(), "p1", "One", ModeSolo)
	require.NoError(t, err)

	clock.Advance(SoloTimeLimit + time.Second)
	cleanup.HandleSoloDisconnect(id)

	assert.Nil(t, reg.Get(id), "an over match gets no grace window")
	assert.False(t, cleanup.Pending(id))
}

func TestRejoinAfterWindowYieldsFreshMatch(t *testing.T) {
	clock := newFakeClock()
	reg := newTestRegistry(clock, &windSeq{})
	cleanup := NewCleanup(reg, 10*time.Millisecond, nil)

	id := SoloID("p1")
	m, _, err := reg.Join(id, newFakeConn(), "p1", "One", ModeSolo)
	require.NoError(t, err)
	_, err = m.FireShot("p1", fixedScore(8))
	require.NoError(t, err)

	cleanup.HandleSoloDisconnect(id)
	require.Eventually(t, func() bool { return reg.Get(id) == nil },
		time.Second, 2*time.Millisecond)

	fresh, status, err := reg.Join(id, newFakeConn(), "p1", "One", ModeSolo)
	require.NoError(t, err)
	assert.Equal(t, JoinCreated, status)
	assert.NotSame(t, m, fresh)

	snap := fresh.Snapshot()
	assert.Zero(t, snap.Players[0].Score)
	assert.Equal(t, 1, snap.Round)
}

func TestCancelRacesExpiry(t *testing.T) {
	reg := newTestRegistry(newFakeClock(), &windSeq{})
	cleanup := NewCleanup(reg, time.Millisecond, nil)

	id := SoloID("p1")
	_, _, err := reg.Join(id, newFakeConn(), "p1", "One", ModeSolo)
	require.NoError(t, err)

	// Arm and cancel repeatedly around the firing point; whichever side
	// wins, nothing may panic or tear down twice.
	for i := 0; i < 20; i++ {
		cleanup.HandleSoloDisconnect(id)
		time.Sleep(time.Millisecond)
		cleanup.Cancel(id)
		if reg.Get(id) == nil {
			// Expiry won the race; rebuild and keep going.
			_, _, err = reg.Join(id, newFakeConn(), "p1", "One", ModeSolo)
			require.NoError(t, err)
		}
	}
}
