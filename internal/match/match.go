package match

import (
	"errors"
	"sync"
	"time"

	"trickshot/internal/game/physics"
	"trickshot/internal/network"
)

// Mode selects the membership and turn rules of a match.
type Mode string

const (
	// ModeSolo is the single-player time-trial: one participant shoots
	// repeatedly against the clock.
	ModeSolo Mode = "solo"

	// ModeDuel is head-to-head: two participants alternate shots for a
	// fixed number of rounds.
	ModeDuel Mode = "duel"
)

const (
	DuelRoundLimit = 5
	SoloTimeLimit  = 60 * time.Second
)

var (
	ErrModeMismatch   = errors.New("match exists in a different mode")
	ErrMatchFull      = errors.New("match is at capacity")
	ErrNotYourTurn    = errors.New("shot out of turn")
	ErrMatchOver      = errors.New("match is over")
	ErrNotParticipant = errors.New("player is not part of this match")
)

// participant is one player's slot in a match. Conn is the live connection
// and is rebound on reconnect; Identity is the stable key across reconnects.
type participant struct {
	Conn        network.Conn
	Identity    string
	DisplayName string
	Score       int
}

// Match is the authoritative state of one game session. All mutation happens
// under mu, so join/shot/tick/disconnect handling for a match is strictly
// serialized no matter which goroutine delivers the event.
type Match struct {
	id   string
	mode Mode

	mu          sync.Mutex
	players     []*participant // insertion order doubles as turn order in duel mode
	currentTurn string         // identity; empty means no one may act
	round       int
	roundLimit  int // 0 means unbounded (solo)
	wind        physics.Vector
	timeLimit   time.Duration // 0 for duel
	startedAt   time.Time
	expired     bool // solo timeout already handled
	timer       *SoloTimer

	clock func() time.Time
	roll  func() physics.Vector
}

func (m *Match) ID() string { return m.id }

func (m *Match) Mode() Mode { return m.mode }

// SoloID derives the registry key for a player's solo match. The derivation
// is deterministic so at most one solo match exists per identity.
func SoloID(identity string) string { return "solo:" + identity }

func (m *Match) capacity() int {
	if m.mode == ModeSolo {
		return 1
	}
	return 2
}

func (m *Match) findLocked(identity string) *participant {
	for _, p := range m.players {
		if p.Identity == identity {
			return p
		}
	}
	return nil
}

// admit binds a player into the match: a reconnect rebinds the connection of
// the existing slot, otherwise a fresh slot is appended if there is room.
func (m *Match) admit(conn network.Conn, identity, displayName string) (JoinStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p := m.findLocked(identity); p != nil {
		p.Conn = conn
		p.DisplayName = displayName
		if m.mode == ModeSolo && !m.expired {
			// The match never advances turns while its owner is away,
			// so handing the turn back resumes it exactly where it was.
			m.currentTurn = identity
		}
		return JoinRejoined, nil
	}

	if len(m.players) >= m.capacity() {
		return 0, ErrMatchFull
	}

	m.players = append(m.players, &participant{
		Conn:        conn,
		Identity:    identity,
		DisplayName: displayName,
	})

	if len(m.players) == 1 {
		m.currentTurn = identity
		m.startedAt = m.clock()
		m.round = 1
	}
	return JoinJoined, nil
}

// ShotReport is what a successfully applied shot produces.
type ShotReport struct {
	Result    physics.Result
	Snapshot  Snapshot
	Concluded bool // this shot pushed the duel past its round limit
}

// FireShot validates the shot, resolves it against the wind currently in
// effect via compute, and applies the outcome. The compute callback runs
// under the match lock so no other event can reroll the wind in between.
//
// Rejections: ErrNotYourTurn for a duel shot from anyone but the turn
// holder, ErrMatchOver for a solo shot after time ran out. Both are expected
// races and callers are expected to drop them silently.
func (m *Match) FireShot(identity string, compute func(wind physics.Vector) physics.Result) (ShotReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	shooter := m.findLocked(identity)
	if shooter == nil {
		return ShotReport{}, ErrNotParticipant
	}

	switch m.mode {
	case ModeSolo:
		if m.remainingLocked() <= 0 {
			return ShotReport{}, ErrMatchOver
		}
	case ModeDuel:
		if identity != m.currentTurn {
			return ShotReport{}, ErrNotYourTurn
		}
	}

	res := compute(m.wind)
	shooter.Score += res.Score

	var concluded bool
	switch m.mode {
	case ModeSolo:
		// Every solo shot counts as a round; the clock, not the round
		// counter, ends the match.
		m.round++
		m.wind = m.roll()
	case ModeDuel:
		next := (m.indexLocked(identity) + 1) % len(m.players)
		m.currentTurn = m.players[next].Identity
		if next == 0 {
			// Turn wrapped back to the first joiner: a full cycle.
			m.round++
			if m.round > m.roundLimit {
				m.currentTurn = ""
				concluded = true
			} else {
				m.wind = m.roll()
			}
		}
	}

	return ShotReport{Result: res, Snapshot: m.snapshotLocked(), Concluded: concluded}, nil
}

func (m *Match) indexLocked(identity string) int {
	for i, p := range m.players {
		if p.Identity == identity {
			return i
		}
	}
	return -1
}

// TickTime recomputes the solo countdown from wall-clock elapsed time.
// newlyOver is true exactly once, on the tick that observes the transition
// to zero; that tick also empties the turn holder.
func (m *Match) TickTime() (remaining float64, newlyOver bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode != ModeSolo || m.startedAt.IsZero() {
		return 0, false
	}
	remaining = m.remainingLocked()
	if remaining <= 0 && !m.expired {
		m.expired = true
		m.currentTurn = ""
		return 0, true
	}
	return remaining, false
}

// remainingLocked derives the countdown from elapsed wall time rather than
// counting ticks, so delayed or skipped ticks never stretch the budget.
func (m *Match) remainingLocked() float64 {
	if m.timeLimit == 0 {
		return 0
	}
	rem := m.timeLimit.Seconds() - m.clock().Sub(m.startedAt).Seconds()
	if rem < 0 {
		rem = 0
	}
	return rem
}

// Over reports whether a solo match has run out its clock.
func (m *Match) Over() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode == ModeSolo && !m.startedAt.IsZero() && m.remainingLocked() <= 0
}

// ClearTurn empties the turn holder, blocking further shots until a rejoin
// hands the turn back.
func (m *Match) ClearTurn() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTurn = ""
}

// ConnBound reports whether conn is the connection currently bound to the
// identity's slot. A rejoin rebinds the slot, so events arriving late from
// the superseded connection must be recognized as stale.
func (m *Match) ConnBound(identity string, conn network.Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.findLocked(identity)
	return p != nil && p.Conn == conn
}

// UnbindConn detaches the identity's connection. The slot survives, but
// broadcasts skip it until a rejoin binds a live connection; sending into a
// dropped connection's closed queue would panic.
func (m *Match) UnbindConn(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.findLocked(identity); p != nil {
		p.Conn = nil
	}
}

// SoloResult returns the sole participant's identity, display name and
// cumulative score. Zero values if the match never had a participant.
func (m *Match) SoloResult() (identity, displayName string, score int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.players) == 0 {
		return "", "", 0
	}
	p := m.players[0]
	return p.Identity, p.DisplayName, p.Score
}

// DropParticipant removes a player's slot and returns how many participants
// remain. In duel mode the match is kept alive for a new opponent: scores
// and round reset, a fresh wind is rolled and the turn passes to whoever
// stayed.
func (m *Match) DropParticipant(identity string) (left int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.players {
		if p.Identity == identity {
			m.players = append(m.players[:i], m.players[i+1:]...)
			break
		}
	}

	if len(m.players) == 0 {
		m.currentTurn = ""
		return 0
	}

	if m.mode == ModeDuel {
		for _, p := range m.players {
			p.Score = 0
		}
		m.round = 1
		m.wind = m.roll()
		m.currentTurn = m.players[0].Identity
	}
	return len(m.players)
}

// Broadcast delivers a message to every connection bound to the match.
// The sender set is copied under the lock; the sends themselves happen
// outside it so a slow client cannot stall match mutation.
func (m *Match) Broadcast(msg network.Message) {
	m.mu.Lock()
	conns := make([]network.Conn, 0, len(m.players))
	for _, p := range m.players {
		if p.Conn != nil {
			conns = append(conns, p.Conn)
		}
	}
	m.mu.Unlock()

	for _, c := range conns {
		c.Send() <- msg
	}
}

// Wind returns the wind currently in effect for the next shot.
func (m *Match) Wind() physics.Vector {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wind
}

func (m *Match) attachTimer(t *SoloTimer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timer = t
}

func (m *Match) stopTimer() {
	m.mu.Lock()
	t := m.timer
	m.mu.Unlock()
	if t != nil {
		t.Stop()
	}
}
