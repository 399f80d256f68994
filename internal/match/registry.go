package match

import (
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"trickshot/internal/game/physics"
	"trickshot/internal/network"
)

const (
	// Wind bounds for rerolls. The horizontal band is wider than the
	// vertical one, like real crosswind on a range.
	windMaxX = 4.0
	windMaxY = 2.0
)

// JoinStatus tells the caller how a join resolved.
type JoinStatus int

const (
	// JoinCreated means the join created the match and took its first slot.
	JoinCreated JoinStatus = iota + 1
	// JoinJoined means the player took a free slot in an existing match.
	JoinJoined
	// JoinRejoined means an existing slot was rebound to a new connection.
	JoinRejoined
)

// Options configure a Registry. The zero value is usable: wall clock, a
// per-match PCG wind source and a no-op logger.
type Options struct {
	Clock    func() time.Time
	WindRoll func() physics.Vector
	Logger   *zap.Logger
}

// Registry owns every live match. Nothing else retains a *Match across
// calls; lookups go through here so a deleted match is gone for everyone
// at once.
type Registry struct {
	mu      sync.Mutex
	matches map[string]*Match

	clock  func() time.Time
	roll   func() physics.Vector // nil: each match gets its own rng
	logger *zap.Logger
}

func NewRegistry(opts Options) *Registry {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Registry{
		matches: make(map[string]*Match),
		clock:   opts.Clock,
		roll:    opts.WindRoll,
		logger:  opts.Logger,
	}
}

// rollWind samples each wind component independently from its bounded
// symmetric range.
func rollWind(r *rand.Rand) physics.Vector {
	return physics.Vector{
		X: (r.Float64()*2 - 1) * windMaxX,
		Y: (r.Float64()*2 - 1) * windMaxY,
	}
}

func (r *Registry) newMatch(id string, mode Mode) *Match {
	m := &Match{
		id:    id,
		mode:  mode,
		clock: r.clock,
		roll:  r.roll,
	}
	if m.roll == nil {
		// The per-match rng is only ever touched under m.mu.
		rng := rand.New(rand.NewPCG(uint64(r.clock().UnixNano()), uint64(len(id))))
		m.roll = func() physics.Vector { return rollWind(rng) }
	}
	switch mode {
	case ModeSolo:
		m.timeLimit = SoloTimeLimit
	case ModeDuel:
		m.roundLimit = DuelRoundLimit
	}
	m.wind = m.roll()
	return m
}

// Create registers an empty match at id. The caller must know the id is
// free; Join is the usual entry point and creates lazily.
func (r *Registry) Create(id string, mode Mode) *Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.newMatch(id, mode)
	r.matches[id] = m
	r.logger.Info("match created", zap.String("match_id", id), zap.String("mode", string(mode)))
	return m
}

// Get returns the live match at id, or nil.
func (r *Registry) Get(id string) *Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.matches[id]
}

// Delete tears the match down and stops its timer driver if one is running.
// Deleting an absent id is a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	m := r.matches[id]
	delete(r.matches, id)
	r.mu.Unlock()

	if m == nil {
		return
	}
	m.stopTimer()
	r.logger.Info("match deleted", zap.String("match_id", id))
}

// Join places a player into the match at id, creating it in the requested
// mode if absent. Capacity and mode checks happen atomically with the
// mutation: no interleaved join can observe a transient over-capacity state.
//
// A join by an identity that already holds a slot is a reconnect and rebinds
// the connection instead of consuming capacity.
func (r *Registry) Join(id string, conn network.Conn, identity, displayName string, mode Mode) (*Match, JoinStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := false
	m, ok := r.matches[id]
	if !ok {
		m = r.newMatch(id, mode)
		r.matches[id] = m
		created = true
	} else if m.mode != mode {
		// Mode mismatch is a hard error, never silently coerced.
		return nil, 0, ErrModeMismatch
	}

	status, err := m.admit(conn, identity, displayName)
	if err != nil {
		if created {
			delete(r.matches, id)
		}
		return nil, 0, err
	}
	if created {
		status = JoinCreated
		r.logger.Info("match created",
			zap.String("match_id", id),
			zap.String("mode", string(mode)),
			zap.String("identity", identity))
	}
	return m, status, nil
}

// StartSoloTimer builds the countdown driver for a solo match, attaches it
// as the match's cancellable timer handle and starts it.
func (r *Registry) StartSoloTimer(m *Match, interval time.Duration, hooks TimerHooks) *SoloTimer {
	t := newSoloTimer(r, m.ID(), interval, hooks, r.logger)
	m.attachTimer(t)
	go t.Run()
	return t
}

// Shutdown deletes every match, stopping all timer drivers. Used on process
// exit; match state is never persisted.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.matches))
	for id := range r.matches {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Delete(id)
	}
}

// Len reports how many matches are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches)
}
