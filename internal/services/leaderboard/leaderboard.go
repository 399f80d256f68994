package leaderboard

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"trickshot/internal/identity"
)

// Size is the fixed top-N cap.
const Size = 10

// Entry is one leaderboard row.
type Entry struct {
	PlayerID    string    `json:"playerId"`
	DisplayName string    `json:"displayName"`
	Score       int       `json:"score"`
	At          time.Time `json:"at"`
}

// Board keeps the top-N scores in memory, ordered score-descending. Match
// code hands scores off after releasing match state, so Submit may take the
// board lock without ever stalling a match.
type Board struct {
	mu      sync.Mutex
	entries []Entry

	clock  func() time.Time
	logger *zap.Logger
	bus    *Bus // nil when running standalone
}

func NewBoard(clock func() time.Time, logger *zap.Logger) *Board {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{clock: clock, logger: logger}
}

// Submit records a finished match's score and returns the refreshed top
// entries. Every submission is its own row; a player can hold several spots.
func (b *Board) Submit(id identity.Identity, score int) []Entry {
	b.mu.Lock()
	b.insertLocked(Entry{
		PlayerID:    id.ID,
		DisplayName: id.DisplayName,
		Score:       score,
		At:          b.clock(),
	})
	top := b.topLocked()
	bus := b.bus
	b.mu.Unlock()

	b.logger.Info("score submitted",
		zap.String("identity", id.ID),
		zap.Int("score", score))

	if bus != nil {
		bus.publish(top)
	}
	return top
}

// Top returns a copy of the current top entries.
func (b *Board) Top() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.topLocked()
}

func (b *Board) insertLocked(e Entry) {
	b.entries = append(b.entries, e)
	sort.SliceStable(b.entries, func(i, j int) bool {
		return b.entries[i].Score > b.entries[j].Score
	})
	if len(b.entries) > Size {
		b.entries = b.entries[:Size]
	}
}

func (b *Board) topLocked() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// merge folds entries received from other nodes into the board. Rows the
// board already holds are skipped, which also keeps our own published
// updates from echoing back in.
func (b *Board) merge(remote []Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range remote {
		if !b.containsLocked(e) {
			b.insertLocked(e)
		}
	}
}

func (b *Board) containsLocked(e Entry) bool {
	for _, have := range b.entries {
		if have.PlayerID == e.PlayerID && have.Score == e.Score && have.At.Equal(e.At) {
			return true
		}
	}
	return false
}
