package match

import (
	"time"

	"trickshot/internal/game/physics"
)

// PlayerView is a participant as seen by clients.
type PlayerView struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// Snapshot is a full, immutable view of a match for broadcasting. It carries
// no connection handles and is safe to hand to any goroutine.
type Snapshot struct {
	ID                   string         `json:"id"`
	Mode                 Mode           `json:"mode"`
	Players              []PlayerView   `json:"players"`
	CurrentTurn          string         `json:"currentTurn"`
	Round                int            `json:"round"`
	RoundLimit           int            `json:"roundLimit,omitempty"`
	Wind                 physics.Vector `json:"wind"`
	TimeLimitSeconds     int            `json:"timeLimitSeconds,omitempty"`
	TimeRemainingSeconds float64        `json:"timeRemainingSeconds"`
	StartedAt            time.Time      `json:"startedAt,omitzero"`
}

// Snapshot builds a point-in-time view of the match.
func (m *Match) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Match) snapshotLocked() Snapshot {
	players := make([]PlayerView, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, PlayerView{
			Identity:    p.Identity,
			DisplayName: p.DisplayName,
			Score:       p.Score,
		})
	}
	return Snapshot{
		ID:                   m.id,
		Mode:                 m.mode,
		Players:              players,
		CurrentTurn:          m.currentTurn,
		Round:                m.round,
		RoundLimit:           m.roundLimit,
		Wind:                 m.wind,
		TimeLimitSeconds:     int(m.timeLimit.Seconds()),
		TimeRemainingSeconds: m.remainingLocked(),
		StartedAt:            m.startedAt,
	}
}
