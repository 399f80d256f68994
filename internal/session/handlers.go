package session

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trickshot/internal/game/physics"
	"trickshot/internal/identity"
	"trickshot/internal/match"
	"trickshot/internal/services/leaderboard"
	"trickshot/internal/session/message"
)

type loginPayload struct {
	Token string `json:"token"`
}

type joinPayload struct {
	MatchID string `json:"matchId"`
	Mode    string `json:"mode"`
}

type shootPayload struct {
	AimX float64 `json:"aimX"`
	AimY float64 `json:"aimY"`
}

func (h *GameHandler) handleLogin(s *PlayerSession, payload json.RawMessage) {
	var p loginPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			s.Client.Send() <- message.Error("malformed login payload")
			return
		}
	}
	if s.MatchID != "" {
		// Swapping identities mid-match would strand the old identity's
		// slot; the match keys everything by identity.
		s.Client.Send() <- message.Error("already in a match, leave first")
		return
	}

	id := h.ids.ResolveOrCreate(p.Token)
	s.Identity = id.ID
	s.DisplayName = id.DisplayName

	h.logger.Info("player logged in",
		zap.String("identity", id.ID),
		zap.String("addr", s.Client.Addr()))
	s.Client.Send() <- message.Welcome(id.ID, id.DisplayName, h.board.Top())
}

func (h *GameHandler) handleJoin(s *PlayerSession, payload json.RawMessage) {
	var p joinPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.Client.Send() <- message.Error("malformed join payload")
		return
	}
	if s.MatchID != "" {
		s.Client.Send() <- message.Error("already in a match, leave first")
		return
	}

	var (
		id   string
		mode match.Mode
	)
	switch match.Mode(p.Mode) {
	case match.ModeSolo:
		// One solo match per player: the id is derived, never chosen.
		mode = match.ModeSolo
		id = match.SoloID(s.Identity)
	case match.ModeDuel:
		mode = match.ModeDuel
		id = p.MatchID
		if id == "" {
			id = uuid.NewString()
		}
	default:
		s.Client.Send() <- message.Error("unknown mode: %s", p.Mode)
		return
	}

	m, status, err := h.registry.Join(id, s.Client, s.Identity, s.DisplayName, mode)
	if err != nil {
		// Rejections go to the requester only; the match is untouched.
		s.Client.Send() <- message.Error("cannot join match: %v", err)
		return
	}
	s.MatchID = id

	if mode == match.ModeSolo {
		h.cleanup.Cancel(id)
		if status == match.JoinCreated {
			h.registry.StartSoloTimer(m, h.tickInterval, h.soloHooks())
		}
	}

	h.logger.Info("player joined match",
		zap.String("match_id", id),
		zap.String("identity", s.Identity),
		zap.Int("status", int(status)))
	m.Broadcast(message.State(m.Snapshot()))
}

func (h *GameHandler) handleShoot(s *PlayerSession, payload json.RawMessage) {
	var p shootPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.Client.Send() <- message.Error("malformed shoot payload")
		return
	}
	if s.MatchID == "" {
		s.Client.Send() <- message.Error("not in a match")
		return
	}
	m := h.registry.Get(s.MatchID)
	if m == nil {
		s.MatchID = ""
		s.Client.Send() <- message.Error("match no longer exists")
		return
	}

	aim := physics.Vector{X: p.AimX, Y: p.AimY}
	report, err := m.FireShot(s.Identity, func(wind physics.Vector) physics.Result {
		return physics.ComputeShot(aim, wind)
	})
	switch {
	case errors.Is(err, match.ErrNotYourTurn), errors.Is(err, match.ErrMatchOver):
		// Expected races (straggling shot after a turn change or timeout):
		// dropped without a reply or a broadcast.
		h.logger.Debug("shot ignored",
			zap.String("match_id", s.MatchID),
			zap.String("identity", s.Identity),
			zap.Error(err))
		return
	case err != nil:
		s.Client.Send() <- message.Error("shot rejected: %v", err)
		return
	}

	m.Broadcast(message.ShotResult(s.Identity, s.DisplayName, report.Result))
	m.Broadcast(message.State(report.Snapshot))

	if report.Concluded {
		h.logger.Info("duel concluded",
			zap.String("match_id", s.MatchID),
			zap.Int("rounds", report.Snapshot.RoundLimit))
		h.submitScores(m, report.Snapshot.Players)
	}
}

func (h *GameHandler) handleLeave(s *PlayerSession, _ json.RawMessage) {
	h.leaveMatch(s, false)
}

func (h *GameHandler) handleLeaderboard(s *PlayerSession, _ json.RawMessage) {
	s.Client.Send() <- message.Leaderboard(h.board.Top())
}

// soloHooks are the clock-event reactions for solo matches: a countdown
// notification per tick, and on expiry the final-state broadcast plus the
// one-shot score hand-off.
func (h *GameHandler) soloHooks() match.TimerHooks {
	return match.TimerHooks{
		OnTick: func(m *match.Match, remaining float64) {
			m.Broadcast(message.Timer(remaining))
		},
		OnExpire: func(m *match.Match) {
			ident, name, score := m.SoloResult()
			if score > 0 {
				h.submitScores(m, []match.PlayerView{{
					Identity:    ident,
					DisplayName: name,
					Score:       score,
				}})
			}
			m.Broadcast(message.State(m.Snapshot()))
		},
	}
}

// submitScores hands positive scores to the leaderboard. Match state is
// already released at every call site, and the submission itself runs on its
// own goroutine so the match never waits on it.
func (h *GameHandler) submitScores(m *match.Match, players []match.PlayerView) {
	go func() {
		var top []leaderboard.Entry
		for _, p := range players {
			if p.Score <= 0 {
				continue
			}
			top = h.board.Submit(identity.Identity{ID: p.Identity, DisplayName: p.DisplayName}, p.Score)
		}
		if top != nil {
			m.Broadcast(message.Leaderboard(top))
		}
	}()
}
