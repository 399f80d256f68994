package session

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"trickshot/internal/identity"
	"trickshot/internal/match"
	"trickshot/internal/network"
	"trickshot/internal/services/leaderboard"
	"trickshot/internal/session/message"
)

// Inbound command types.
const (
	cmdLogin       = "login"
	cmdJoin        = "join"
	cmdShoot       = "shoot"
	cmdLeave       = "leave"
	cmdLeaderboard = "leaderboard"
)

// CommandHandlerFunc is the signature shared by all command handlers.
type CommandHandlerFunc func(h *GameHandler, s *PlayerSession, payload json.RawMessage)

// Deps are the collaborators a GameHandler is wired with.
type Deps struct {
	Registry   *match.Registry
	Cleanup    *match.Cleanup
	Board      *leaderboard.Board
	Identities *identity.Store
	Logger     *zap.Logger

	// TickInterval is the solo countdown cadence. Zero means one second.
	TickInterval time.Duration
}

// GameHandler implements network.EventHandler: it is the session boundary
// where connections become identified players acting on matches. The hub
// delivers all events on one goroutine, so the sessions map needs no lock.
type GameHandler struct {
	sessions map[network.Conn]*PlayerSession
	registry *match.Registry
	cleanup  *match.Cleanup
	board    *leaderboard.Board
	ids      *identity.Store
	logger   *zap.Logger

	tickInterval time.Duration
	router       map[string]CommandHandlerFunc
}

func NewGameHandler(deps Deps) *GameHandler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.TickInterval <= 0 {
		deps.TickInterval = time.Second
	}
	h := &GameHandler{
		sessions:     make(map[network.Conn]*PlayerSession),
		registry:     deps.Registry,
		cleanup:      deps.Cleanup,
		board:        deps.Board,
		ids:          deps.Identities,
		logger:       deps.Logger,
		tickInterval: deps.TickInterval,
	}
	h.router = map[string]CommandHandlerFunc{
		cmdLogin:       (*GameHandler).handleLogin,
		cmdJoin:        (*GameHandler).handleJoin,
		cmdShoot:       (*GameHandler).handleShoot,
		cmdLeave:       (*GameHandler).handleLeave,
		cmdLeaderboard: (*GameHandler).handleLeaderboard,
	}
	return h
}

// --- network.EventHandler ---

func (h *GameHandler) OnConnect(c network.Conn) {
	h.sessions[c] = NewPlayerSession(c)
	h.logger.Info("session opened",
		zap.String("addr", c.Addr()),
		zap.Int("sessions", len(h.sessions)))
}

func (h *GameHandler) OnDisconnect(c network.Conn) {
	s, ok := h.sessions[c]
	if !ok {
		return
	}
	h.leaveMatch(s, true)
	delete(h.sessions, c)
	h.logger.Info("session closed",
		zap.String("addr", c.Addr()),
		zap.Int("sessions", len(h.sessions)))
}

func (h *GameHandler) OnMessage(c network.Conn, msg network.Message) {
	s, ok := h.sessions[c]
	if !ok {
		return
	}

	// Everything but login requires a bound identity.
	if msg.Type != cmdLogin && s.Identity == "" {
		c.Send() <- message.Error("login required")
		return
	}

	handler, found := h.router[msg.Type]
	if !found {
		c.Send() <- message.Error("unknown command: %s", msg.Type)
		return
	}
	handler(h, s, msg.Payload)
}

// leaveMatch detaches the session from its match, if any, and routes the
// departure: solo disconnects go through the grace-window manager, voluntary
// solo leaves and emptied duels tear the match down, and a half-empty duel
// is reset so it can host a new opponent.
func (h *GameHandler) leaveMatch(s *PlayerSession, disconnected bool) {
	if s.MatchID == "" {
		return
	}
	matchID := s.MatchID
	s.MatchID = ""

	m := h.registry.Get(matchID)
	if m == nil {
		return
	}

	if disconnected && !m.ConnBound(s.Identity, s.Client) {
		// The player already rejoined on a newer connection; this drop
		// belongs to the superseded one and must not touch the match.
		h.logger.Debug("stale disconnect ignored",
			zap.String("match_id", matchID),
			zap.String("identity", s.Identity))
		return
	}

	switch m.Mode() {
	case match.ModeSolo:
		if disconnected {
			// The hub has already closed this connection's queue; detach
			// it so timer broadcasts skip the slot during the grace window.
			m.UnbindConn(s.Identity)
			h.cleanup.HandleSoloDisconnect(matchID)
		} else {
			h.registry.Delete(matchID)
		}
	case match.ModeDuel:
		if left := m.DropParticipant(s.Identity); left == 0 {
			h.registry.Delete(matchID)
		} else {
			h.logger.Info("duel reset, waiting for a new opponent",
				zap.String("match_id", matchID))
			m.Broadcast(message.State(m.Snapshot()))
		}
	}
}
