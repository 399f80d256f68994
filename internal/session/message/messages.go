// Package message builds the server->client messages of the wire protocol.
package message

import (
	"encoding/json"
	"fmt"

	"trickshot/internal/game/physics"
	"trickshot/internal/match"
	"trickshot/internal/network"
	"trickshot/internal/services/leaderboard"
)

// Outbound message types.
const (
	TypeWelcome     = "welcome"
	TypeState       = "state"
	TypeShotResult  = "shot_result"
	TypeTimer       = "timer"
	TypeLeaderboard = "leaderboard"
	TypeError       = "error"
)

type WelcomePayload struct {
	Token       string              `json:"token"`
	DisplayName string              `json:"displayName"`
	Leaderboard []leaderboard.Entry `json:"leaderboard"`
}

type ShotResultPayload struct {
	Identity    string           `json:"identity"`
	DisplayName string           `json:"displayName"`
	Path        []physics.Vector `json:"path"`
	Score       int              `json:"score"`
}

type TimerPayload struct {
	RemainingSeconds float64 `json:"remainingSeconds"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func wrap(msgType string, payload any) network.Message {
	data, _ := json.Marshal(payload)
	return network.Message{Type: msgType, Payload: data}
}

// Welcome confirms a login: the token to present next time, the cosmetic
// name, and the current standings.
func Welcome(token, displayName string, top []leaderboard.Entry) network.Message {
	return wrap(TypeWelcome, WelcomePayload{
		Token:       token,
		DisplayName: displayName,
		Leaderboard: top,
	})
}

// State is the full match snapshot broadcast after anything changes.
func State(snap match.Snapshot) network.Message {
	return wrap(TypeState, snap)
}

// ShotResult reports one resolved shot: who fired, the flight path, and the
// score delta.
func ShotResult(identity, displayName string, res physics.Result) network.Message {
	return wrap(TypeShotResult, ShotResultPayload{
		Identity:    identity,
		DisplayName: displayName,
		Path:        res.Path,
		Score:       res.Score,
	})
}

// Timer is the lightweight per-tick countdown notification.
func Timer(remainingSeconds float64) network.Message {
	return wrap(TypeTimer, TimerPayload{RemainingSeconds: remainingSeconds})
}

// Leaderboard carries the refreshed top entries.
func Leaderboard(top []leaderboard.Entry) network.Message {
	return wrap(TypeLeaderboard, top)
}

// Error is sent to the offending requester only; match state is unchanged.
func Error(format string, args ...any) network.Message {
	return wrap(TypeError, ErrorPayload{Error: fmt.Sprintf(format, args...)})
}
