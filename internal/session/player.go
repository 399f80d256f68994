package session

import "trickshot/internal/network"

// PlayerSession ties one live connection to a resolved identity and, while
// playing, to a match. Identity is empty until login; MatchID is empty while
// in the lobby.
type PlayerSession struct {
	Client      network.Conn
	Identity    string
	DisplayName string
	MatchID     string
}

func NewPlayerSession(client network.Conn) *PlayerSession {
	return &PlayerSession{Client: client}
}
