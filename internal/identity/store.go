package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Identity is the stable player record. ID doubles as the token clients
// present on later logins; DisplayName is cosmetic.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Store resolves identity tokens, minting and persisting new identities for
// unknown or absent ones. Persistence is a single JSON file so identities
// survive restarts without dragging in a database; match state itself is
// ephemeral and never stored.
type Store struct {
	mu     sync.Mutex
	byID   map[string]Identity
	path   string // empty disables persistence
	logger *zap.Logger
}

// NewStore loads the identity file at path if it exists. An empty path
// yields a memory-only store.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		byID:   make(map[string]Identity),
		path:   path,
		logger: logger,
	}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read identity store: %w", err)
	}
	if err := json.Unmarshal(data, &s.byID); err != nil {
		return nil, fmt.Errorf("decode identity store: %w", err)
	}
	logger.Info("identity store loaded", zap.String("path", path), zap.Int("identities", len(s.byID)))
	return s, nil
}

// ResolveOrCreate confirms a previously issued token or mints a fresh
// identity. The returned record is what every other layer keys players by.
func (s *Store) ResolveOrCreate(candidate string) Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	if candidate != "" {
		if id, ok := s.byID[candidate]; ok {
			return id
		}
	}

	token := uuid.NewString()
	id := Identity{
		ID:          token,
		DisplayName: "Marksman-" + token[:8],
	}
	s.byID[token] = id
	s.persistLocked()
	return id
}

// persistLocked rewrites the backing file. Failures are logged and swallowed:
// losing persistence degrades reconnect-across-restart, nothing else.
func (s *Store) persistLocked() {
	if s.path == "" {
		return
	}
	data, err := json.MarshalIndent(s.byID, "", "  ")
	if err != nil {
		s.logger.Error("encode identity store", zap.Error(err))
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.logger.Error("write identity store", zap.String("path", s.path), zap.Error(err))
	}
}

// Len reports how many identities are known.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
