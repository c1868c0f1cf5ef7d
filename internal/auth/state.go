package auth

import (
	"cs-stats-bridge/internal/constants"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// StateStore holds single-use login state nonces. Entries expire after
// constants.LoginStateTTL and are pruned on issue.
type StateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]time.Time)}
}

func (s *StateStore) Issue() (string, error) {
	state, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, issuedAt := range s.states {
		if now.Sub(issuedAt) > constants.LoginStateTTL {
			delete(s.states, k)
		}
	}

	s.states[state] = now
	return state, nil
}

// Consume removes and validates a state, returning false for unknown,
// reused, or expired values.
func (s *StateStore) Consume(state string) bool {
	if state == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	issuedAt, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)

	return time.Since(issuedAt) <= constants.LoginStateTTL
}
