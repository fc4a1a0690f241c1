package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/VitaminP8/threadly/internal/csrf"
	"github.com/VitaminP8/threadly/internal/storage"
)

type CSRFMemoryStorage struct {
	mu     sync.Mutex
	tokens map[string]csrf.Token // sessionID -> токен
}

func NewCSRFMemoryStorage() *CSRFMemoryStorage {
	return &CSRFMemoryStorage{tokens: make(map[string]csrf.Token)}
}

func (s *CSRFMemoryStorage) SaveToken(t csrf.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.SessionID] = t
	return nil
}

func (s *CSRFMemoryStorage) GetToken(sessionID string) (*csrf.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[sessionID]
	if !ok {
		return nil, fmt.Errorf("csrf token: %w", storage.ErrNotFound)
	}
	return &t, nil
}

func (s *CSRFMemoryStorage) DeleteToken(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, sessionID)
	return nil
}

func (s *CSRFMemoryStorage) DeleteExpired(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for sid, t := range s.tokens {
		if !t.ExpiresAt.After(now) {
			delete(s.tokens, sid)
			n++
		}
	}
	return n, nil
}
