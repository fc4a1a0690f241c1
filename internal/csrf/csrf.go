// Package csrf выдает anti-forgery токены сессий и проверяет их на небезопасных запросах.
package csrf

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/VitaminP8/threadly/internal/storage"
	"github.com/lithammer/shortuuid/v4"
	"go.uber.org/zap"
)

const (
	HeaderName = "X-CSRF-Token"
	DefaultTTL = 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid CSRF token")

type Token struct {
	SessionID string
	UserID    uint
	Value     string
	ExpiresAt time.Time
}

// TokenStore хранит по одному токену на сессию
type TokenStore interface {
	SaveToken(t Token) error
	// GetToken возвращает storage.ErrNotFound, если токена нет
	GetToken(sessionID string) (*Token, error)
	DeleteToken(sessionID string) error
	DeleteExpired(now time.Time) (int, error)
}

type Service struct {
	store TokenStore
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store TokenStore, ttl time.Duration, log *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, ttl: ttl, log: log, now: time.Now}
}

// Issue создает новый токен сессии, заменяя прежний
func (s *Service) Issue(sessionID string, userID uint) (string, error) {
	t := Token{
		SessionID: sessionID,
		UserID:    userID,
		Value:     shortuuid.New(),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.store.SaveToken(t); err != nil {
		return "", fmt.Errorf("save csrf token: %w", err)
	}
	return t.Value, nil
}

// Token возвращает действующий токен сессии или выдает новый
func (s *Service) Token(sessionID string, userID uint) (string, error) {
	t, err := s.store.GetToken(sessionID)
	switch {
	case err == nil && t.ExpiresAt.After(s.now()):
		return t.Value, nil
	case err == nil, errors.Is(err, storage.ErrNotFound):
		return s.Issue(sessionID, userID)
	}
	return "", fmt.Errorf("get csrf token: %w", err)
}

func (s *Service) Verify(sessionID, value string) error {
	if sessionID == "" || value == "" {
		return ErrInvalidToken
	}
	t, err := s.store.GetToken(sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("get csrf token: %w", err)
	}
	if !t.ExpiresAt.After(s.now()) {
		return ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(t.Value), []byte(value)) != 1 {
		return ErrInvalidToken
	}
	return nil
}

func (s *Service) Revoke(sessionID string) error {
	if err := s.store.DeleteToken(sessionID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete csrf token: %w", err)
	}
	return nil
}

// RunCleanup удаляет просроченные токены каждые interval до отмены ctx
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.store.DeleteExpired(s.now())
			if err != nil {
				s.log.Error("csrf cleanup failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.log.Info("expired csrf tokens removed", zap.Int("count", n))
			}
		}
	}
}
