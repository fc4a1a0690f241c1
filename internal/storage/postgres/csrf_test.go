package postgres

import (
	"testing"
	"time"

	"github.com/VitaminP8/threadly/internal/csrf"
	"github.com/VitaminP8/threadly/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFPostgresStorage(t *testing.T) {
	setupTestDB(t)
	s := NewCSRFPostgresStorage()
	now := time.Now()

	require.NoError(t, s.SaveToken(csrf.Token{SessionID: "a", UserID: 1, Value: "v1", ExpiresAt: now.Add(time.Hour)}))
	// повторное сохранение заменяет токен сессии
	require.NoError(t, s.SaveToken(csrf.Token{SessionID: "a", UserID: 1, Value: "v2", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, s.SaveToken(csrf.Token{SessionID: "old", UserID: 2, Value: "v3", ExpiresAt: now.Add(-time.Hour)}))

	tok, err := s.GetToken("a")
	require.NoError(t, err)
	assert.Equal(t, "v2", tok.Value)
	assert.Equal(t, uint(1), tok.UserID)

	n, err := s.DeleteExpired(now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = s.GetToken("old")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.DeleteToken("a"))
	_, err = s.GetToken("a")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCSRFPostgresStorage_WithService(t *testing.T) {
	setupTestDB(t)
	svc := csrf.NewService(NewCSRFPostgresStorage(), time.Hour, nil)

	value, err := svc.Token("sid", 1)
	require.NoError(t, err)
	assert.NoError(t, svc.Verify("sid", value))
	require.NoError(t, svc.Revoke("sid"))
	assert.ErrorIs(t, svc.Verify("sid", value), csrf.ErrInvalidToken)
}
