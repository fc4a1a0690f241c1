package auth

import (
	"context"
	"errors"
)

type contextKey string

const (
	userIDKey    = contextKey("userID")
	usernameKey  = contextKey("username")
	sessionIDKey = contextKey("sessionID")
)

// Сохраняет userID в контексте
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// WithUser сохраняет в контексте id и имя пользователя сессии
func WithUser(ctx context.Context, userID uint, username string) context.Context {
	return context.WithValue(WithUserID(ctx, userID), usernameKey, username)
}

// Достает userID из контекста
func GetUserIDFromContext(ctx context.Context) (uint, error) {
	val := ctx.Value(userIDKey)
	id, ok := val.(uint)
	if !ok {
		return 0, errors.New("user ID not found in context")
	}
	return id, nil
}

func GetUsernameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(usernameKey).(string)
	return name
}

// WithClaims кладет в контекст все данные токена сессии
func WithClaims(ctx context.Context, c Claims) context.Context {
	ctx = WithUser(ctx, c.UserID, c.Username)
	return context.WithValue(ctx, sessionIDKey, c.SessionID)
}

func GetSessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sessionIDKey).(string)
	return sid
}
