package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/lithammer/shortuuid/v4"
)

const DefaultTokenTTL = 72 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims - владелец токена и идентификатор сессии
type Claims struct {
	UserID    uint
	Username  string
	SessionID string
}

// Issuer подписывает и проверяет токены сессии (HS256)
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue выдает токен новой сессии
func (i *Issuer) Issue(userID uint, username string) (string, Claims, error) {
	if len(i.secret) == 0 {
		return "", Claims{}, errors.New("JWT secret is not set")
	}
	claims := Claims{UserID: userID, Username: username, SessionID: shortuuid.New()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"sid":      claims.SessionID,
		"exp":      i.now().Add(i.ttl).Unix(),
	})

	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, claims, nil
}

// Parse проверяет подпись и срок жизни, возвращает владельца токена
func (i *Issuer) Parse(tokenStr string) (Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	idFloat, ok := claims["user_id"].(float64)
	if !ok {
		return Claims{}, fmt.Errorf("%w: no user_id claim", ErrInvalidToken)
	}
	username, _ := claims["username"].(string)
	sid, _ := claims["sid"].(string)
	return Claims{UserID: uint(idFloat), Username: username, SessionID: sid}, nil
}
