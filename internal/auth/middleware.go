package auth

import (
	"net/http"
	"strings"
)

// SessionCookie - cookie с токеном сессии для браузерных клиентов
const SessionCookie = "session_token"

// Middleware кладет пользователя из токена в context. Запросы без токена
// или с невалидным токеном проходят дальше анонимными.
func (i *Issuer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractToken(r)
		if tokenStr == "" {
			next.ServeHTTP(w, r) // неавторизованный доступ, пропускаем
			return
		}

		if len(i.secret) == 0 {
			http.Error(w, "JWT secret not set", http.StatusInternalServerError)
			return
		}

		claims, err := i.Parse(tokenStr)
		if err != nil {
			next.ServeHTTP(w, r) // невалидный токен, пропускаем
			return
		}

		ctx := WithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	if token := extractTokenFromHeader(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func extractTokenFromHeader(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
