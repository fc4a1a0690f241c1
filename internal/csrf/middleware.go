package csrf

import (
	"errors"
	"net/http"

	"github.com/VitaminP8/threadly/internal/auth"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Middleware требует заголовок X-CSRF-Token на небезопасных запросах
// авторизованной сессии. Анонимные запросы пропускаются: их отклонит обработчик.
func (s *Service) Middleware(skipper middleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = middleware.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			ctx := c.Request().Context()
			if _, err := auth.GetUserIDFromContext(ctx); err != nil {
				return next(c)
			}

			err := s.Verify(auth.GetSessionIDFromContext(ctx), c.Request().Header.Get(HeaderName))
			if errors.Is(err, ErrInvalidToken) {
				return echo.NewHTTPError(http.StatusForbidden, "Invalid CSRF token")
			}
			if err != nil {
				return err
			}
			return next(c)
		}
	}
}

// SkipPaths пропускает перечисленные маршруты (вход и регистрация еще не имеют токена)
func SkipPaths(paths ...string) middleware.Skipper {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return func(c echo.Context) bool {
		return set[c.Path()]
	}
}
