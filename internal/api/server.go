package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// ContentSecurityPolicy отдается со всеми ответами
const ContentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self'; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data: blob:; " +
	"frame-ancestors 'none'"

// NewHTTPServer оборачивает обработчик в http.Server. Контексты запросов
// наследуются от ctx: после его отмены потоки событий закрываются и
// Shutdown не ждет их до таймаута.
func NewHTTPServer(ctx context.Context, addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

// protect ставит заголовки безопасности, CORS, лимит запросов и таймаут обработки
func (h *Handler) protect(e *echo.Echo) {
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "same-origin",
		ContentSecurityPolicy: ContentSecurityPolicy,
	}))

	if len(h.HTTP.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     h.HTTP.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-CSRF-Token"},
			AllowCredentials: true,
			MaxAge:           600,
		}))
	}

	if h.HTTP.RateLimit > 0 {
		burst := h.HTTP.RateBurst
		if burst < 1 {
			burst = 1
		}
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool {
				return !strings.HasPrefix(c.Request().URL.Path, "/api/")
			},
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(h.HTTP.RateLimit),
				Burst:     burst,
				ExpiresIn: 3 * time.Minute,
			}),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Rate limit exceeded")
			},
		}))
	}

	if h.HTTP.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			// поток событий живет до отключения клиента
			Skipper: func(c echo.Context) bool {
				return strings.HasSuffix(c.Request().URL.Path, "/events")
			},
			Timeout: h.HTTP.RequestTimeout,
			ErrorHandler: func(err error, c echo.Context) error {
				if errors.Is(err, context.DeadlineExceeded) {
					return echo.NewHTTPError(http.StatusServiceUnavailable, "Request timeout").SetInternal(err)
				}
				return err
			},
		}))
	}
}
