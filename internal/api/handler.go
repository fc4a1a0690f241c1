// Package api - REST-бэкенд форума поверх echo: посты, дерево комментариев,
// голоса, сессии и поток событий комментариев.
package api

import (
	"net/http"

	"github.com/VitaminP8/threadly/internal/auth"
	"github.com/VitaminP8/threadly/internal/comment"
	"github.com/VitaminP8/threadly/internal/config"
	"github.com/VitaminP8/threadly/internal/csrf"
	"github.com/VitaminP8/threadly/internal/logger"
	"github.com/VitaminP8/threadly/internal/metrics"
	"github.com/VitaminP8/threadly/internal/post"
	"github.com/VitaminP8/threadly/internal/subscription"
	"github.com/VitaminP8/threadly/internal/user"
	"github.com/VitaminP8/threadly/internal/vote"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Handler держит зависимости всех обработчиков
type Handler struct {
	PostStore    post.PostStorage
	CommentStore comment.CommentStorage
	UserStore    user.UserStorage
	VoteStore    vote.VoteStorage
	Issuer       *auth.Issuer
	Tokens       *csrf.Service
	Manager      subscription.Manager
	Metrics      *metrics.Metrics
	Logger       *zap.Logger

	// SecureCookie ставит флаг Secure на cookie сессии (production за TLS)
	SecureCookie bool
	// HTTP - CORS, лимит запросов и таймаут; нулевые значения их выключают
	HTTP config.HTTPConfig
}

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}

// NewServer собирает echo с middleware и маршрутами
func NewServer(h *Handler) *echo.Echo {
	if h.Logger == nil {
		h.Logger = zap.NewNop()
	}
	if h.Metrics == nil {
		h.Metrics = metrics.New()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{v: validator.New()}
	e.HTTPErrorHandler = h.errorHandler

	e.Use(middleware.Recover())
	e.Use(logger.Middleware(h.Logger))
	e.Use(h.Metrics.Middleware())
	h.protect(e)
	e.Use(echo.WrapMiddleware(h.Issuer.Middleware))
	e.Use(h.Tokens.Middleware(csrf.SkipPaths("/api/login", "/api/register")))

	e.GET("/health", h.health)
	e.GET("/metrics", echo.WrapHandler(h.Metrics.Handler()))

	g := e.Group("/api")
	h.registerAuthRoutes(g)
	h.registerPostRoutes(g)
	h.registerCommentRoutes(g)
	return e
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// requireAuth отклоняет анонимные запросы до разбора тела
func requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.GetUserIDFromContext(c.Request().Context()); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}
		return next(c)
	}
}

type messageResponse struct {
	Message string `json:"message"`
}
