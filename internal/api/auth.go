package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/VitaminP8/threadly/internal/auth"
	"github.com/VitaminP8/threadly/internal/model"
	"github.com/VitaminP8/threadly/internal/storage"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (h *Handler) registerAuthRoutes(g *echo.Group) {
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/logout", h.logout)
	g.GET("/session", h.session)
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	CSRFToken string      `json:"csrfToken"`
	User      *model.User `json:"user"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId,omitempty"`
	Username      string `json:"username,omitempty"`
	CSRFToken     string `json:"csrfToken,omitempty"`
}

func (h *Handler) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return toHTTPError(err)
	}

	u, err := h.UserStore.RegisterUser(req.Username, req.Email, req.Password)
	if err != nil {
		return toHTTPError(err)
	}
	h.Logger.Info("user registered", zap.String("user", u.ID))
	return c.JSON(http.StatusCreated, u)
}

// login выдает JWT сессии (в теле и в cookie) и anti-forgery токен этой сессии
func (h *Handler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return toHTTPError(err)
	}

	u, err := h.UserStore.LoginUser(req.Username, req.Password)
	if errors.Is(err, storage.ErrUnauthorized) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
	}
	if err != nil {
		return toHTTPError(err)
	}

	userID, err := strconv.ParseUint(u.ID, 10, 64)
	if err != nil {
		return toHTTPError(err)
	}
	token, claims, err := h.Issuer.Issue(uint(userID), u.Username)
	if err != nil {
		return toHTTPError(err)
	}
	csrfToken, err := h.Tokens.Issue(claims.SessionID, claims.UserID)
	if err != nil {
		return toHTTPError(err)
	}

	c.SetCookie(h.sessionCookie(token, time.Now().Add(h.Issuer.TTL())))
	return c.JSON(http.StatusOK, loginResponse{Token: token, CSRFToken: csrfToken, User: u})
}

func (h *Handler) logout(c echo.Context) error {
	if sid := auth.GetSessionIDFromContext(c.Request().Context()); sid != "" {
		if err := h.Tokens.Revoke(sid); err != nil {
			return toHTTPError(err)
		}
	}
	c.SetCookie(h.sessionCookie("", time.Unix(0, 0)))
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

// session - проверка статуса входа; anti-forgery токен выдается заново, если истек
func (h *Handler) session(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return c.JSON(http.StatusOK, sessionResponse{Authenticated: false})
	}

	csrfToken, err := h.Tokens.Token(auth.GetSessionIDFromContext(ctx), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, sessionResponse{
		Authenticated: true,
		UserID:        strconv.FormatUint(uint64(userID), 10),
		Username:      auth.GetUsernameFromContext(ctx),
		CSRFToken:     csrfToken,
	})
}

func (h *Handler) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
