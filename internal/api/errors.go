package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/VitaminP8/threadly/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

// toHTTPError переводит ошибки хранилищ в ответы с кодом и текстом для клиента
func toHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusBadRequest, validationMessage(ve)).SetInternal(err)
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error()).SetInternal(err)
	case errors.Is(err, storage.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required").SetInternal(err)
	case errors.Is(err, storage.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error()).SetInternal(err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, "Username or email already taken").SetInternal(err)
	case errors.Is(err, storage.ErrCommentsDisabled):
		return echo.NewHTTPError(http.StatusForbidden, "Comments are disabled for this post").SetInternal(err)
	case errors.Is(err, storage.ErrMaxDepth):
		return echo.NewHTTPError(http.StatusBadRequest, "Maximum reply depth reached").SetInternal(err)
	case errors.Is(err, storage.ErrInvalidContent), errors.Is(err, storage.ErrInvalidVote):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
}

func validationMessage(ve validator.ValidationErrors) string {
	fe := ve[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Invalid email"
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// errorHandler пишет любую ошибку как {"error": "..."}
func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	he := toHTTPError(err)
	if he.Code >= http.StatusInternalServerError {
		h.Logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}

	msg, ok := he.Message.(string)
	if !ok {
		msg = http.StatusText(he.Code)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, errorResponse{Error: msg})
	}
	if err != nil {
		h.Logger.Warn("write error response", zap.Error(err))
	}
}
