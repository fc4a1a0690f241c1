package api

import (
	"net/http"

	"github.com/VitaminP8/threadly/internal/model"
	"github.com/labstack/echo/v4"
)

func (h *Handler) registerCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.createComment, requireAuth)
	g.PUT("/comments/:id", h.updateComment, requireAuth)
	g.DELETE("/comments/:id", h.deleteComment, requireAuth)
	g.POST("/comments/:id/vote", h.voteComment, requireAuth)
}

// длина текста проверяется хранилищем после обрезки пробелов
type createCommentRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parentId" validate:"omitempty,numeric"`
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

type deleteCommentResponse struct {
	Message string `json:"message"`
	Removed int    `json:"removed"`
}

func (h *Handler) createComment(c echo.Context) error {
	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return toHTTPError(err)
	}

	created, err := h.CommentStore.CreateComment(c.Request().Context(), c.Param("id"), req.ParentID, req.Content)
	if err != nil {
		return toHTTPError(err)
	}
	h.Metrics.CommentEvent(model.EventCommentCreated)
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) updateComment(c echo.Context) error {
	var req updateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	updated, err := h.CommentStore.UpdateComment(c.Request().Context(), c.Param("id"), req.Content)
	if err != nil {
		return toHTTPError(err)
	}
	h.Metrics.CommentEvent(model.EventCommentUpdated)
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteComment(c echo.Context) error {
	removed, err := h.CommentStore.DeleteComment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	h.Metrics.CommentEvent(model.EventCommentDeleted)
	return c.JSON(http.StatusOK, deleteCommentResponse{Message: "Comment deleted", Removed: removed})
}

func (h *Handler) voteComment(c echo.Context) error {
	return h.vote(c, model.CommentTarget(c.Param("id")))
}
