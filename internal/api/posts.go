package api

import (
	"net/http"

	"github.com/VitaminP8/threadly/internal/model"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (h *Handler) registerPostRoutes(g *echo.Group) {
	g.GET("/posts", h.listPosts)
	g.POST("/posts", h.createPost, requireAuth)
	g.GET("/posts/:id", h.getPost)
	g.DELETE("/posts/:id", h.deletePost, requireAuth)
	g.POST("/posts/:id/comments/disable", h.disableComments, requireAuth)
	g.POST("/posts/:id/comments/enable", h.enableComments, requireAuth)
	g.POST("/posts/:id/vote", h.votePost, requireAuth)
	g.GET("/posts/:id/events", h.events)
}

type createPostRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content" validate:"required,max=10000"`
	Category string `json:"category" validate:"max=50"`
}

type voteRequest struct {
	Vote string `json:"vote" validate:"required,oneof=up down like dislike"`
}

func (h *Handler) listPosts(c echo.Context) error {
	posts, err := h.PostStore.GetAllPosts()
	if err != nil {
		return toHTTPError(err)
	}
	for _, p := range posts {
		comments, err := h.CommentStore.GetComments(p.ID)
		if err != nil {
			return toHTTPError(err)
		}
		p.CommentCount = model.CountComments(comments)
	}
	return c.JSON(http.StatusOK, posts)
}

func (h *Handler) createPost(c echo.Context) error {
	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return toHTTPError(err)
	}

	p, err := h.PostStore.CreatePost(c.Request().Context(), req.Title, req.Content, req.Category)
	if err != nil {
		return toHTTPError(err)
	}
	p.Comments = []*model.Comment{}
	return c.JSON(http.StatusCreated, p)
}

// getPost отдает пост с деревом комментариев и голосами текущего пользователя
func (h *Handler) getPost(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	p, err := h.PostStore.GetPostById(id)
	if err != nil {
		return toHTTPError(err)
	}
	comments, err := h.CommentStore.GetComments(id)
	if err != nil {
		return toHTTPError(err)
	}
	votes, err := h.VoteStore.UserVotes(ctx, id)
	if err != nil {
		return toHTTPError(err)
	}

	p.UserVote = votes[model.PostTarget(id)]
	applyUserVotes(comments, votes)
	p.Comments = comments
	p.CommentCount = model.CountComments(comments)
	return c.JSON(http.StatusOK, p)
}

func applyUserVotes(comments []*model.Comment, votes map[model.Target]model.Vote) {
	for _, c := range comments {
		c.UserVote = votes[model.CommentTarget(c.ID)]
		applyUserVotes(c.Children, votes)
	}
}

func (h *Handler) deletePost(c echo.Context) error {
	if err := h.PostStore.DeletePostById(c.Request().Context(), c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Post deleted"})
}

func (h *Handler) disableComments(c echo.Context) error {
	if err := h.PostStore.DisableComment(c.Request().Context(), c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Comments disabled"})
}

func (h *Handler) enableComments(c echo.Context) error {
	if err := h.PostStore.EnableComment(c.Request().Context(), c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Comments enabled"})
}

func (h *Handler) votePost(c echo.Context) error {
	return h.vote(c, model.PostTarget(c.Param("id")))
}

func (h *Handler) vote(c echo.Context, target model.Target) error {
	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return toHTTPError(err)
	}
	dir, err := model.ParseVote(req.Vote)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid vote type")
	}

	res, err := h.VoteStore.Vote(c.Request().Context(), target, dir)
	if err != nil {
		return toHTTPError(err)
	}
	h.Metrics.VoteCast(target.Kind, res.UserVote)
	h.Logger.Debug("vote", zap.Stringer("target", target), zap.String("result", string(res.UserVote)))
	return c.JSON(http.StatusOK, res)
}
