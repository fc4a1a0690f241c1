package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// events отдает изменения дерева комментариев поста как text/event-stream
// до отключения клиента
func (h *Handler) events(c echo.Context) error {
	postID := c.Param("id")
	if _, err := h.PostStore.GetPostById(postID); err != nil {
		return toHTTPError(err)
	}

	ch, cancel := h.Manager.Subscribe(postID)
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("encode comment event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
