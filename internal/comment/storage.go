package comment

import (
	"context"

	"github.com/VitaminP8/threadly/internal/model"
)

type CommentStorage interface {
	CreateComment(ctx context.Context, postID, parentID, content string) (*model.Comment, error)
	// GetComments возвращает дерево комментариев поста, дети в порядке создания
	GetComments(postID string) ([]*model.Comment, error)
	GetCommentByID(id string) (*model.Comment, error)
	UpdateComment(ctx context.Context, id, content string) (*model.Comment, error)
	// DeleteComment удаляет комментарий вместе с ответами, возвращает число удаленных
	DeleteComment(ctx context.Context, id string) (int, error)
}
