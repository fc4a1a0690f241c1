package post

import (
	"context"

	"github.com/VitaminP8/threadly/internal/model"
)

type PostStorage interface {
	CreatePost(ctx context.Context, title, content, category string) (*model.Post, error)
	GetPostById(id string) (*model.Post, error)
	GetAllPosts() ([]*model.Post, error)
	DisableComment(ctx context.Context, id string) error
	EnableComment(ctx context.Context, id string) error
	DeletePostById(ctx context.Context, id string) error
}
