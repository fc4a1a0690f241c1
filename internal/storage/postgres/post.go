package postgres

import (
	"context"
	"fmt"

	"github.com/VitaminP8/threadly/internal/auth"
	"github.com/VitaminP8/threadly/internal/model"
	"github.com/VitaminP8/threadly/internal/storage"
	"github.com/VitaminP8/threadly/models"
	"github.com/ecodeclub/ekit/slice"
)

type PostPostgresStorage struct{}

func NewPostPostgresStorage() *PostPostgresStorage {
	return &PostPostgresStorage{}
}

func (s *PostPostgresStorage) CreatePost(ctx context.Context, title, content, category string) (*model.Post, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	post := &models.Post{
		Title:    title,
		Content:  content,
		Category: category,
		UserID:   userID,
	}

	err = DB.Create(post).Error
	if err != nil {
		return nil, fmt.Errorf("could not create post: %w", err)
	}
	post.User.Username = auth.GetUsernameFromContext(ctx)

	return toPost(post), nil
}

func (s *PostPostgresStorage) GetPostById(id string) (*model.Post, error) {
	pk, err := parseID("post", id)
	if err != nil {
		return nil, err
	}

	var post models.Post
	err = DB.Preload("User").First(&post, pk).Error
	if err != nil {
		return nil, notFound(err, "post", id)
	}

	return toPost(&post), nil
}

// GetAllPosts возвращает посты, новые первыми
func (s *PostPostgresStorage) GetAllPosts() ([]*model.Post, error) {
	var posts []models.Post
	err := DB.Preload("User").Order("created_at desc, id desc").Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("could not get posts: %w", err)
	}

	return slice.Map(posts, func(_ int, src models.Post) *model.Post {
		return toPost(&src)
	}), nil
}

func (s *PostPostgresStorage) DisableComment(ctx context.Context, id string) error {
	return s.setCommentsDisabled(ctx, id, true)
}

func (s *PostPostgresStorage) EnableComment(ctx context.Context, id string) error {
	return s.setCommentsDisabled(ctx, id, false)
}

func (s *PostPostgresStorage) setCommentsDisabled(ctx context.Context, id string, disabled bool) error {
	post, err := s.ownPost(ctx, id)
	if err != nil {
		return err
	}

	err = DB.Model(&models.Post{}).Where("id = ?", post.ID).Update("comments_disabled", disabled).Error
	if err != nil {
		return fmt.Errorf("could not update comments state: %w", err)
	}
	return nil
}

// DeletePostById удаляет пост вместе с комментариями и голосами
func (s *PostPostgresStorage) DeletePostById(ctx context.Context, id string) error {
	post, err := s.ownPost(ctx, id)
	if err != nil {
		return err
	}

	tx := DB.Begin()
	var commentIDs []uint
	if err := tx.Model(&models.Comment{}).Where("post_id = ?", post.ID).Pluck("id", &commentIDs).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("could not delete post: %w", err)
	}
	if len(commentIDs) > 0 {
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentVote{}).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("could not delete post: %w", err)
		}
	}
	steps := []error{
		tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error,
		tx.Where("post_id = ?", post.ID).Delete(&models.PostVote{}).Error,
		tx.Delete(post).Error,
	}
	for _, err := range steps {
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("could not delete post: %w", err)
		}
	}
	return tx.Commit().Error
}

func (s *PostPostgresStorage) ownPost(ctx context.Context, id string) (*models.Post, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}
	pk, err := parseID("post", id)
	if err != nil {
		return nil, err
	}

	var post models.Post
	if err := DB.First(&post, pk).Error; err != nil {
		return nil, notFound(err, "post", id)
	}
	if post.UserID != userID {
		return nil, fmt.Errorf("%w: not the author of this post", storage.ErrForbidden)
	}
	return &post, nil
}

func toPost(p *models.Post) *model.Post {
	return &model.Post{
		ID:               fmt.Sprint(p.ID),
		Title:            p.Title,
		Content:          p.Content,
		Category:         p.Category,
		AuthorID:         fmt.Sprint(p.UserID),
		Author:           p.User.Username,
		CreatedAt:        p.CreatedAt,
		Likes:            p.Likes,
		Dislikes:         p.Dislikes,
		CommentsDisabled: p.CommentsDisabled,
	}
}
