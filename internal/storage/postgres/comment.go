package postgres

import (
	"context"
	"fmt"

	"github.com/VitaminP8/threadly/internal/auth"
	"github.com/VitaminP8/threadly/internal/comment"
	"github.com/VitaminP8/threadly/internal/model"
	"github.com/VitaminP8/threadly/internal/storage"
	"github.com/VitaminP8/threadly/internal/subscription"
	"github.com/VitaminP8/threadly/models"
	"github.com/ecodeclub/ekit/slice"
	"github.com/jinzhu/gorm"
)

type CommentPostgresStorage struct {
	subscriptionManager subscription.Manager
}

func NewCommentPostgresStorage(manager subscription.Manager) *CommentPostgresStorage {
	return &CommentPostgresStorage{subscriptionManager: manager}
}

func (s *CommentPostgresStorage) CreateComment(ctx context.Context, postID, parentID, content string) (*model.Comment, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	content, err = comment.NormalizeContent(content)
	if err != nil {
		return nil, err
	}

	postPK, err := parseID("post", postID)
	if err != nil {
		return nil, err
	}

	var post models.Post
	err = DB.First(&post, postPK).Error
	if err != nil {
		return nil, notFound(err, "post", postID)
	}
	if post.CommentsDisabled {
		return nil, storage.ErrCommentsDisabled
	}

	c := &models.Comment{
		PostID:  postPK,
		UserID:  userID,
		Content: content,
	}

	if parentID != "" {
		parentPK, err := parseID("parent comment", parentID)
		if err != nil {
			return nil, err
		}
		var parent models.Comment
		err = DB.Where("id = ? AND post_id = ?", parentPK, postPK).First(&parent).Error
		if err != nil {
			return nil, notFound(err, "parent comment", parentID)
		}
		depth, err := commentDepth(DB, &parent)
		if err != nil {
			return nil, err
		}
		if depth >= model.MaxDepth {
			return nil, storage.ErrMaxDepth
		}
		c.ParentID = &parentPK
	}

	err = DB.Create(c).Error
	if err != nil {
		return nil, fmt.Errorf("could not create comment: %w", err)
	}
	c.User.Username = auth.GetUsernameFromContext(ctx)

	result := toComment(c)
	s.publish(model.EventCommentCreated, result, 0)
	return result, nil
}

// commentDepth считает предков комментария, поднимаясь по parent_id
func commentDepth(db *gorm.DB, c *models.Comment) (int, error) {
	depth := 0
	cur := c.ParentID
	for cur != nil && depth <= model.MaxDepth {
		var parent models.Comment
		if err := db.Select("id, parent_id").First(&parent, *cur).Error; err != nil {
			return 0, fmt.Errorf("could not walk comment ancestors: %w", err)
		}
		depth++
		cur = parent.ParentID
	}
	return depth, nil
}

// GetComments загружает все комментарии поста одним запросом и собирает дерево
func (s *CommentPostgresStorage) GetComments(postID string) ([]*model.Comment, error) {
	postPK, err := parseID("post", postID)
	if err != nil {
		return nil, err
	}

	var post models.Post
	err = DB.Select("id").First(&post, postPK).Error
	if err != nil {
		return nil, notFound(err, "post", postID)
	}

	var rows []models.Comment
	err = DB.Preload("User").Where("post_id = ?", postPK).Order("id asc").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not get comments: %w", err)
	}

	all := slice.Map(rows, func(_ int, src models.Comment) *model.Comment {
		return toComment(&src)
	})
	byID := make(map[string]*model.Comment, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}

	roots := []*model.Comment{}
	for _, c := range all {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		parent, ok := byID[*c.ParentID]
		if !ok {
			continue // ветка удаленного родителя
		}
		parent.Children = append(parent.Children, c)
	}
	return roots, nil
}

func (s *CommentPostgresStorage) GetCommentByID(id string) (*model.Comment, error) {
	pk, err := parseID("comment", id)
	if err != nil {
		return nil, err
	}

	var c models.Comment
	if err := DB.Preload("User").First(&c, pk).Error; err != nil {
		return nil, notFound(err, "comment", id)
	}
	return toComment(&c), nil
}

func (s *CommentPostgresStorage) UpdateComment(ctx context.Context, id, content string) (*model.Comment, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	content, err = comment.NormalizeContent(content)
	if err != nil {
		return nil, err
	}

	c, err := s.own(id, userID)
	if err != nil {
		return nil, err
	}

	err = DB.Model(&models.Comment{}).Where("id = ?", c.ID).Update("content", content).Error
	if err != nil {
		return nil, fmt.Errorf("could not update comment: %w", err)
	}
	c.Content = content

	result := toComment(c)
	s.publish(model.EventCommentUpdated, result, 0)
	return result, nil
}

// DeleteComment удаляет комментарий, все ответы и их голоса в одной транзакции
func (s *CommentPostgresStorage) DeleteComment(ctx context.Context, id string) (int, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	c, err := s.own(id, userID)
	if err != nil {
		return 0, err
	}

	tx := DB.Begin()
	ids := []uint{c.ID}
	for level := []uint{c.ID}; len(level) > 0; {
		var next []uint
		if err := tx.Model(&models.Comment{}).Where("parent_id IN (?)", level).Pluck("id", &next).Error; err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("could not collect replies: %w", err)
		}
		ids = append(ids, next...)
		level = next
	}

	if err := tx.Where("comment_id IN (?)", ids).Delete(&models.CommentVote{}).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("could not delete comment votes: %w", err)
	}
	if err := tx.Where("id IN (?)", ids).Delete(&models.Comment{}).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("could not delete comment: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("could not delete comment: %w", err)
	}

	s.publish(model.EventCommentDeleted, toComment(c), len(ids))
	return len(ids), nil
}

func (s *CommentPostgresStorage) own(id string, userID uint) (*models.Comment, error) {
	pk, err := parseID("comment", id)
	if err != nil {
		return nil, err
	}

	var c models.Comment
	if err := DB.Preload("User").First(&c, pk).Error; err != nil {
		return nil, notFound(err, "comment", id)
	}
	if c.UserID != userID {
		return nil, fmt.Errorf("%w: not the author of this comment", storage.ErrForbidden)
	}
	return &c, nil
}

func (s *CommentPostgresStorage) publish(typ model.EventType, c *model.Comment, removed int) {
	if s.subscriptionManager == nil {
		return
	}
	event := *c
	s.subscriptionManager.Publish(c.PostID, &model.CommentEvent{
		Type:    typ,
		PostID:  c.PostID,
		Comment: &event,
		Removed: removed,
	})
}

func toComment(c *models.Comment) *model.Comment {
	result := &model.Comment{
		ID:        fmt.Sprint(c.ID),
		PostID:    fmt.Sprint(c.PostID),
		AuthorID:  fmt.Sprint(c.UserID),
		Author:    c.User.Username,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		Likes:     c.Likes,
		Dislikes:  c.Dislikes,
		Children:  []*model.Comment{},
	}
	if c.ParentID != nil {
		pid := fmt.Sprint(*c.ParentID)
		result.ParentID = &pid
	}
	return result
}
