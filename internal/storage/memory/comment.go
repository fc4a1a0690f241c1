package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/VitaminP8/threadly/internal/auth"
	"github.com/VitaminP8/threadly/internal/comment"
	"github.com/VitaminP8/threadly/internal/model"
	"github.com/VitaminP8/threadly/internal/post"
	"github.com/VitaminP8/threadly/internal/storage"
	"github.com/VitaminP8/threadly/internal/subscription"
)

type CommentMemoryStorage struct {
	mu       sync.Mutex
	comments map[string]*model.Comment
	byPost   map[string][]string // postID -> id в порядке создания
	children map[string][]string // parentID -> id ответов
	nextId   int

	posts               post.PostStorage
	subscriptionManager subscription.Manager
	removeHooks         []func(ids []string)
}

func NewCommentMemoryStorage(posts post.PostStorage, manager subscription.Manager) *CommentMemoryStorage {
	s := &CommentMemoryStorage{
		comments:            make(map[string]*model.Comment),
		byPost:              make(map[string][]string),
		children:            make(map[string][]string),
		nextId:              1,
		posts:               posts,
		subscriptionManager: manager,
	}
	if ps, ok := posts.(*PostMemoryStorage); ok {
		ps.onPostDeleted(s.removePost)
	}
	return s
}

// removePost удаляет все комментарии удаленного поста
func (s *CommentMemoryStorage) removePost(postID string) {
	s.mu.Lock()
	ids := s.byPost[postID]
	delete(s.byPost, postID)
	for _, id := range ids {
		delete(s.comments, id)
		delete(s.children, id)
	}
	hooks := s.removeHooks
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(ids)
	}
}

func (s *CommentMemoryStorage) onCommentsRemoved(fn func(ids []string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeHooks = append(s.removeHooks, fn)
}

func (s *CommentMemoryStorage) CreateComment(ctx context.Context, postID, parentID, content string) (*model.Comment, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	content, err = comment.NormalizeContent(content)
	if err != nil {
		return nil, err
	}

	p, err := s.posts.GetPostById(postID)
	if err != nil {
		return nil, err
	}
	if p.CommentsDisabled {
		return nil, storage.ErrCommentsDisabled
	}

	s.mu.Lock()
	if parentID != "" {
		parent, ok := s.comments[parentID]
		if !ok || parent.PostID != postID {
			s.mu.Unlock()
			return nil, fmt.Errorf("parent comment %s: %w", parentID, storage.ErrNotFound)
		}
		if s.depth(parentID) >= model.MaxDepth {
			s.mu.Unlock()
			return nil, storage.ErrMaxDepth
		}
	}

	id := strconv.Itoa(s.nextId)
	s.nextId++

	c := &model.Comment{
		ID:        id,
		PostID:    postID,
		AuthorID:  fmt.Sprint(userID),
		Author:    auth.GetUsernameFromContext(ctx),
		Content:   content,
		CreatedAt: time.Now(),
	}
	if parentID != "" {
		pid := parentID
		c.ParentID = &pid
		s.children[parentID] = append(s.children[parentID], id)
	}
	s.comments[id] = c
	s.byPost[postID] = append(s.byPost[postID], id)
	result := copyComment(c)
	s.mu.Unlock()

	s.publish(model.EventCommentCreated, result, 0)
	return result, nil
}

// depth - число предков комментария; вызывается под s.mu
func (s *CommentMemoryStorage) depth(id string) int {
	d := 0
	cur := s.comments[id]
	for cur != nil && cur.ParentID != nil && d <= len(s.comments) {
		d++
		cur = s.comments[*cur.ParentID]
	}
	return d
}

func (s *CommentMemoryStorage) GetComments(postID string) ([]*model.Comment, error) {
	if _, err := s.posts.GetPostById(postID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var roots []*model.Comment
	for _, id := range s.byPost[postID] {
		c := s.comments[id]
		if c.ParentID == nil {
			roots = append(roots, s.subtree(c))
		}
	}
	if roots == nil {
		roots = []*model.Comment{}
	}
	return roots, nil
}

func (s *CommentMemoryStorage) subtree(c *model.Comment) *model.Comment {
	node := copyComment(c)
	for _, childID := range s.children[c.ID] {
		node.Children = append(node.Children, s.subtree(s.comments[childID]))
	}
	return node
}

func (s *CommentMemoryStorage) GetCommentByID(id string) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	return copyComment(c), nil
}

func (s *CommentMemoryStorage) UpdateComment(ctx context.Context, id, content string) (*model.Comment, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	content, err = comment.NormalizeContent(content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	c, err := s.own(id, userID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	c.Content = content
	result := copyComment(c)
	s.mu.Unlock()

	s.publish(model.EventCommentUpdated, result, 0)
	return result, nil
}

func (s *CommentMemoryStorage) DeleteComment(ctx context.Context, id string) (int, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	s.mu.Lock()
	c, err := s.own(id, userID)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	deleted := copyComment(c)

	removed := make(map[string]bool)
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		removed[cur] = true
		queue = append(queue, s.children[cur]...)
		delete(s.children, cur)
		delete(s.comments, cur)
	}
	if c.ParentID != nil {
		s.children[*c.ParentID] = withoutID(s.children[*c.ParentID], id)
	}
	kept := s.byPost[c.PostID][:0]
	for _, cid := range s.byPost[c.PostID] {
		if !removed[cid] {
			kept = append(kept, cid)
		}
	}
	s.byPost[c.PostID] = kept
	hooks := s.removeHooks
	s.mu.Unlock()

	if len(hooks) > 0 {
		ids := make([]string, 0, len(removed))
		for cid := range removed {
			ids = append(ids, cid)
		}
		for _, fn := range hooks {
			fn(ids)
		}
	}
	s.publish(model.EventCommentDeleted, deleted, len(removed))
	return len(removed), nil
}

// own находит комментарий и проверяет авторство; вызывается под s.mu
func (s *CommentMemoryStorage) own(id string, userID uint) (*model.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	if c.AuthorID != fmt.Sprint(userID) {
		return nil, fmt.Errorf("%w: not the author of this comment", storage.ErrForbidden)
	}
	return c, nil
}

func (s *CommentMemoryStorage) applyTally(id string, t model.Tally) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	c.Likes, c.Dislikes = t.Likes, t.Dislikes
	return nil
}

func (s *CommentMemoryStorage) publish(typ model.EventType, c *model.Comment, removed int) {
	if s.subscriptionManager == nil {
		return
	}
	s.subscriptionManager.Publish(c.PostID, &model.CommentEvent{
		Type:    typ,
		PostID:  c.PostID,
		Comment: copyComment(c),
		Removed: removed,
	})
}

func copyComment(c *model.Comment) *model.Comment {
	out := *c
	if c.ParentID != nil {
		pid := *c.ParentID
		out.ParentID = &pid
	}
	out.Children = []*model.Comment{}
	return &out
}

func withoutID(ids []string, id string) []string {
	out := ids[:0]
	for _, cur := range ids {
		if cur != id {
			out = append(out, cur)
		}
	}
	return out
}
