package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/VitaminP8/threadly/internal/auth"
	"github.com/VitaminP8/threadly/internal/model"
	"github.com/VitaminP8/threadly/internal/storage"
)

type PostMemoryStorage struct {
	mu     sync.Mutex
	posts  map[string]*model.Post
	nextId int

	deleteHooks []func(postID string) // комментарии и голоса удаляемого поста
}

func NewPostMemoryStorage() *PostMemoryStorage {
	return &PostMemoryStorage{
		posts:  make(map[string]*model.Post),
		nextId: 1,
	}
}

func (s *PostMemoryStorage) CreatePost(ctx context.Context, title, content, category string) (*model.Post, error) {
	// контекст read-only, читаем до захвата мьютекса
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := strconv.Itoa(s.nextId)
	s.nextId++

	post := &model.Post{
		ID:        id,
		Title:     title,
		Content:   content,
		Category:  category,
		AuthorID:  fmt.Sprint(userID),
		Author:    auth.GetUsernameFromContext(ctx),
		CreatedAt: time.Now(),
	}

	s.posts[id] = post
	return copyPost(post), nil
}

func (s *PostMemoryStorage) GetPostById(id string) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[id]
	if !exists {
		return nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}

	return copyPost(post), nil
}

// GetAllPosts возвращает посты, новые первыми
func (s *PostMemoryStorage) GetAllPosts() ([]*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := make([]*model.Post, 0, len(s.posts))
	for _, post := range s.posts {
		posts = append(posts, copyPost(post))
	}
	sort.Slice(posts, func(i, j int) bool {
		a, _ := strconv.Atoi(posts[i].ID)
		b, _ := strconv.Atoi(posts[j].ID)
		return a > b
	})

	return posts, nil
}

func (s *PostMemoryStorage) DisableComment(ctx context.Context, id string) error {
	return s.setCommentsDisabled(ctx, id, true)
}

func (s *PostMemoryStorage) EnableComment(ctx context.Context, id string) error {
	return s.setCommentsDisabled(ctx, id, false)
}

func (s *PostMemoryStorage) setCommentsDisabled(ctx context.Context, id string, disabled bool) error {
	post, unlock, err := s.ownPost(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	post.CommentsDisabled = disabled
	return nil
}

// DeletePostById удаляет пост вместе с его комментариями и голосами
func (s *PostMemoryStorage) DeletePostById(ctx context.Context, id string) error {
	_, unlock, err := s.ownPost(ctx, id)
	if err != nil {
		return err
	}
	delete(s.posts, id)
	hooks := s.deleteHooks
	unlock()

	// хуки берут мьютексы других хранилищ, поэтому вызываются после unlock
	for _, fn := range hooks {
		fn(id)
	}
	return nil
}

func (s *PostMemoryStorage) onPostDeleted(fn func(postID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteHooks = append(s.deleteHooks, fn)
}

// ownPost находит пост автора из контекста и возвращает его под захваченным мьютексом
func (s *PostMemoryStorage) ownPost(ctx context.Context, id string) (*model.Post, func(), error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	s.mu.Lock()
	post, exists := s.posts[id]
	if !exists {
		s.mu.Unlock()
		return nil, nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	if post.AuthorID != fmt.Sprint(userID) {
		s.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: not the author of this post", storage.ErrForbidden)
	}
	return post, s.mu.Unlock, nil
}

func (s *PostMemoryStorage) applyTally(id string, t model.Tally) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[id]
	if !exists {
		return fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	post.Likes, post.Dislikes = t.Likes, t.Dislikes
	return nil
}

func copyPost(p *model.Post) *model.Post {
	c := *p
	c.Comments = nil
	return &c
}
