package mocks

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/VitaminP8/threadly/internal/auth"
	"github.com/VitaminP8/threadly/internal/model"
	"github.com/VitaminP8/threadly/internal/storage"
)

// MockPostStorage реализует post.PostStorage без проверок авторства
type MockPostStorage struct {
	posts map[string]*model.Post
	mu    sync.Mutex
}

func NewMockPostStorage() *MockPostStorage {
	return &MockPostStorage{
		posts: make(map[string]*model.Post),
	}
}

func (m *MockPostStorage) CreatePost(ctx context.Context, title, content, category string) (*model.Post, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := strconv.Itoa(len(m.posts) + 1)
	post := &model.Post{
		ID:       id,
		Title:    title,
		Content:  content,
		Category: category,
		AuthorID: strconv.Itoa(int(userID)),
	}
	m.posts[id] = post
	copied := *post
	return &copied, nil
}

func (m *MockPostStorage) GetPostById(id string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	copied := *post
	return &copied, nil
}

func (m *MockPostStorage) GetAllPosts() ([]*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	posts := make([]*model.Post, 0, len(m.posts))
	for _, post := range m.posts {
		copied := *post
		posts = append(posts, &copied)
	}
	return posts, nil
}

func (m *MockPostStorage) DisableComment(ctx context.Context, id string) error {
	return m.setDisabled(id, true)
}

func (m *MockPostStorage) EnableComment(ctx context.Context, id string) error {
	return m.setDisabled(id, false)
}

func (m *MockPostStorage) setDisabled(id string, disabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[id]
	if !ok {
		return fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	post.CommentsDisabled = disabled
	return nil
}

func (m *MockPostStorage) DeletePostById(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	delete(m.posts, id)
	return nil
}
