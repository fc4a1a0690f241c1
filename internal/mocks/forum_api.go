package mocks

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/VitaminP8/threadly/internal/model"
)

// APICall - один запрос, дошедший до мока
type APICall struct {
	Method   string
	Target   string
	ParentID string
	Content  string
}

// MockForumAPI реализует presenter.API для тестирования.
// Голоса переключаются на "сервере" по тем же правилам, что и у настоящего бэкенда.
type MockForumAPI struct {
	mu      sync.Mutex
	calls   []APICall
	votes   map[string]model.Vote
	tallies map[string]model.Tally
	nextID  int

	// Err возвращается всеми методами, если задан
	Err error
	// Block, если задан, держит запрос до закрытия канала (или отмены ctx)
	Block chan struct{}
	// Removed - сколько комментариев "удалил" сервер
	Removed int
}

func NewMockForumAPI() *MockForumAPI {
	return &MockForumAPI{
		votes:   make(map[string]model.Vote),
		tallies: make(map[string]model.Tally),
		nextID:  100,
		Removed: 1,
	}
}

// SeedVote задает серверное состояние голосов цели
func (m *MockForumAPI) SeedVote(target model.Target, tally model.Tally, vote model.Vote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tallies[target.String()] = tally
	m.votes[target.String()] = vote
}

// Calls возвращает копию журнала запросов
func (m *MockForumAPI) Calls() []APICall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]APICall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockForumAPI) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// enter записывает запрос и ждет Block, если он задан
func (m *MockForumAPI) enter(ctx context.Context, call APICall) error {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

func (m *MockForumAPI) Vote(ctx context.Context, s model.Session, target model.Target, dir model.Vote) (*model.VoteResult, error) {
	if err := m.enter(ctx, APICall{Method: "Vote", Target: target.String(), Content: string(dir)}); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := target.String()
	prev := m.votes[key]
	next := prev.Toggle(dir)
	tally := m.tallies[key].Apply(prev, next)
	m.votes[key] = next
	m.tallies[key] = tally
	return &model.VoteResult{Likes: tally.Likes, Dislikes: tally.Dislikes, UserVote: next}, nil
}

func (m *MockForumAPI) CreateComment(ctx context.Context, s model.Session, postID, parentID, content string) (*model.Comment, error) {
	if err := m.enter(ctx, APICall{Method: "CreateComment", Target: postID, ParentID: parentID, Content: content}); err != nil {
		return nil, err
	}

	m.mu.Lock()
	id := strconv.Itoa(m.nextID)
	m.nextID++
	m.mu.Unlock()

	c := &model.Comment{
		ID:        id,
		PostID:    postID,
		AuthorID:  s.UserID,
		Author:    s.Username,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if parentID != "" {
		pid := parentID
		c.ParentID = &pid
	}
	return c, nil
}

func (m *MockForumAPI) UpdateComment(ctx context.Context, s model.Session, id, content string) (*model.Comment, error) {
	if err := m.enter(ctx, APICall{Method: "UpdateComment", Target: id, Content: content}); err != nil {
		return nil, err
	}
	return &model.Comment{ID: id, AuthorID: s.UserID, Author: s.Username, Content: content}, nil
}

func (m *MockForumAPI) DeleteComment(ctx context.Context, s model.Session, id string) (int, error) {
	if err := m.enter(ctx, APICall{Method: "DeleteComment", Target: id}); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Removed, nil
}
