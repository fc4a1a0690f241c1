package mocks

import (
	"sync"

	"github.com/VitaminP8/threadly/internal/model"
)

// MockSubscriptionManager запоминает опубликованные события для проверок в тестах
type MockSubscriptionManager struct {
	mu     sync.Mutex
	subs   map[string][]chan *model.CommentEvent
	events map[string][]*model.CommentEvent
}

func NewMockSubscriptionManager() *MockSubscriptionManager {
	return &MockSubscriptionManager{
		subs:   make(map[string][]chan *model.CommentEvent),
		events: make(map[string][]*model.CommentEvent),
	}
}

func (m *MockSubscriptionManager) Subscribe(postID string) (<-chan *model.CommentEvent, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan *model.CommentEvent, 16)
	m.subs[postID] = append(m.subs[postID], ch)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			subscribers := m.subs[postID]
			for i, sub := range subscribers {
				if sub == ch {
					m.subs[postID] = append(subscribers[:i], subscribers[i+1:]...)
					close(ch)
					break
				}
			}
		})
	}
	return ch, cancel
}

// Publish не блокируется: подписчик с полным буфером событие теряет
func (m *MockSubscriptionManager) Publish(postID string, event *model.CommentEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs[postID] {
		select {
		case sub <- event:
		default:
		}
	}
	m.events[postID] = append(m.events[postID], event)
}

// GetEventsForPost возвращает все события, опубликованные для поста
func (m *MockSubscriptionManager) GetEventsForPost(postID string) []*model.CommentEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := m.events[postID]
	out := make([]*model.CommentEvent, len(events))
	copy(out, events)
	return out
}
