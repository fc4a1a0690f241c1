package subscription

import (
	"sync"
	"time"

	"github.com/VitaminP8/threadly/internal/model"
)

// DefaultSendTimeout - сколько Publish ждет медленного подписчика
const DefaultSendTimeout = 500 * time.Millisecond

type subscriber struct {
	ch   chan *model.CommentEvent
	done chan struct{}

	mu     sync.RWMutex // send держит RLock, закрытие канала - Lock
	closed bool
}

func (s *subscriber) send(event *model.CommentEvent, timeout time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case s.ch <- event:
	case <-s.done:
	case <-timer.C:
	}
}

func (s *subscriber) close() {
	close(s.done) // отпускает send, ждущий этого подписчика
	s.mu.Lock()
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
}

type SubscriptionManager struct {
	mu          sync.Mutex
	subs        map[string][]*subscriber // postID -> подписчики
	sendTimeout time.Duration
}

func NewSubscriptionManager() *SubscriptionManager {
	return NewSubscriptionManagerWithTimeout(DefaultSendTimeout)
}

func NewSubscriptionManagerWithTimeout(timeout time.Duration) *SubscriptionManager {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &SubscriptionManager{
		subs:        make(map[string][]*subscriber),
		sendTimeout: timeout,
	}
}

func (m *SubscriptionManager) Subscribe(postID string) (<-chan *model.CommentEvent, func()) {
	sub := &subscriber{
		ch:   make(chan *model.CommentEvent, 1), // Буфер 1, чтобы не блокировался писатель
		done: make(chan struct{}),
	}

	m.mu.Lock()
	m.subs[postID] = append(m.subs[postID], sub)
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			list := m.subs[postID]
			for i, cur := range list {
				if cur == sub {
					m.subs[postID] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
			if len(m.subs[postID]) == 0 {
				delete(m.subs, postID)
			}
			m.mu.Unlock()

			sub.close()
		})
	}

	return sub.ch, cancel
}

// Publish рассылает событие подписчикам поста и ждет не дольше sendTimeout.
// Подписчик, не принявший событие за это время, его пропускает.
// Рассылка идет вне m.mu, Subscribe и cancel ее не ждут.
func (m *SubscriptionManager) Publish(postID string, event *model.CommentEvent) {
	m.mu.Lock()
	subs := append([]*subscriber(nil), m.subs[postID]...)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscriber) {
			defer wg.Done()
			s.send(event, m.sendTimeout)
		}(sub)
	}
	wg.Wait()
}

// Subscribers - число активных подписок на пост
func (m *SubscriptionManager) Subscribers(postID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs[postID])
}
