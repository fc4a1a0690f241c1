package subscription

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/VitaminP8/threadly/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createdEvent(postID, commentID string) *model.CommentEvent {
	return &model.CommentEvent{
		Type:   model.EventCommentCreated,
		PostID: postID,
		Comment: &model.Comment{
			ID:        commentID,
			PostID:    postID,
			Content:   "comment " + commentID,
			CreatedAt: time.Now(),
		},
	}
}

func receive(t *testing.T, ch <-chan *model.CommentEvent) *model.CommentEvent {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestSubscriptionManager_Subscribe(t *testing.T) {
	t.Run("Cancel removes only its subscription", func(t *testing.T) {
		manager := NewSubscriptionManager()

		_, cancel1 := manager.Subscribe("1")
		ch2, cancel2 := manager.Subscribe("1")
		_, cancelOther := manager.Subscribe("2")
		defer cancelOther()
		assert.Equal(t, 2, manager.Subscribers("1"))
		assert.Equal(t, 1, manager.Subscribers("2"))

		cancel2()
		assert.Equal(t, 1, manager.Subscribers("1"))
		_, open := <-ch2
		assert.False(t, open, "channel should be closed after cancel")

		cancel1()
		assert.Equal(t, 0, manager.Subscribers("1"))
		assert.Equal(t, 1, manager.Subscribers("2"))
	})

	t.Run("Cancel twice", func(t *testing.T) {
		manager := NewSubscriptionManager()
		_, cancel := manager.Subscribe("1")

		cancel()
		assert.NotPanics(t, cancel)
		assert.Equal(t, 0, manager.Subscribers("1"))
	})
}

func TestSubscriptionManager_Publish(t *testing.T) {
	t.Run("Every subscriber of the post receives the event", func(t *testing.T) {
		manager := NewSubscriptionManager()
		var chans []<-chan *model.CommentEvent
		for i := 0; i < 3; i++ {
			ch, cancel := manager.Subscribe("1")
			defer cancel()
			chans = append(chans, ch)
		}

		event := createdEvent("1", "10")
		manager.Publish("1", event)

		for _, ch := range chans {
			assert.Equal(t, event, receive(t, ch))
		}
	})

	t.Run("Other posts are not notified", func(t *testing.T) {
		manager := NewSubscriptionManager()
		ch1, cancel1 := manager.Subscribe("1")
		defer cancel1()
		ch2, cancel2 := manager.Subscribe("2")
		defer cancel2()

		manager.Publish("1", createdEvent("1", "10"))
		receive(t, ch1)

		select {
		case e := <-ch2:
			t.Fatalf("unexpected event %v", e)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("No subscribers", func(t *testing.T) {
		manager := NewSubscriptionManager()
		assert.NotPanics(t, func() {
			manager.Publish("1", createdEvent("1", "10"))
		})
	})

	t.Run("Slow subscriber skips events", func(t *testing.T) {
		manager := NewSubscriptionManagerWithTimeout(20 * time.Millisecond)
		slow, cancelSlow := manager.Subscribe("1")
		defer cancelSlow()
		fast, cancelFast := manager.Subscribe("1")
		defer cancelFast()

		first := createdEvent("1", "10")
		second := &model.CommentEvent{Type: model.EventCommentDeleted, PostID: "1", Removed: 2}

		manager.Publish("1", first)
		receive(t, fast)

		// буфер slow занят первым событием, второе он пропустит
		start := time.Now()
		manager.Publish("1", second)
		assert.Less(t, time.Since(start), time.Second)

		assert.Equal(t, second, receive(t, fast))
		assert.Equal(t, first, receive(t, slow))
		select {
		case e := <-slow:
			t.Fatalf("unexpected event %v", e)
		default:
		}
	})
}

func TestSubscriptionManager_Concurrent(t *testing.T) {
	manager := NewSubscriptionManager()
	const subscribers, events = 8, 5

	var (
		mu       sync.Mutex
		received = make(map[int]int)
		readers  sync.WaitGroup
		cancels  []func()
	)
	for i := 0; i < subscribers; i++ {
		ch, cancel := manager.Subscribe("1")
		cancels = append(cancels, cancel)
		readers.Add(1)
		go func(idx int) {
			defer readers.Done()
			for e := range ch {
				assert.Equal(t, "1", e.PostID)
				mu.Lock()
				received[idx]++
				mu.Unlock()
			}
		}(i)
	}

	var publishers sync.WaitGroup
	for i := 0; i < events; i++ {
		publishers.Add(1)
		go func(idx int) {
			defer publishers.Done()
			manager.Publish("1", createdEvent("1", strconv.Itoa(100+idx)))
		}(i)
	}
	publishers.Wait()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for i := 0; i < subscribers; i++ {
			if received[i] != events {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)

	for _, cancel := range cancels {
		cancel()
	}
	readers.Wait()
	assert.Equal(t, 0, manager.Subscribers("1"))
}

func TestSubscriptionManager_PublishDoesNotHoldLock(t *testing.T) {
	const timeout = 300 * time.Millisecond

	t.Run("Subscribe and cancel during a slow publish", func(t *testing.T) {
		manager := NewSubscriptionManagerWithTimeout(timeout)
		_, cancelSlow := manager.Subscribe("1")
		defer cancelSlow()
		manager.Publish("1", createdEvent("1", "10")) // буфер заполнен

		published := make(chan struct{})
		go func() {
			manager.Publish("1", createdEvent("1", "11"))
			close(published)
		}()

		start := time.Now()
		_, cancel := manager.Subscribe("1")
		cancel()
		assert.Less(t, time.Since(start), timeout/2)
		<-published
	})

	t.Run("Slow subscribers are waited for in parallel", func(t *testing.T) {
		manager := NewSubscriptionManagerWithTimeout(timeout)
		for i := 0; i < 3; i++ {
			_, cancel := manager.Subscribe("1")
			defer cancel()
		}
		manager.Publish("1", createdEvent("1", "10"))

		start := time.Now()
		manager.Publish("1", createdEvent("1", "11"))
		assert.Less(t, time.Since(start), 2*timeout)
	})

	t.Run("Cancel releases a waiting publish", func(t *testing.T) {
		manager := NewSubscriptionManagerWithTimeout(5 * time.Second)
		ch, cancel := manager.Subscribe("1")
		manager.Publish("1", createdEvent("1", "10"))

		published := make(chan struct{})
		go func() {
			manager.Publish("1", createdEvent("1", "11"))
			close(published)
		}()
		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case <-published:
		case <-time.After(time.Second):
			t.Fatal("publish still waits for a cancelled subscriber")
		}
		assert.Equal(t, createdEvent("1", "10").Comment.ID, receive(t, ch).Comment.ID)
		_, open := <-ch
		assert.False(t, open)
	})
}
