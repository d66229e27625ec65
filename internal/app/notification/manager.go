// Package notification fans player events out to Watch subscribers.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	playerv1 "github.com/osa030/deckbox/internal/api/playerv1"
	"github.com/osa030/deckbox/internal/app/playback"
)

// DefaultSendTimeout bounds a single subscriber send.
const DefaultSendTimeout = 500 * time.Millisecond

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*playerv1.Notification) error
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id     string
	stream Stream
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sendTimeout   time.Duration
}

// NewManager creates a new notification manager. A non-positive timeout
// uses DefaultSendTimeout.
func NewManager(sendTimeout time.Duration) *Manager {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Manager{
		subscriptions: make(map[string]*subscription),
		sendTimeout:   sendTimeout,
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		stream: stream,
	}
	zlog.Debug().Msgf("notification: subscribed: id=%s total=%d", id, len(m.subscriptions))
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// InitialState builds the first message of a new stream from a snapshot
// that includes every event up to sequenceNo.
func (m *Manager) InitialState(s playback.State, sequenceNo uint64) *playerv1.Notification {
	return &playerv1.Notification{
		SequenceNo: sequenceNo,
		Type:       playerv1.NotificationTypeInitialState,
		State:      playerv1.NewState(s),
	}
}

// Publish converts a controller event and broadcasts it under the event's
// sequence number.
func (m *Manager) Publish(e playback.Event) {
	m.Broadcast(&playerv1.Notification{
		SequenceNo: e.SequenceNo,
		Type:       playerv1.NewNotificationType(e.Type),
		Intent:     e.Intent,
		State:      playerv1.NewState(e.State),
	})
}

// Run publishes events until ctx is done or events is closed.
func (m *Manager) Run(ctx context.Context, events <-chan playback.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			m.Publish(e)
		}
	}
}

// Broadcast sends the notification to all subscribers. Each send runs in
// its own goroutine and is abandoned after the send timeout.
func (m *Manager) Broadcast(notification *playerv1.Notification) {
	m.mu.RLock()
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), m.sendTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(notification)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Err(err).Msgf("notification: send failed: id=%s seq=%d", s.id, notification.SequenceNo)
				}
			case <-ctx.Done():
				zlog.Debug().Msgf("notification: send timed out: id=%s seq=%d", s.id, notification.SequenceNo)
			}
		}(sub)
	}
	wg.Wait()
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
