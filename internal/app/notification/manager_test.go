package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	playerv1 "github.com/osa030/deckbox/internal/api/playerv1"
	"github.com/osa030/deckbox/internal/app/playback"
)

type recordingStream struct {
	mu    sync.Mutex
	got   []*playerv1.Notification
	err   error
	block chan struct{}
}

func (r *recordingStream) Send(n *playerv1.Notification) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return r.err
}

func (r *recordingStream) Received() []*playerv1.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*playerv1.Notification(nil), r.got...)
}

func TestManager_SubscribeUnsubscribe(t *testing.T) {
	m := NewManager(0)
	a := m.Subscribe(&recordingStream{})
	b := m.Subscribe(&recordingStream{})
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, m.SubscriberCount())

	m.Unsubscribe(a)
	assert.Equal(t, 1, m.SubscriberCount())
	m.Unsubscribe("unknown")
	assert.Equal(t, 1, m.SubscriberCount())

	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestManager_Broadcast(t *testing.T) {
	m := NewManager(0)
	first := &recordingStream{}
	failing := &recordingStream{err: errors.New("broken pipe")}
	m.Subscribe(first)
	m.Subscribe(failing)

	m.Broadcast(&playerv1.Notification{SequenceNo: 4, Type: playerv1.NotificationTypeStateChanged})
	m.Broadcast(&playerv1.Notification{SequenceNo: 5, Type: playerv1.NotificationTypeModeChanged})

	got := first.Received()
	require.Len(t, got, 2)
	assert.Equal(t, uint64(4), got[0].SequenceNo)
	assert.Equal(t, uint64(5), got[1].SequenceNo)
	assert.Len(t, failing.Received(), 2, "a failing subscriber does not stop the broadcast")
}

func TestManager_BroadcastTimeout(t *testing.T) {
	m := NewManager(20 * time.Millisecond)
	stuck := &recordingStream{block: make(chan struct{})}
	defer close(stuck.block)
	ok := &recordingStream{}
	m.Subscribe(stuck)
	m.Subscribe(ok)

	start := time.Now()
	m.Broadcast(&playerv1.Notification{Type: playerv1.NotificationTypeQueueChanged})
	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, ok.Received(), 1)
}

func TestManager_InitialState(t *testing.T) {
	m := NewManager(0)
	n := m.InitialState(playback.NewState(55), 9)
	assert.Equal(t, playerv1.NotificationTypeInitialState, n.Type)
	assert.Equal(t, uint64(9), n.SequenceNo)
	assert.Equal(t, int32(55), n.State.Volume)
}

func TestManager_Run(t *testing.T) {
	m := NewManager(0)
	stream := &recordingStream{}
	m.Subscribe(stream)

	events := make(chan playback.Event, 2)
	events <- playback.Event{SequenceNo: 3, Type: playback.EventTrackChanged, Intent: "next", State: playback.NewState(70)}
	events <- playback.Event{SequenceNo: 4, Type: playback.EventModeChanged, Intent: "toggle_mute", State: playback.NewState(70)}
	close(events)

	m.Run(context.Background(), events)

	got := stream.Received()
	require.Len(t, got, 2)
	assert.Equal(t, playerv1.NotificationTypeTrackChanged, got[0].Type)
	assert.Equal(t, "next", got[0].Intent)
	assert.Equal(t, uint64(3), got[0].SequenceNo, "the controller's number is kept")
	assert.Equal(t, playerv1.NotificationTypeModeChanged, got[1].Type)
	assert.Equal(t, uint64(4), got[1].SequenceNo)
}

func TestManager_RunStopsOnCancel(t *testing.T) {
	m := NewManager(0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, make(chan playback.Event))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
