package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	playerv1 "github.com/osa030/deckbox/internal/api/playerv1"
	"github.com/osa030/deckbox/internal/app/library"
	"github.com/osa030/deckbox/internal/domain/track"
	"github.com/osa030/deckbox/internal/infra/audio"
	"github.com/osa030/deckbox/internal/infra/config"
)

type memoryRepo struct {
	mu       sync.Mutex
	tracks   []track.Track
	listErr  error
	onChange func()
	watching chan struct{}
	closed   bool
}

func newMemoryRepo(ids ...string) *memoryRepo {
	r := &memoryRepo{watching: make(chan struct{})}
	for _, id := range ids {
		r.tracks = append(r.tracks, track.Track{
			ID:        id,
			Title:     "Title " + id,
			Duration:  time.Minute,
			SourceURL: "file:///music/" + id + ".mp3",
		})
	}
	return r
}

func (r *memoryRepo) List(context.Context) ([]track.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]track.Track(nil), r.tracks...), nil
}

func (r *memoryRepo) Delete(context.Context, string) error { return nil }

func (r *memoryRepo) Create(context.Context, track.Metadata, library.Blob, *library.Blob) (track.Track, error) {
	return track.Track{}, library.ErrReadOnly
}

func (r *memoryRepo) Watch(ctx context.Context, onChange func()) error {
	r.mu.Lock()
	r.onChange = onChange
	r.mu.Unlock()
	close(r.watching)
	<-ctx.Done()
	return nil
}

func (r *memoryRepo) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *memoryRepo) set(tracks []track.Track, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks = tracks
	r.listErr = err
}

type channelStream struct {
	ch chan *playerv1.Notification
}

func (s *channelStream) Send(n *playerv1.Notification) error {
	s.ch <- n
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte("playback:\n  shuffle_seed: 7\n"))
	require.NoError(t, err)
	return cfg
}

func newTestManager(t *testing.T, repo library.Repository) *Manager {
	t.Helper()
	clock := audio.NewClock(20 * time.Millisecond)
	t.Cleanup(clock.Close)
	m, err := NewManager(testConfig(t), clock, repo)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func TestManager_StartLoadsLibrary(t *testing.T) {
	repo := newMemoryRepo("A", "B")
	m := newTestManager(t, repo)

	require.NoError(t, m.Start(context.Background()))
	s := m.Playback().Snapshot()
	assert.Equal(t, []string{"A", "B"}, s.Queue.TrackIDs())
	assert.Equal(t, "A", s.Loaded.TrackID)
	assert.Equal(t, 70, s.Volume)

	assert.ErrorIs(t, m.Start(context.Background()), ErrAlreadyStarted)
}

func TestManager_StartWithFailingLibrary(t *testing.T) {
	repo := newMemoryRepo()
	repo.set(nil, errors.New("connection refused"))
	m := newTestManager(t, repo)

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, m.Playback().Snapshot().Queue.IsEmpty())

	_, err := m.Reload(context.Background())
	assert.Error(t, err)

	repo.set(newMemoryRepo("A").tracks, nil)
	n, err := m.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestManager_WatcherReloads(t *testing.T) {
	repo := newMemoryRepo("A")
	m := newTestManager(t, repo)
	require.NoError(t, m.Start(context.Background()))

	select {
	case <-repo.watching:
	case <-time.After(time.Second):
		t.Fatal("watcher was not started")
	}

	repo.set(newMemoryRepo("A", "B", "C").tracks, nil)
	repo.mu.Lock()
	onChange := repo.onChange
	repo.mu.Unlock()
	onChange()

	assert.Equal(t, 3, m.Playback().Snapshot().Queue.Len())
}

func TestManager_BroadcastsEvents(t *testing.T) {
	m := newTestManager(t, newMemoryRepo("A", "B"))
	stream := &channelStream{ch: make(chan *playerv1.Notification, 16)}
	m.Notifications().Subscribe(stream)
	require.NoError(t, m.Start(context.Background()))

	require.NoError(t, m.Playback().ToggleMute())

	deadline := time.After(2 * time.Second)
	for {
		select {
		case n := <-stream.ch:
			if n.Type == playerv1.NotificationTypeModeChanged {
				assert.True(t, n.State.IsMuted)
				return
			}
		case <-deadline:
			t.Fatal("mode change was not broadcast")
		}
	}
}

func TestManager_Close(t *testing.T) {
	repo := newMemoryRepo("A")
	m := newTestManager(t, repo)
	require.NoError(t, m.Start(context.Background()))

	m.Close()
	m.Close()

	select {
	case <-m.Done():
	default:
		t.Fatal("done channel not closed")
	}
	assert.True(t, repo.closed)
	assert.ErrorIs(t, m.Start(context.Background()), ErrAlreadyStarted)
}

func TestNewManager_InvalidInsertPosition(t *testing.T) {
	cfg := testConfig(t)
	cfg.Playback.InsertPosition = "middle"
	clock := audio.NewClock(0)
	defer clock.Close()
	_, err := NewManager(cfg, clock, newMemoryRepo())
	assert.Error(t, err)
}
