package audio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/deckbox/internal/app/playback"
	"github.com/osa030/deckbox/internal/domain/track"
)

func testSource(id string, generation uint64, duration time.Duration) playback.Source {
	return playback.Source{
		TrackID:      id,
		Generation:   generation,
		URL:          "file:///music/" + id + ".mp3",
		DurationHint: duration,
	}
}

// collect reads notifications until an ended notification or the timeout.
func collect(t *testing.T, c *Clock, timeout time.Duration) []playback.Notification {
	t.Helper()
	var got []playback.Notification
	deadline := time.After(timeout)
	for {
		select {
		case n, ok := <-c.Notifications():
			if !ok {
				return got
			}
			got = append(got, n)
			if n.Type == playback.NotificationEnded {
				return got
			}
		case <-deadline:
			return got
		}
	}
}

func TestClock_PlayWithoutSource(t *testing.T) {
	c := NewClock(10 * time.Millisecond)
	defer c.Close()

	assert.ErrorIs(t, c.Play(), ErrNoSource)
	assert.False(t, c.Playing())
}

func TestClock_PlaysToTheEnd(t *testing.T) {
	c := NewClock(5 * time.Millisecond)
	defer c.Close()

	src := testSource("A", 1, 60*time.Millisecond)
	c.Load(src)
	require.NoError(t, c.Play())

	got := collect(t, c, 2*time.Second)
	require.GreaterOrEqual(t, len(got), 2)

	assert.Equal(t, playback.NotificationMetadataReady, got[0].Type)
	assert.Equal(t, 60*time.Millisecond, got[0].Duration)

	last := got[len(got)-1]
	assert.Equal(t, playback.NotificationEnded, last.Type)
	for _, n := range got {
		assert.Equal(t, src, n.Source)
	}
	assert.False(t, c.Playing())
	assert.Equal(t, 60*time.Millisecond, c.Position())
}

func TestClock_PauseKeepsPosition(t *testing.T) {
	c := NewClock(5 * time.Millisecond)
	defer c.Close()

	c.Load(testSource("A", 1, time.Minute))
	require.NoError(t, c.Play())
	assert.Eventually(t, func() bool {
		return c.Position() >= 20*time.Millisecond
	}, time.Second, 5*time.Millisecond)

	c.Pause()
	pos := c.Position()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, pos, c.Position())
	assert.False(t, c.Playing())
}

func TestClock_SeekAndUnload(t *testing.T) {
	c := NewClock(5 * time.Millisecond)
	defer c.Close()

	c.Load(testSource("A", 1, time.Minute))
	c.Seek(10 * time.Second)
	assert.Equal(t, 10*time.Second, c.Position())

	c.Seek(-time.Second)
	assert.Equal(t, time.Duration(0), c.Position())

	c.Unload()
	assert.ErrorIs(t, c.Play(), ErrNoSource)
}

func TestClock_SetVolumeClamps(t *testing.T) {
	c := NewClock(0)
	defer c.Close()

	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{name: "in range", input: 0.5, want: 0.5},
		{name: "below zero", input: -1, want: 0},
		{name: "above one", input: 2, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.SetVolume(tt.input)
			assert.Equal(t, tt.want, c.Volume())
		})
	}
}

func TestClock_CloseClosesNotifications(t *testing.T) {
	c := NewClock(5 * time.Millisecond)
	c.Close()

	select {
	case _, ok := <-c.Notifications():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("notification channel was not closed")
	}
}

func TestClock_DrivesController(t *testing.T) {
	c := NewClock(5 * time.Millisecond)
	defer c.Close()

	ctrl := playback.NewController(c, playback.Config{InitialVolume: 50})
	defer ctrl.Close()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = ctrl.Run(ctx) }()

	require.NoError(t, ctrl.ReplaceQueue([]track.Track{
		{ID: "A", Title: "A", SourceURL: "file:///music/A.mp3", Duration: 40 * time.Millisecond},
		{ID: "B", Title: "B", SourceURL: "file:///music/B.mp3", Duration: time.Minute},
	}))
	require.NoError(t, ctrl.PlayPause())

	assert.Eventually(t, func() bool {
		return ctrl.Snapshot().CurrentIndex == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, c.Playing())
	assert.InDelta(t, 0.5, c.Volume(), 1e-9)
}
