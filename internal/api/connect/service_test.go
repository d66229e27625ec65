package connect

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	playerv1 "github.com/osa030/deckbox/internal/api/playerv1"
	"github.com/osa030/deckbox/internal/app/library"
	"github.com/osa030/deckbox/internal/app/session"
	"github.com/osa030/deckbox/internal/domain/track"
	"github.com/osa030/deckbox/internal/infra/audio"
	"github.com/osa030/deckbox/internal/infra/config"
)

const testToken = "secret"

type stubRepo struct {
	mu        sync.Mutex
	tracks    []track.Track
	readOnly  bool
	deleteErr error
	created   int
}

func (r *stubRepo) List(context.Context) ([]track.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]track.Track(nil), r.tracks...), nil
}

func (r *stubRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readOnly {
		return library.ErrReadOnly
	}
	return r.deleteErr
}

func (r *stubRepo) Create(_ context.Context, meta track.Metadata, audio library.Blob, _ *library.Blob) (track.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readOnly {
		return track.Track{}, library.ErrReadOnly
	}
	r.created++
	return track.Track{
		ID:        "new",
		Title:     meta.Title,
		Artist:    meta.Artist,
		Album:     meta.Album,
		Duration:  meta.Duration,
		SourceURL: "/media/audio/" + audio.BaseName(),
	}, nil
}

func newStubRepo(ids ...string) *stubRepo {
	r := &stubRepo{}
	for _, id := range ids {
		r.tracks = append(r.tracks, track.Track{
			ID:        id,
			Title:     "Song " + id,
			Artist:    track.UnknownArtist,
			Album:     track.UnknownAlbum,
			Duration:  2 * time.Minute,
			SourceURL: "/media/audio/" + id + ".mp3",
		})
	}
	return r
}

func newTestServer(t *testing.T, repo library.Repository, token string) *playerv1.Client {
	t.Helper()
	return newTestServerWithClientToken(t, repo, token, token)
}

func TestPlayerService_Transport(t *testing.T) {
	client := newTestServer(t, newStubRepo("A", "B", "C"), "")
	ctx := context.Background()

	s, err := client.GetState(ctx)
	require.NoError(t, err)
	assert.Len(t, s.Tracks, 3)
	assert.False(t, s.IsPlaying)
	assert.Equal(t, int32(70), s.Volume)

	s, err = client.PlayPause(ctx)
	require.NoError(t, err)
	assert.True(t, s.IsPlaying)

	s, err = client.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", s.Current().Id)

	s, err = client.Previous(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", s.Current().Id)

	s, err = client.Seek(ctx, 30000)
	require.NoError(t, err)
	assert.InDelta(t, 30000, s.PositionMs, 1000)

	s, err = client.SetVolume(ctx, 150)
	require.NoError(t, err)
	assert.Equal(t, int32(100), s.Volume)

	s, err = client.ToggleMute(ctx)
	require.NoError(t, err)
	assert.True(t, s.IsMuted)

	s, err = client.ToggleShuffle(ctx)
	require.NoError(t, err)
	assert.True(t, s.IsShuffled)

	s, err = client.CycleRepeat(ctx)
	require.NoError(t, err)
	assert.Equal(t, "all", s.RepeatMode)

	s, err = client.Select(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "C", s.Current().Id)

	s, err = client.ToggleLike(ctx)
	require.NoError(t, err)
	assert.True(t, s.IsLiked)
	assert.Equal(t, []string{"C"}, s.LikedTrackIds)
}

func TestPlayerService_SelectOutOfRange(t *testing.T) {
	client := newTestServer(t, newStubRepo("A"), "")

	_, err := client.Select(context.Background(), 4)
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestPlayerService_Watch(t *testing.T) {
	client := newTestServer(t, newStubRepo("A", "B"), "")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Watch(ctx)
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Receive(), "initial state: %v", stream.Err())
	initial := stream.Msg()
	assert.Equal(t, playerv1.NotificationTypeInitialState, initial.Type)
	assert.Len(t, initial.State.Tracks, 2)

	_, err = client.ToggleShuffle(ctx)
	require.NoError(t, err)

	for stream.Receive() {
		n := stream.Msg()
		assert.Greater(t, n.SequenceNo, initial.SequenceNo)
		if n.Type == playerv1.NotificationTypeModeChanged {
			assert.True(t, n.State.IsShuffled)
			return
		}
	}
	t.Fatalf("stream ended before mode change: %v", stream.Err())
}

func TestLibraryService_Tracks(t *testing.T) {
	repo := newStubRepo("A", "B")
	client := newTestServer(t, repo, testToken)
	ctx := context.Background()

	tracks, err := client.ListTracks(ctx)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "Song A", tracks[0].Title)

	created, err := client.CreateTrack(ctx, &playerv1.CreateTrackRequest{
		Title:      "  Fresh  ",
		DurationMs: 90000,
		AudioName:  "my song.mp3",
		Audio:      []byte("ID3"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Fresh", created.Title)
	assert.Equal(t, track.UnknownArtist, created.Artist)
	assert.Equal(t, "/media/audio/my_song.mp3", created.SourceUrl)

	tracks, err = client.ListTracks(ctx)
	require.NoError(t, err)
	assert.Len(t, tracks, 3)

	require.NoError(t, client.DeleteTrack(ctx, "A"))
	tracks, err = client.ListTracks(ctx)
	require.NoError(t, err)
	assert.Len(t, tracks, 2)

	n, err := client.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), n)
}

func TestLibraryService_Errors(t *testing.T) {
	tests := []struct {
		name     string
		repo     *stubRepo
		call     func(ctx context.Context, c *playerv1.Client) error
		wantCode connect.Code
	}{
		{
			name: "unknown track",
			repo: newStubRepo("A"),
			call: func(ctx context.Context, c *playerv1.Client) error {
				return c.DeleteTrack(ctx, "Z")
			},
			wantCode: connect.CodeNotFound,
		},
		{
			name: "missing title",
			repo: newStubRepo("A"),
			call: func(ctx context.Context, c *playerv1.Client) error {
				_, err := c.CreateTrack(ctx, &playerv1.CreateTrackRequest{AudioName: "a.mp3", Audio: []byte("x")})
				return err
			},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name: "missing audio",
			repo: newStubRepo("A"),
			call: func(ctx context.Context, c *playerv1.Client) error {
				_, err := c.CreateTrack(ctx, &playerv1.CreateTrackRequest{Title: "Song"})
				return err
			},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name: "read-only library",
			repo: &stubRepo{tracks: newStubRepo("A").tracks, readOnly: true},
			call: func(ctx context.Context, c *playerv1.Client) error {
				return c.DeleteTrack(ctx, "A")
			},
			wantCode: connect.CodeFailedPrecondition,
		},
		{
			name: "repository failure",
			repo: &stubRepo{tracks: newStubRepo("A").tracks, deleteErr: errors.New("disk full")},
			call: func(ctx context.Context, c *playerv1.Client) error {
				return c.DeleteTrack(ctx, "A")
			},
			wantCode: connect.CodeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, tt.repo, "")
			err := tt.call(context.Background(), client)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, connect.CodeOf(err))
		})
	}
}

func TestTokenAuthInterceptor(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		token    string
		wantCode connect.Code
	}{
		{name: "missing token", token: "", wantCode: connect.CodeUnauthenticated},
		{name: "wrong token", token: "guess", wantCode: connect.CodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServerWithClientToken(t, newStubRepo("A"), testToken, tt.token)
			err := client.DeleteTrack(ctx, "A")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, connect.CodeOf(err))

			_, err = client.GetState(ctx)
			assert.NoError(t, err, "player procedures are not guarded")
			_, err = client.ListTracks(ctx)
			assert.NoError(t, err, "reads are not guarded")
		})
	}
}

func newTestServerWithClientToken(t *testing.T, repo library.Repository, serverToken, clientToken string) *playerv1.Client {
	t.Helper()
	cfg, err := config.Parse([]byte("playback:\n  shuffle_seed: 3\n"))
	require.NoError(t, err)

	clock := audio.NewClock(20 * time.Millisecond)
	t.Cleanup(clock.Close)
	sess, err := session.NewManager(cfg, clock, repo)
	require.NoError(t, err)
	require.NoError(t, sess.Start(context.Background()))

	srv := httptest.NewServer(NewMux(sess, serverToken))
	t.Cleanup(srv.Close)
	t.Cleanup(sess.Close)

	return playerv1.NewClient(srv.Client(), srv.URL, clientToken)
}
