package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/deckbox/internal/app/library"
	"github.com/osa030/deckbox/internal/domain/track"
	"github.com/osa030/deckbox/internal/infra/blob"
)

// failingStore fails uploads of keys with the given prefix.
type failingStore struct {
	*blob.Local
	prefix string
}

func (s failingStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if strings.HasPrefix(key, s.prefix) {
		return "", errors.New("quota exceeded")
	}
	return s.Local.Put(ctx, key, data, contentType)
}

func newTestStore(t *testing.T) *blob.Local {
	t.Helper()
	store, err := blob.NewLocal(blob.LocalSettings{Dir: t.TempDir(), BaseURL: "/media"})
	require.NoError(t, err)
	return store
}

// steppingClock returns times one minute apart.
func steppingClock() func() time.Time {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func newTestFile(t *testing.T, store blob.Store) *File {
	t.Helper()
	f := NewFile(FileSettings{Path: filepath.Join(t.TempDir(), "catalog.yaml")}, store)
	f.uploader.now = steppingClock()
	return f
}

func audio(name string) library.Blob {
	return library.Blob{Name: name, ContentType: "audio/mpeg", Data: []byte("ID3" + name)}
}

func TestFile_ListMissingFileIsEmpty(t *testing.T) {
	f := newTestFile(t, newTestStore(t))
	tracks, err := f.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestFile_CreateAndList(t *testing.T) {
	store := newTestStore(t)
	f := newTestFile(t, store)
	ctx := context.Background()

	first, err := f.Create(ctx, track.Metadata{Title: "First", Duration: 185 * time.Second}, audio("first.mp3"), nil)
	require.NoError(t, err)
	second, err := f.Create(ctx, track.Metadata{Title: "Second", Artist: "Band"}, audio("second song.mp3"),
		&library.Blob{Name: "art.jpg", ContentType: "image/jpeg", Data: []byte("jpg")})
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 185*time.Second, first.Duration)
	assert.Equal(t, "/media/audio/1714564920000-second_song.mp3", second.SourceURL)
	assert.Equal(t, "/media/covers/1714564920000-cover-art.jpg", second.CoverURL)

	_, err = os.Stat(filepath.Join(store.Dir(), "audio", "1714564920000-second_song.mp3"))
	assert.NoError(t, err)

	tracks, err := f.List(ctx)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, []string{second.ID, first.ID}, []string{tracks[0].ID, tracks[1].ID}, "newest first")
	assert.Equal(t, track.UnknownAlbum, tracks[0].Album)

	// a fresh instance reads the same document
	reopened := NewFile(FileSettings{Path: f.path}, store)
	again, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, tracks, again)
}

func TestFile_CoverFailureIsNotFatal(t *testing.T) {
	store := failingStore{Local: newTestStore(t), prefix: "covers/"}
	f := newTestFile(t, store)

	created, err := f.Create(context.Background(), track.Metadata{Title: "Song"}, audio("a.mp3"),
		&library.Blob{Name: "art.jpg", Data: []byte("jpg")})
	require.NoError(t, err)
	assert.False(t, created.HasCover())
	assert.NotEmpty(t, created.SourceURL)
}

func TestFile_AudioFailureCreatesNothing(t *testing.T) {
	store := failingStore{Local: newTestStore(t), prefix: "audio/"}
	f := newTestFile(t, store)

	_, err := f.Create(context.Background(), track.Metadata{Title: "Song"}, audio("a.mp3"), nil)
	require.Error(t, err)

	tracks, err := f.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestFile_WriteFailureDiscardsBlobs(t *testing.T) {
	store := newTestStore(t)
	f := NewFile(FileSettings{Path: filepath.Join(t.TempDir(), "missing", "catalog.yaml")}, store)
	f.uploader.now = steppingClock()

	_, err := f.Create(context.Background(), track.Metadata{Title: "Song"}, audio("a.mp3"),
		&library.Blob{Name: "art.jpg", Data: []byte("jpg")})
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(store.Dir(), "audio"))
	require.NoError(t, err)
	assert.Empty(t, entries, "uploaded audio is removed again")
	entries, err = os.ReadDir(filepath.Join(store.Dir(), "covers"))
	require.NoError(t, err)
	assert.Empty(t, entries, "uploaded cover is removed again")
}

func TestFile_Delete(t *testing.T) {
	store := newTestStore(t)
	f := newTestFile(t, store)
	ctx := context.Background()

	a, err := f.Create(ctx, track.Metadata{Title: "A"}, audio("a.mp3"), nil)
	require.NoError(t, err)
	b, err := f.Create(ctx, track.Metadata{Title: "B"}, audio("b.mp3"), nil)
	require.NoError(t, err)

	require.NoError(t, f.Delete(ctx, a.ID))
	tracks, err := f.List(ctx)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, b.ID, tracks[0].ID)

	key, ok := store.KeyFromURL(a.SourceURL)
	require.True(t, ok)
	_, err = os.Stat(filepath.Join(store.Dir(), filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err), "audio blob removed")

	err = f.Delete(ctx, a.ID)
	assert.True(t, errors.Is(err, library.ErrTrackNotFound))
}

func TestFile_ReadsHandWrittenCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `songs:
  - id: old
    title: Old Song
    duration: 200
    file_path: https://cdn.example.com/old.mp3
    created_at: 2023-01-01T00:00:00Z
  - id: new
    title: New Song
    artist: Someone
    duration: 90
    file_path: https://cdn.example.com/new.mp3
    cover_url: https://cdn.example.com/new.jpg
    created_at: 2024-01-01T00:00:00Z
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	f := NewFile(FileSettings{Path: path}, nil)
	tracks, err := f.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	assert.Equal(t, track.Track{
		ID:        "new",
		Title:     "New Song",
		Artist:    "Someone",
		Album:     track.UnknownAlbum,
		Duration:  90 * time.Second,
		SourceURL: "https://cdn.example.com/new.mp3",
		CoverURL:  "https://cdn.example.com/new.jpg",
	}, tracks[0])
	assert.Equal(t, track.UnknownArtist, tracks[1].Artist)
}

func TestFile_MalformedCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("songs: ["), 0o644))

	_, err := NewFile(FileSettings{Path: path}, nil).List(context.Background())
	assert.Error(t, err)
}

func TestFile_WatchReportsExternalEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	f := NewFile(FileSettings{Path: path}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- f.Watch(ctx, func() { changed <- struct{}{} })
	}()

	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("songs: []\n"), 0o644)
		select {
		case <-changed:
			return true
		case <-time.After(2 * watchDebounce):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
