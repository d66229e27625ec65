package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/osa030/deckbox/internal/app/library"
	"github.com/osa030/deckbox/internal/domain/track"
	"github.com/osa030/deckbox/internal/infra/blob"
)

const (
	watchDebounce   = 200 * time.Millisecond
	selfWriteWindow = watchDebounce + 500*time.Millisecond
)

// FileSettings configures the YAML file catalog.
type FileSettings struct {
	Path string `mapstructure:"path" default:"./catalog.yaml" validate:"required"`
}

type fileDocument struct {
	Songs []Song `yaml:"songs"`
}

// File is a catalog stored in a YAML document. Tracks are listed newest
// first.
type File struct {
	mu        sync.Mutex
	path      string
	uploader  uploader
	lastWrite time.Time
}

var (
	_ library.Repository = (*File)(nil)
	_ library.Watcher    = (*File)(nil)
)

// NewFile creates a file catalog. The catalog file is created on the first
// write; its directory must exist.
func NewFile(settings FileSettings, store blob.Store) *File {
	return &File{
		path:     filepath.Clean(settings.Path),
		uploader: uploader{store: store, now: time.Now},
	}
}

// List returns all tracks, newest first.
func (f *File) List(_ context.Context) ([]track.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	songs, err := f.read()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(songs, func(i, j int) bool {
		return songs[i].CreatedAt.After(songs[j].CreatedAt)
	})
	return songsToTracks(songs), nil
}

// Create uploads the blobs and appends the record. The blobs are removed
// again when the record cannot be written.
func (f *File) Create(ctx context.Context, meta track.Metadata, audio library.Blob, cover *library.Blob) (track.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	songs, err := f.read()
	if err != nil {
		return track.Track{}, err
	}

	now := f.uploader.now()
	files, err := f.uploader.upload(ctx, now, audio, cover)
	if err != nil {
		return track.Track{}, err
	}

	song := newSong(uuid.NewString(), meta, files, now)
	if err := f.write(append(songs, song)); err != nil {
		f.uploader.discard(ctx, files)
		return track.Track{}, err
	}
	return song.Track(), nil
}

// Delete removes the record, then its blobs on a best-effort basis.
func (f *File) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	songs, err := f.read()
	if err != nil {
		return err
	}

	idx := -1
	for i, s := range songs {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.Wrapf(library.ErrTrackNotFound, "id=%s", id)
	}

	removed := songs[idx]
	songs = append(songs[:idx], songs[idx+1:]...)
	if err := f.write(songs); err != nil {
		return err
	}
	f.uploader.removeURLs(ctx, removed.FilePath, removed.CoverURL)
	return nil
}

// Watch reports edits made to the catalog file by other processes.
func (f *File) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}
	defer watcher.Close()

	// watch the directory: editors and our own writes replace the file
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return errors.Wrapf(err, "failed to watch %s", f.path)
	}
	zlog.Info().Msgf("catalog: watching %s", f.path)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				debounce = time.After(watchDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			zlog.Warn().Err(err).Msg("catalog: watcher error")
		case <-debounce:
			debounce = nil
			if f.recentlyWritten() {
				continue
			}
			zlog.Info().Msgf("catalog: %s changed on disk", f.path)
			onChange()
		}
	}
}

func (f *File) recentlyWritten() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return time.Since(f.lastWrite) < selfWriteWindow
}

// read loads the document. A missing file is an empty catalog.
// Must be called with lock held.
func (f *File) read() ([]Song, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read catalog")
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog")
	}
	return doc.Songs, nil
}

// write replaces the document atomically.
// Must be called with lock held.
func (f *File) write(songs []Song) error {
	data, err := yaml.Marshal(fileDocument{Songs: songs})
	if err != nil {
		return errors.Wrap(err, "failed to encode catalog")
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".catalog-*.yaml")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary catalog")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write catalog")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to write catalog")
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.Wrap(err, "failed to replace catalog")
	}
	f.lastWrite = time.Now()
	return nil
}
