// Package library connects the track repository to the playback queue.
package library

import (
	"context"
	"path"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/deckbox/internal/domain/track"
)

// Errors
var (
	ErrTrackNotFound = errors.New("track not found")
	ErrReadOnly      = errors.New("library is read-only")
	ErrEmptyAudio    = errors.New("audio file is required")
)

// Blob is an uploaded file.
type Blob struct {
	Name        string // Uploaded file name
	ContentType string
	Data        []byte
}

// BaseName returns the file name without directories, with spaces replaced
// so it is safe to use in storage keys.
func (b Blob) BaseName() string {
	name := path.Base(strings.ReplaceAll(b.Name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// Repository is the persistent track catalog.
type Repository interface {
	// List returns every track in catalog order.
	List(ctx context.Context) ([]track.Track, error)
	// Delete removes a track and its metadata.
	Delete(ctx context.Context, id string) error
	// Create stores the blobs and inserts the metadata. cover is optional.
	Create(ctx context.Context, meta track.Metadata, audio Blob, cover *Blob) (track.Track, error)
}

// Watcher is implemented by repositories that can report external edits.
type Watcher interface {
	// Watch calls onChange after the catalog changed outside the process,
	// until ctx is done.
	Watch(ctx context.Context, onChange func()) error
}
