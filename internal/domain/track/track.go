// Package track provides the Track domain entity.
package track

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// Track represents a playable audio item in the queue.
// Tracks are immutable once loaded; they are only ever removed.
type Track struct {
	ID        string        // Stable unique identifier
	Title     string        // Track title
	Artist    string        // Artist name
	Album     string        // Album name
	Duration  time.Duration // Authoritative length hint
	SourceURL string        // Audio locator handed to the output device
	CoverURL  string        // Cover art locator (optional)
}

// Metadata is the user-supplied description of a new track.
type Metadata struct {
	Title    string        `validate:"required,max=200"`
	Artist   string        `validate:"max=200"`
	Album    string        `validate:"max=200"`
	Duration time.Duration `validate:"gte=0"`
}

// ErrInvalidMetadata marks metadata rejected by Validate.
var ErrInvalidMetadata = errors.New("invalid track metadata")

var validate = validator.New()

// Normalize trims all text fields and fills the artist and album defaults.
func (m Metadata) Normalize() Metadata {
	m.Title = strings.TrimSpace(m.Title)
	m.Artist = strings.TrimSpace(m.Artist)
	m.Album = strings.TrimSpace(m.Album)
	if m.Artist == "" {
		m.Artist = UnknownArtist
	}
	if m.Album == "" {
		m.Album = UnknownAlbum
	}
	return m
}

// Validate checks that the metadata is acceptable for a new track.
func (m Metadata) Validate() error {
	if err := validate.Struct(m); err != nil {
		return errors.Mark(errors.Wrap(err, "invalid track metadata"), ErrInvalidMetadata)
	}
	return nil
}

// HasCover reports whether the track carries a cover locator.
func (t *Track) HasCover() bool {
	return t.CoverURL != ""
}
