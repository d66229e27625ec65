package library

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/deckbox/internal/app/playback"
	"github.com/osa030/deckbox/internal/domain/track"
)

// InsertPosition selects where created tracks enter the queue.
type InsertPosition int

const (
	InsertAtStart InsertPosition = iota // Newest first, the order repositories list in
	InsertAtEnd                         // Append
)

// ParseInsertPosition parses "start" or "end". Empty means start.
func ParseInsertPosition(s string) (InsertPosition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "start":
		return InsertAtStart, nil
	case "end":
		return InsertAtEnd, nil
	default:
		return InsertAtStart, errors.Newf("unknown insert position: %q", s)
	}
}

// Player is the part of the playback controller the service drives.
type Player interface {
	ReplaceQueue(tracks []track.Track) error
	InsertTracks(position int, tracks ...track.Track) error
	RemoveTrack(id string) error
	Snapshot() playback.State
}

// Service applies repository changes to the playback queue. The queue only
// changes after the repository call succeeded.
type Service struct {
	repo     Repository
	player   Player
	insertAt InsertPosition
}

// NewService creates a new library service.
func NewService(repo Repository, player Player, insertAt InsertPosition) *Service {
	return &Service{
		repo:     repo,
		player:   player,
		insertAt: insertAt,
	}
}

// Load replaces the queue with the repository contents.
func (s *Service) Load(ctx context.Context) error {
	tracks, err := s.repo.List(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list tracks")
	}
	if err := s.player.ReplaceQueue(tracks); err != nil {
		return errors.Wrap(err, "failed to replace queue")
	}
	zlog.Info().Msgf("library: loaded %d tracks", len(tracks))
	return nil
}

// Tracks returns the queued tracks.
func (s *Service) Tracks() []track.Track {
	return s.player.Snapshot().Queue.Tracks()
}

// Delete removes a track from the repository, then from the queue.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !s.player.Snapshot().Queue.Contains(id) {
		return errors.Wrapf(ErrTrackNotFound, "id=%s", id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "failed to delete track %s", id)
	}
	if err := s.player.RemoveTrack(id); err != nil {
		return errors.Wrapf(err, "failed to remove track %s from queue", id)
	}
	zlog.Info().Msgf("library: deleted track %s", id)
	return nil
}

// Create stores a new track and inserts it into the queue.
func (s *Service) Create(ctx context.Context, meta track.Metadata, audio Blob, cover *Blob) (track.Track, error) {
	meta = meta.Normalize()
	if err := meta.Validate(); err != nil {
		return track.Track{}, err
	}
	if len(audio.Data) == 0 {
		return track.Track{}, ErrEmptyAudio
	}
	if cover != nil && len(cover.Data) == 0 {
		cover = nil
	}

	t, err := s.repo.Create(ctx, meta, audio, cover)
	if err != nil {
		return track.Track{}, errors.Wrap(err, "failed to create track")
	}

	position := 0
	if s.insertAt == InsertAtEnd {
		position = -1
	}
	if err := s.player.InsertTracks(position, t); err != nil {
		return track.Track{}, errors.Wrapf(err, "failed to queue track %s", t.ID)
	}
	zlog.Info().Msgf("library: created track %s title=%q", t.ID, t.Title)
	return t, nil
}
