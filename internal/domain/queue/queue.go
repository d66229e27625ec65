// Package queue provides the ordered track queue.
package queue

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/deckbox/internal/domain/track"
)

// Errors
var (
	ErrDuplicateTrack = errors.New("track already in queue")
	ErrTrackNotFound  = errors.New("track not in queue")
	ErrInvalidIndex   = errors.New("invalid queue index")
)

// Queue is an ordered, immutable sequence of tracks with unique identifiers.
// Mutators return a new Queue and never modify the receiver.
type Queue struct {
	tracks []track.Track
}

// New creates a queue from tracks. Duplicated identifiers are rejected.
func New(tracks ...track.Track) (Queue, error) {
	return Queue{}.Insert(0, tracks...)
}

// Len returns the number of tracks.
func (q Queue) Len() int {
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q Queue) IsEmpty() bool {
	return len(q.tracks) == 0
}

// At returns the track at position i.
func (q Queue) At(i int) (track.Track, bool) {
	if i < 0 || i >= len(q.tracks) {
		return track.Track{}, false
	}
	return q.tracks[i], true
}

// IndexOf returns the position of the track with the given ID, or -1.
func (q Queue) IndexOf(id string) int {
	for i, t := range q.tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Contains checks if a track ID is in the queue.
func (q Queue) Contains(id string) bool {
	return q.IndexOf(id) >= 0
}

// Tracks returns a copy of the tracks.
func (q Queue) Tracks() []track.Track {
	result := make([]track.Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// TrackIDs returns all track IDs in order.
func (q Queue) TrackIDs() []string {
	ids := make([]string, len(q.tracks))
	for i, t := range q.tracks {
		ids[i] = t.ID
	}
	return ids
}

// TotalDuration returns the sum of all duration hints.
func (q Queue) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range q.tracks {
		total += t.Duration
	}
	return total
}

// Insert places tracks before position pos. A pos equal to Len appends.
func (q Queue) Insert(pos int, tracks ...track.Track) (Queue, error) {
	if pos < 0 || pos > len(q.tracks) {
		return q, errors.Wrapf(ErrInvalidIndex, "insert at %d (len %d)", pos, len(q.tracks))
	}

	seen := make(map[string]bool, len(q.tracks)+len(tracks))
	for _, t := range q.tracks {
		seen[t.ID] = true
	}
	for _, t := range tracks {
		if t.ID == "" {
			return q, errors.New("track ID is required")
		}
		if seen[t.ID] {
			return q, errors.Wrapf(ErrDuplicateTrack, "id=%s", t.ID)
		}
		seen[t.ID] = true
	}

	result := make([]track.Track, 0, len(q.tracks)+len(tracks))
	result = append(result, q.tracks[:pos]...)
	result = append(result, tracks...)
	result = append(result, q.tracks[pos:]...)
	return Queue{tracks: result}, nil
}

// Append adds tracks to the end of the queue.
func (q Queue) Append(tracks ...track.Track) (Queue, error) {
	return q.Insert(len(q.tracks), tracks...)
}

// RemoveAt removes the track at position i.
func (q Queue) RemoveAt(i int) (Queue, error) {
	if i < 0 || i >= len(q.tracks) {
		return q, errors.Wrapf(ErrInvalidIndex, "remove at %d (len %d)", i, len(q.tracks))
	}
	result := make([]track.Track, 0, len(q.tracks)-1)
	result = append(result, q.tracks[:i]...)
	result = append(result, q.tracks[i+1:]...)
	return Queue{tracks: result}, nil
}

// Remove removes the track with the given ID and returns its former position.
func (q Queue) Remove(id string) (Queue, int, error) {
	pos := q.IndexOf(id)
	if pos < 0 {
		return q, -1, errors.Wrapf(ErrTrackNotFound, "id=%s", id)
	}
	next, err := q.RemoveAt(pos)
	return next, pos, err
}
