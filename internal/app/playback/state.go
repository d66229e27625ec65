// Package playback provides the transport state machine and its controller.
package playback

import (
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/deckbox/internal/domain/queue"
	"github.com/osa030/deckbox/internal/domain/track"
)

// DefaultVolume is the session start volume.
const DefaultVolume = 70

// RepeatMode represents the repeat behavior.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota // Stop at the end of the queue
	RepeatAll                   // Loop the queue
	RepeatOne                   // Loop the current track on skip
)

// String returns the string representation of the repeat mode.
func (r RepeatMode) String() string {
	switch r {
	case RepeatOff:
		return "off"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// Next returns the following mode in the off -> all -> one cycle.
func (r RepeatMode) Next() RepeatMode {
	switch r {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// ParseRepeatMode parses "off", "all" or "one".
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return RepeatOff, nil
	case "all":
		return RepeatAll, nil
	case "one":
		return RepeatOne, nil
	default:
		return RepeatOff, errors.Newf("unknown repeat mode: %q", s)
	}
}

// State is the authoritative playback record.
// It is a value: the reducer returns new States and never mutates its input.
type State struct {
	Queue        queue.Queue
	CurrentIndex int
	IsPlaying    bool
	CurrentTime  time.Duration
	Duration     time.Duration // 0 while unknown
	Volume       int           // 0-100
	IsMuted      bool
	IsShuffled   bool
	RepeatMode   RepeatMode
	LikedIDs     map[string]struct{}

	// Loaded is the source currently attached to the output device.
	// A zero value means the device is detached.
	Loaded Source

	loads uint64 // generation counter for Loaded
}

// NewState creates the session start state.
func NewState(volume int) State {
	return State{
		Volume:   clampVolume(volume),
		LikedIDs: make(map[string]struct{}),
	}
}

// CurrentTrack returns the track at the current index.
func (s State) CurrentTrack() (track.Track, bool) {
	return s.Queue.At(s.CurrentIndex)
}

// HasTrack returns true if there is a current track.
func (s State) HasTrack() bool {
	_, ok := s.CurrentTrack()
	return ok
}

// IsLiked checks if the current track is liked.
func (s State) IsLiked() bool {
	t, ok := s.CurrentTrack()
	if !ok {
		return false
	}
	_, liked := s.LikedIDs[t.ID]
	return liked
}

// LikedTrackIDs returns the liked identifiers in sorted order.
func (s State) LikedTrackIDs() []string {
	ids := make([]string, 0, len(s.LikedIDs))
	for id := range s.LikedIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EffectiveDuration returns the device-reported duration, falling back to
// the current track's duration hint while metadata is not yet known.
func (s State) EffectiveDuration() time.Duration {
	if s.Duration > 0 {
		return s.Duration
	}
	if t, ok := s.CurrentTrack(); ok {
		return t.Duration
	}
	return 0
}

// OutputVolume returns the volume fraction the device should use.
func (s State) OutputVolume() float64 {
	if s.IsMuted {
		return 0
	}
	return float64(s.Volume) / 100
}

// Clone returns a copy that shares nothing mutable with s.
func (s State) Clone() State {
	liked := make(map[string]struct{}, len(s.LikedIDs))
	for id := range s.LikedIDs {
		liked[id] = struct{}{}
	}
	s.LikedIDs = liked
	return s
}

// Validate checks the state invariants.
func (s State) Validate() error {
	if n := s.Queue.Len(); n > 0 && (s.CurrentIndex < 0 || s.CurrentIndex >= n) {
		return errors.Newf("current index %d out of range [0, %d)", s.CurrentIndex, n)
	}
	if s.CurrentTime < 0 {
		return errors.Newf("negative current time %v", s.CurrentTime)
	}
	if s.Duration < 0 {
		return errors.Newf("negative duration %v", s.Duration)
	}
	if s.Volume < 0 || s.Volume > 100 {
		return errors.Newf("volume %d out of range [0, 100]", s.Volume)
	}
	return nil
}

// clampIndex keeps the current index inside [0, len) for a non-empty queue.
func (s *State) clampIndex() {
	if s.Queue.Len() == 0 || s.CurrentIndex < 0 || s.CurrentIndex >= s.Queue.Len() {
		s.CurrentIndex = 0
	}
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
