// Package playerv1 defines the deckbox player wire messages and their
// Connect RPC bindings.
package playerv1

import (
	"time"

	"github.com/osa030/deckbox/internal/app/playback"
	"github.com/osa030/deckbox/internal/domain/track"
)

// Track is a queue entry as seen by clients.
type Track struct {
	Id         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	DurationMs int64  `json:"durationMs"`
	SourceUrl  string `json:"sourceUrl"`
	CoverUrl   string `json:"coverUrl,omitempty"`
}

// State is a snapshot of the player.
type State struct {
	Tracks        []*Track `json:"tracks"`
	CurrentIndex  int32    `json:"currentIndex"`
	IsPlaying     bool     `json:"isPlaying"`
	PositionMs    int64    `json:"positionMs"`
	DurationMs    int64    `json:"durationMs"`
	Volume        int32    `json:"volume"`
	IsMuted       bool     `json:"isMuted"`
	IsShuffled    bool     `json:"isShuffled"`
	RepeatMode    string   `json:"repeatMode"`
	IsLiked       bool     `json:"isLiked"`
	LikedTrackIds []string `json:"likedTrackIds"`
}

// Current returns the current track, or nil for an empty queue.
func (s *State) Current() *Track {
	if s == nil || s.CurrentIndex < 0 || int(s.CurrentIndex) >= len(s.Tracks) {
		return nil
	}
	return s.Tracks[s.CurrentIndex]
}

// NotificationType classifies a Notification.
type NotificationType string

const (
	NotificationTypeInitialState    NotificationType = "initial_state"
	NotificationTypeTrackChanged    NotificationType = "track_changed"
	NotificationTypeStateChanged    NotificationType = "state_changed"
	NotificationTypeQueueChanged    NotificationType = "queue_changed"
	NotificationTypeModeChanged     NotificationType = "mode_changed"
	NotificationTypePositionChanged NotificationType = "position_changed"
)

// Notification is pushed to Watch subscribers.
type Notification struct {
	SequenceNo uint64           `json:"sequenceNo"`
	Type       NotificationType `json:"type"`
	Intent     string           `json:"intent,omitempty"`
	State      *State           `json:"state"`
}

// Empty is the request or response of procedures without parameters.
type Empty struct{}

// StateResponse carries the state after a call.
type StateResponse struct {
	State *State `json:"state"`
}

// SeekRequest moves the playback position.
type SeekRequest struct {
	PositionMs int64 `json:"positionMs"`
}

// SetVolumeRequest sets the volume (0-100).
type SetVolumeRequest struct {
	Volume int32 `json:"volume"`
}

// SelectRequest plays the track at Index.
type SelectRequest struct {
	Index int32 `json:"index"`
}

// ListTracksResponse holds the library in queue order.
type ListTracksResponse struct {
	Tracks []*Track `json:"tracks"`
}

// DeleteTrackRequest deletes a track by ID.
type DeleteTrackRequest struct {
	Id string `json:"id"`
}

// CreateTrackRequest uploads a track. Audio and Cover are base64 in JSON.
type CreateTrackRequest struct {
	Title            string `json:"title"`
	Artist           string `json:"artist"`
	Album            string `json:"album"`
	DurationMs       int64  `json:"durationMs"`
	AudioName        string `json:"audioName"`
	AudioContentType string `json:"audioContentType"`
	Audio            []byte `json:"audio"`
	CoverName        string `json:"coverName,omitempty"`
	CoverContentType string `json:"coverContentType,omitempty"`
	Cover            []byte `json:"cover,omitempty"`
}

// CreateTrackResponse holds the created track.
type CreateTrackResponse struct {
	Track *Track `json:"track"`
}

// ReloadResponse reports the queue length after a reload.
type ReloadResponse struct {
	Count int32 `json:"count"`
}

// NewTrack converts a domain track.
func NewTrack(t track.Track) *Track {
	return &Track{
		Id:         t.ID,
		Title:      t.Title,
		Artist:     t.Artist,
		Album:      t.Album,
		DurationMs: t.Duration.Milliseconds(),
		SourceUrl:  t.SourceURL,
		CoverUrl:   t.CoverURL,
	}
}

// NewTracks converts a list of domain tracks.
func NewTracks(tracks []track.Track) []*Track {
	out := make([]*Track, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, NewTrack(t))
	}
	return out
}

// NewState converts a playback snapshot.
func NewState(s playback.State) *State {
	return &State{
		Tracks:        NewTracks(s.Queue.Tracks()),
		CurrentIndex:  int32(s.CurrentIndex),
		IsPlaying:     s.IsPlaying,
		PositionMs:    s.CurrentTime.Milliseconds(),
		DurationMs:    s.EffectiveDuration().Milliseconds(),
		Volume:        int32(s.Volume),
		IsMuted:       s.IsMuted,
		IsShuffled:    s.IsShuffled,
		RepeatMode:    s.RepeatMode.String(),
		IsLiked:       s.IsLiked(),
		LikedTrackIds: s.LikedTrackIDs(),
	}
}

// NewNotificationType maps a controller event type.
func NewNotificationType(t playback.EventType) NotificationType {
	switch t {
	case playback.EventTrackChanged:
		return NotificationTypeTrackChanged
	case playback.EventStateChanged:
		return NotificationTypeStateChanged
	case playback.EventQueueChanged:
		return NotificationTypeQueueChanged
	case playback.EventModeChanged:
		return NotificationTypeModeChanged
	default:
		return NotificationTypePositionChanged
	}
}

// Duration converts milliseconds to a time.Duration.
func Duration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
