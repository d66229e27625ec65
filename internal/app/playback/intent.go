package playback

import (
	"time"

	"github.com/osa030/deckbox/internal/domain/track"
)

// Intent is a user or system request handled by the reducer.
type Intent interface {
	// Name returns the intent name used in logs and events.
	Name() string
}

// Transport intents
type (
	PlayPause     struct{}
	Next          struct{}
	Previous      struct{}
	Seek          struct{ Position time.Duration }
	SetVolume     struct{ Volume int }
	ToggleMute    struct{}
	ToggleShuffle struct{}
	CycleRepeat   struct{}
	ToggleLike    struct{}

	// Select jumps to a queue position and starts playing it.
	Select struct{ Index int }
)

// Adapter notifications
type (
	TrackEnded struct{ Source Source }

	PositionChanged struct {
		Source   Source
		Position time.Duration
	}

	MetadataReady struct {
		Source   Source
		Duration time.Duration
	}
)

// Queue mutations
type (
	// QueueReplaced swaps the whole queue, e.g. after a reload.
	QueueReplaced struct{ Tracks []track.Track }

	// TracksInserted inserts before Position; a negative Position appends.
	TracksInserted struct {
		Position int
		Tracks   []track.Track
	}

	TrackRemoved struct{ TrackID string }
)

func (PlayPause) Name() string { return "play_pause" }
func (Next) Name() string { return "next" }
func (Previous) Name() string { return "previous" }
func (Seek) Name() string { return "seek" }
func (SetVolume) Name() string { return "set_volume" }
func (ToggleMute) Name() string { return "toggle_mute" }
func (ToggleShuffle) Name() string { return "toggle_shuffle" }
func (CycleRepeat) Name() string { return "cycle_repeat" }
func (ToggleLike) Name() string { return "toggle_like" }
func (Select) Name() string { return "select" }
func (TrackEnded) Name() string { return "track_ended" }
func (PositionChanged) Name() string { return "position_changed" }
func (MetadataReady) Name() string { return "metadata_ready" }
func (QueueReplaced) Name() string { return "queue_replaced" }
func (TracksInserted) Name() string { return "tracks_inserted" }
func (TrackRemoved) Name() string { return "track_removed" }

// intentFromNotification converts an adapter notification into its intent.
func intentFromNotification(n Notification) (Intent, bool) {
	switch n.Type {
	case NotificationEnded:
		return TrackEnded{Source: n.Source}, true
	case NotificationPositionChanged:
		return PositionChanged{Source: n.Source, Position: n.Position}, true
	case NotificationMetadataReady:
		return MetadataReady{Source: n.Source, Duration: n.Duration}, true
	default:
		return nil, false
	}
}
