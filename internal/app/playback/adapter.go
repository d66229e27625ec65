package playback

import (
	"time"

	"github.com/osa030/deckbox/internal/domain/track"
)

// Source identifies one attachment of a track to the output device.
// Generation increases on every load, so a reload of the same track is
// distinguishable from the previous one.
type Source struct {
	TrackID      string
	Generation   uint64
	URL          string
	DurationHint time.Duration
}

// IsZero returns true when no source is attached.
func (s Source) IsZero() bool {
	return s.TrackID == "" && s.Generation == 0
}

func newSource(t track.Track, generation uint64) Source {
	return Source{
		TrackID:      t.ID,
		Generation:   generation,
		URL:          t.SourceURL,
		DurationHint: t.Duration,
	}
}

// NotificationType represents an output device notification.
type NotificationType int

const (
	NotificationPositionChanged NotificationType = iota // Playback position advanced
	NotificationMetadataReady                           // Duration became known
	NotificationEnded                                   // Source played to the end
)

// String returns the string representation of the notification type.
func (n NotificationType) String() string {
	switch n {
	case NotificationPositionChanged:
		return "position_changed"
	case NotificationMetadataReady:
		return "metadata_ready"
	case NotificationEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Notification is emitted by the Adapter. It is tagged with the Source it
// originated from so stale notifications can be detected.
type Notification struct {
	Type     NotificationType
	Source   Source
	Position time.Duration // PositionChanged
	Duration time.Duration // MetadataReady
}

// Adapter wraps the single audio output device.
// All commands are fire-and-forget and must not block; completion is
// observed through Notifications. Loading a new source abandons any pending
// play on the previous one.
type Adapter interface {
	Load(src Source)
	// Play reports start failures instead of panicking.
	Play() error
	Pause()
	Seek(position time.Duration)
	// SetVolume takes a fraction in [0, 1].
	SetVolume(fraction float64)
	// Unload pauses and detaches the current source.
	Unload()
	Notifications() <-chan Notification
}
