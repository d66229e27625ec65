package playback

// EventType represents a playback event type.
type EventType int

const (
	EventTrackChanged    EventType = iota // Current track changed (or was detached)
	EventStateChanged                     // Transport flag changed (play/pause/stop)
	EventQueueChanged                     // Queue contents changed
	EventModeChanged                      // Volume, mute, shuffle, repeat or like changed
	EventPositionChanged                  // Position or duration changed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackChanged:
		return "track_changed"
	case EventStateChanged:
		return "state_changed"
	case EventQueueChanged:
		return "queue_changed"
	case EventModeChanged:
		return "mode_changed"
	case EventPositionChanged:
		return "position_changed"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	SequenceNo uint64 // Increases by one per produced event, in state order
	Type       EventType
	Intent     string // Name of the intent that produced the event
	State      State  // State after the intent (a clone)
}

// classify picks the most significant change between prev and next.
func classify(in Intent, prev, next State) EventType {
	switch in.(type) {
	case QueueReplaced, TracksInserted, TrackRemoved:
		return EventQueueChanged
	}
	if prev.Loaded.TrackID != next.Loaded.TrackID || prev.CurrentIndex != next.CurrentIndex {
		return EventTrackChanged
	}
	if prev.IsPlaying != next.IsPlaying {
		return EventStateChanged
	}
	if prev.Volume != next.Volume || prev.IsMuted != next.IsMuted ||
		prev.IsShuffled != next.IsShuffled || prev.RepeatMode != next.RepeatMode ||
		len(prev.LikedIDs) != len(next.LikedIDs) {
		return EventModeChanged
	}
	return EventPositionChanged
}
