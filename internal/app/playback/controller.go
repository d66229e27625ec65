package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/deckbox/internal/domain/track"
)

// Errors
var (
	ErrClosed = errors.New("controller is closed")
)

// Config holds controller configuration.
type Config struct {
	InitialVolume    int           // Session start volume (0-100)
	RestartThreshold time.Duration // Previous restarts the track after this position
	Rand             Picker        // Shuffle source (nil for time-seeded)
}

// Controller owns the playback state and the output device.
// Intents and device notifications are applied one at a time in arrival
// order; it is the only component that commands the Adapter.
type Controller struct {
	mu sync.Mutex

	state   State
	reducer *Reducer
	adapter Adapter

	// Events
	eventCh    chan Event
	sequenceNo uint64 // last produced event
	closed     bool

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a new playback controller driving adapter.
func NewController(adapter Adapter, config Config) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		state:   NewState(config.InitialVolume),
		reducer: NewReducer(config.RestartThreshold, config.Rand),
		adapter: adapter,
		eventCh: make(chan Event, 64),
		ctx:     ctx,
		cancel:  cancel,
	}
	adapter.SetVolume(c.state.OutputVolume())
	return c
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// SnapshotAt returns a copy of the current state together with the sequence
// number of the last event it includes. Events with a higher number are
// newer than the snapshot.
func (c *Controller) SnapshotAt() (State, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone(), c.sequenceNo
}

// Dispatch applies an intent and issues the resulting adapter commands.
// Stale device notifications are discarded and do not return an error.
func (c *Controller) Dispatch(in Intent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	return c.dispatchLocked(in)
}

func (c *Controller) dispatchLocked(in Intent) error {
	prev := c.state
	next, cmds, err := c.reducer.Reduce(prev, in)
	if err != nil {
		if errors.Is(err, ErrStaleNotification) {
			zlog.Debug().Msgf("playback: discarding stale notification: intent=%s loaded=%s#%d",
				in.Name(), prev.Loaded.TrackID, prev.Loaded.Generation)
			return nil
		}
		return errors.Wrapf(err, "playback: %s", in.Name())
	}

	if _, ok := in.(PositionChanged); !ok {
		zlog.Debug().Msgf("playback: intent=%s index=%d playing=%v commands=%v",
			in.Name(), next.CurrentIndex, next.IsPlaying, cmds)
	}

	c.state = next
	c.executeLocked(cmds)
	c.sequenceNo++
	c.sendEventLocked(Event{
		SequenceNo: c.sequenceNo,
		Type:       classify(in, prev, next),
		Intent:     in.Name(),
		State:      next.Clone(),
	})
	return nil
}

// executeLocked forwards commands to the adapter in order.
// Must be called with lock held.
func (c *Controller) executeLocked(cmds []Command) {
	for _, cmd := range cmds {
		switch cmd.Type {
		case CommandLoad:
			c.adapter.Load(cmd.Source)
		case CommandPlay:
			if err := c.adapter.Play(); err != nil {
				// the requested state stands; the device simply stays silent
				zlog.Warn().Err(err).Msgf("playback: device failed to start: track=%s", c.state.Loaded.TrackID)
			}
		case CommandPause:
			c.adapter.Pause()
		case CommandSeek:
			c.adapter.Seek(cmd.Position)
		case CommandSetVolume:
			c.adapter.SetVolume(cmd.Volume)
		case CommandUnload:
			c.adapter.Unload()
		}
	}
}

// Run pumps device notifications into the controller until ctx is done,
// the controller is closed, or the adapter closes its channel.
func (c *Controller) Run(ctx context.Context) error {
	notifications := c.adapter.Notifications()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.ctx.Done():
			return nil
		case n, ok := <-notifications:
			if !ok {
				return nil
			}
			in, ok := intentFromNotification(n)
			if !ok {
				zlog.Warn().Msgf("playback: unknown device notification: type=%d", n.Type)
				continue
			}
			if err := c.Dispatch(in); err != nil {
				if errors.Is(err, ErrClosed) {
					return nil
				}
				zlog.Error().Err(err).Msgf("playback: failed to apply %s", n.Type)
			}
		}
	}
}

// PlayPause toggles playback.
func (c *Controller) PlayPause() error { return c.Dispatch(PlayPause{}) }

// Next skips to the next track.
func (c *Controller) Next() error { return c.Dispatch(Next{}) }

// Previous restarts the current track or goes back one.
func (c *Controller) Previous() error { return c.Dispatch(Previous{}) }

// Seek moves the playback position.
func (c *Controller) Seek(position time.Duration) error {
	return c.Dispatch(Seek{Position: position})
}

// SetVolume sets the volume (0-100).
func (c *Controller) SetVolume(volume int) error {
	return c.Dispatch(SetVolume{Volume: volume})
}

// ToggleMute flips the mute flag.
func (c *Controller) ToggleMute() error { return c.Dispatch(ToggleMute{}) }

// ToggleShuffle flips shuffle.
func (c *Controller) ToggleShuffle() error { return c.Dispatch(ToggleShuffle{}) }

// CycleRepeat advances the repeat mode.
func (c *Controller) CycleRepeat() error { return c.Dispatch(CycleRepeat{}) }

// ToggleLike likes or unlikes the current track.
func (c *Controller) ToggleLike() error { return c.Dispatch(ToggleLike{}) }

// Select plays the track at index.
func (c *Controller) Select(index int) error {
	return c.Dispatch(Select{Index: index})
}

// ReplaceQueue swaps the queue, keeping the current track when it survives.
func (c *Controller) ReplaceQueue(tracks []track.Track) error {
	return c.Dispatch(QueueReplaced{Tracks: tracks})
}

// InsertTracks inserts tracks before position; a negative position appends.
func (c *Controller) InsertTracks(position int, tracks ...track.Track) error {
	return c.Dispatch(TracksInserted{Position: position, Tracks: tracks})
}

// RemoveTrack removes a track from the queue.
func (c *Controller) RemoveTrack(id string) error {
	return c.Dispatch(TrackRemoved{TrackID: id})
}

// Close closes the controller. Pending Run loops return and the event
// channel is closed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	if !c.state.Loaded.IsZero() {
		c.adapter.Unload()
		c.state.Loaded = Source{}
	}
	close(c.eventCh)
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(e Event) {
	select {
	case c.eventCh <- e:
		// Successfully sent
	case <-c.ctx.Done():
		// Context cancelled, don't send
	default:
		// Channel full, drop event
	}
}
