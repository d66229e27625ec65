// Package audio provides output devices for the playback controller.
package audio

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/deckbox/internal/app/playback"
)

// DefaultTickInterval is how often position notifications are produced.
const DefaultTickInterval = 250 * time.Millisecond

// Errors
var (
	ErrNoSource = errors.New("no source loaded")
)

// Clock is an output device that plays sources against the wall clock
// without decoding audio. A source ends once its duration hint elapses;
// sources without a hint play until paused or unloaded.
//
// Notifications are delivered in order. Consecutive position ticks for the
// same source are coalesced when the consumer falls behind; ended and
// metadata notifications are never dropped.
type Clock struct {
	mu   sync.Mutex
	tick time.Duration

	src      playback.Source
	playing  bool
	offset   time.Duration // position at anchor
	anchor   time.Time     // wall time playback (re)started
	volume   float64
	session  uint64
	stopTick func()

	pending []playback.Notification
	wake    chan struct{}
	out     chan playback.Notification

	ctx    context.Context
	cancel context.CancelFunc
}

var _ playback.Adapter = (*Clock)(nil)

// NewClock creates a wall-clock device ticking every tick.
func NewClock(tick time.Duration) *Clock {
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Clock{
		tick:   tick,
		volume: 1,
		wake:   make(chan struct{}, 1),
		out:    make(chan playback.Notification),
		ctx:    ctx,
		cancel: cancel,
	}
	go c.pump()
	return c
}

// Load attaches src paused at position 0, abandoning the previous source.
func (c *Clock) Load(src playback.Source) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTickerLocked()
	c.src = src
	c.playing = false
	c.offset = 0
	zlog.Debug().Msgf("audio: loaded %s#%d url=%s", src.TrackID, src.Generation, src.URL)

	if src.DurationHint > 0 {
		c.enqueueLocked(playback.Notification{
			Type:     playback.NotificationMetadataReady,
			Source:   src,
			Duration: src.DurationHint,
		})
	}
}

// Play starts or resumes the attached source.
func (c *Clock) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.src.IsZero() {
		return ErrNoSource
	}
	if c.playing {
		return nil
	}
	c.playing = true
	c.anchor = time.Now()
	c.startTickerLocked()
	return nil
}

// Pause pauses playback, keeping the position.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.playing {
		return
	}
	c.offset = c.positionLocked()
	c.playing = false
	c.stopTickerLocked()
}

// Seek moves the position of the attached source.
func (c *Clock) Seek(position time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if position < 0 {
		position = 0
	}
	c.offset = position
	c.anchor = time.Now()
}

// SetVolume stores the output fraction. The clock is silent, so it only
// affects what Volume reports.
func (c *Clock) SetVolume(fraction float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	c.volume = fraction
}

// Unload pauses and detaches the current source.
func (c *Clock) Unload() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTickerLocked()
	c.src = playback.Source{}
	c.playing = false
	c.offset = 0
}

// Notifications returns the notification channel. It is closed by Close.
func (c *Clock) Notifications() <-chan playback.Notification {
	return c.out
}

// Position returns the current position.
func (c *Clock) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

// Playing reports whether the device is running.
func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Volume returns the output fraction.
func (c *Clock) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// Close stops the device and closes the notification channel.
func (c *Clock) Close() {
	c.mu.Lock()
	c.stopTickerLocked()
	c.playing = false
	c.mu.Unlock()
	c.cancel()
}

func (c *Clock) positionLocked() time.Duration {
	if !c.playing {
		return c.offset
	}
	return c.offset + toWallTime(time.Now()).Sub(toWallTime(c.anchor))
}

// startTickerLocked starts the position ticker for a new play session.
// Must be called with lock held.
func (c *Clock) startTickerLocked() {
	c.stopTickerLocked()
	c.session++
	session := c.session

	ctx, cancel := context.WithCancel(c.ctx)
	c.stopTick = cancel

	go func() {
		ticker := time.NewTicker(c.tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !c.onTick(session) {
					return
				}
			}
		}
	}()
}

// stopTickerLocked stops the position ticker.
// Must be called with lock held.
func (c *Clock) stopTickerLocked() {
	if c.stopTick != nil {
		c.stopTick()
		c.stopTick = nil
	}
}

// onTick reports the position and detects the end of the source. It
// returns false when the ticker should stop.
func (c *Clock) onTick(session uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if session != c.session || !c.playing {
		return false
	}

	pos := c.positionLocked()
	if d := c.src.DurationHint; d > 0 && pos >= d {
		c.playing = false
		c.offset = d
		c.stopTickerLocked()
		c.enqueueLocked(playback.Notification{Type: playback.NotificationPositionChanged, Source: c.src, Position: d})
		c.enqueueLocked(playback.Notification{Type: playback.NotificationEnded, Source: c.src})
		return false
	}

	c.enqueueLocked(playback.Notification{Type: playback.NotificationPositionChanged, Source: c.src, Position: pos})
	return true
}

// enqueueLocked queues a notification for delivery.
// Must be called with lock held.
func (c *Clock) enqueueLocked(n playback.Notification) {
	if last := len(c.pending) - 1; n.Type == playback.NotificationPositionChanged && last >= 0 {
		if p := &c.pending[last]; p.Type == n.Type && p.Source == n.Source {
			p.Position = n.Position
			c.signal()
			return
		}
	}
	c.pending = append(c.pending, n)
	c.signal()
}

func (c *Clock) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// pump delivers queued notifications without holding the lock while
// sending, so a consumer calling back into the device cannot deadlock.
func (c *Clock) pump() {
	defer close(c.out)

	for {
		c.mu.Lock()
		if len(c.pending) == 0 {
			c.mu.Unlock()
			select {
			case <-c.ctx.Done():
				return
			case <-c.wake:
			}
			continue
		}
		n := c.pending[0]
		c.pending = c.pending[1:]
		c.mu.Unlock()

		select {
		case c.out <- n:
		case <-c.ctx.Done():
			return
		}
	}
}

// toWallTime returns the time with monotonic clock stripped.
func toWallTime(t time.Time) time.Time {
	return time.Unix(t.Unix(), int64(t.Nanosecond()))
}
