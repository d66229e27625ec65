package playback

import (
	"math/rand"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/deckbox/internal/domain/queue"
	"github.com/osa030/deckbox/internal/domain/track"
)

// DefaultRestartThreshold is the position after which Previous restarts the
// current track instead of going back.
const DefaultRestartThreshold = 3 * time.Second

// Errors
var (
	ErrStaleNotification = errors.New("notification for a superseded source")
	ErrUnknownIntent     = errors.New("unknown intent")
)

// Picker is the random source used for shuffle selection.
// *rand.Rand satisfies it.
type Picker interface {
	Intn(n int) int
}

// Reducer computes state transitions. It holds configuration only, so
// Reduce is deterministic for a deterministic Picker.
type Reducer struct {
	RestartThreshold time.Duration
	Rand             Picker
}

// NewReducer creates a reducer. A nil rng uses a time-seeded source.
func NewReducer(restartThreshold time.Duration, rng Picker) *Reducer {
	if restartThreshold <= 0 {
		restartThreshold = DefaultRestartThreshold
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Reducer{
		RestartThreshold: restartThreshold,
		Rand:             rng,
	}
}

// Reduce applies an intent to s and returns the next state together with the
// adapter commands that bring the device in line with it. On error the input
// state is returned unchanged with no commands.
func (r *Reducer) Reduce(s State, in Intent) (State, []Command, error) {
	next := s.Clone()

	var cmds []Command
	var err error
	switch in := in.(type) {
	case PlayPause:
		r.playPause(&next)
	case Next:
		cmds = r.next(&next)
	case Previous:
		cmds = r.previous(&next)
	case Seek:
		cmds = r.seek(&next, in.Position)
	case SetVolume:
		next.Volume = clampVolume(in.Volume)
		if next.Volume > 0 {
			next.IsMuted = false
		}
	case ToggleMute:
		next.IsMuted = !next.IsMuted
	case ToggleShuffle:
		next.IsShuffled = !next.IsShuffled
	case CycleRepeat:
		next.RepeatMode = next.RepeatMode.Next()
	case ToggleLike:
		r.toggleLike(&next)
	case Select:
		cmds, err = r.selectIndex(&next, in.Index)
	case TrackEnded:
		cmds, err = r.trackEnded(&next, in.Source)
	case PositionChanged:
		err = r.positionChanged(&next, in.Source, in.Position)
	case MetadataReady:
		err = r.metadataReady(&next, in.Source, in.Duration)
	case QueueReplaced:
		cmds, err = replaceQueue(&next, in.Tracks)
	case TracksInserted:
		err = insertTracks(&next, in.Position, in.Tracks)
	case TrackRemoved:
		cmds, err = removeTrack(&next, in.TrackID)
	default:
		err = errors.Wrapf(ErrUnknownIntent, "%T", in)
	}
	if err != nil {
		return s, nil, err
	}

	next.clampIndex()
	cmds = syncDevice(s, &next, cmds)
	return next, cmds, nil
}

func (r *Reducer) playPause(s *State) {
	if s.Queue.IsEmpty() {
		return
	}
	if !s.HasTrack() {
		s.CurrentIndex = 0
		s.CurrentTime = 0
		s.IsPlaying = true
		return
	}
	s.IsPlaying = !s.IsPlaying
}

func (r *Reducer) next(s *State) []Command {
	n := s.Queue.Len()
	if n == 0 {
		return nil
	}

	if s.RepeatMode == RepeatOne {
		s.CurrentTime = 0
		s.IsPlaying = true
		return restart(s)
	}

	var idx int
	if s.IsShuffled {
		idx = pickExcluding(r.Rand, n, s.CurrentIndex)
	} else {
		idx = (s.CurrentIndex + 1) % n
	}

	cmds := moveTo(s, idx)
	s.IsPlaying = true
	return cmds
}

func (r *Reducer) previous(s *State) []Command {
	n := s.Queue.Len()
	if n == 0 {
		return nil
	}

	// restart wins over going back
	if s.CurrentTime > r.RestartThreshold {
		s.CurrentTime = 0
		return restart(s)
	}

	idx := s.CurrentIndex - 1
	if idx < 0 {
		idx = n - 1
	}
	return moveTo(s, idx)
}

func (r *Reducer) seek(s *State, position time.Duration) []Command {
	if !s.HasTrack() {
		return nil
	}
	position = clampPosition(position, s.EffectiveDuration())
	s.CurrentTime = position
	return []Command{seekCmd(position)}
}

func (r *Reducer) toggleLike(s *State) {
	t, ok := s.CurrentTrack()
	if !ok {
		return
	}
	if _, liked := s.LikedIDs[t.ID]; liked {
		delete(s.LikedIDs, t.ID)
	} else {
		s.LikedIDs[t.ID] = struct{}{}
	}
}

func (r *Reducer) selectIndex(s *State, idx int) ([]Command, error) {
	if idx < 0 || idx >= s.Queue.Len() {
		return nil, errors.Wrapf(queue.ErrInvalidIndex, "select %d (len %d)", idx, s.Queue.Len())
	}
	cmds := moveTo(s, idx)
	s.IsPlaying = true
	return cmds, nil
}

func (r *Reducer) trackEnded(s *State, src Source) ([]Command, error) {
	if isStale(*s, src) {
		return nil, ErrStaleNotification
	}

	n := s.Queue.Len()
	if s.CurrentIndex == n-1 && s.RepeatMode != RepeatAll {
		// the only end-of-track case that does not advance
		s.IsPlaying = false
		s.CurrentTime = 0
		return []Command{seekCmd(0)}, nil
	}

	idx := 0
	if s.CurrentIndex < n-1 {
		idx = s.CurrentIndex + 1
	}
	return moveTo(s, idx), nil
}

func (r *Reducer) positionChanged(s *State, src Source, position time.Duration) error {
	if isStale(*s, src) {
		return ErrStaleNotification
	}
	s.CurrentTime = clampPosition(position, s.EffectiveDuration())
	return nil
}

func (r *Reducer) metadataReady(s *State, src Source, duration time.Duration) error {
	if isStale(*s, src) {
		return ErrStaleNotification
	}
	if duration > 0 {
		s.Duration = duration
		s.CurrentTime = clampPosition(s.CurrentTime, duration)
	}
	return nil
}

// moveTo makes idx the current position with the time reset to 0. When idx
// refers to the already attached track it is restarted.
func moveTo(s *State, idx int) []Command {
	s.CurrentIndex = idx
	s.CurrentTime = 0
	t, ok := s.CurrentTrack()
	if ok && !s.Loaded.IsZero() && s.Loaded.TrackID == t.ID {
		return restart(s)
	}
	return nil
}

// restart reattaches the current track under a new generation, so
// notifications still queued from the previous playthrough are stale.
func restart(s *State) []Command {
	t, ok := s.CurrentTrack()
	if !ok {
		return nil
	}
	return []Command{attach(s, t)}
}

// attach records t as the loaded source with the next generation.
func attach(s *State, t track.Track) Command {
	s.loads++
	s.Loaded = newSource(t, s.loads)
	return loadCmd(s.Loaded)
}

// syncDevice appends the commands implied by the difference between prev and
// next: attach/detach, transport, and output volume.
func syncDevice(prev State, next *State, cmds []Command) []Command {
	cur, ok := next.CurrentTrack()
	if !ok {
		if !next.Loaded.IsZero() {
			cmds = append(cmds, unloadCmd())
			next.Loaded = Source{}
		}
	} else {
		if next.Loaded.TrackID != cur.ID {
			next.Duration = 0
			cmds = append(cmds, attach(next, cur))
		}
		// a load leaves the device paused at 0
		loaded := hasCommand(cmds, CommandLoad)
		switch {
		case next.IsPlaying && (loaded || !prev.IsPlaying):
			if !hasCommand(cmds, CommandPlay) {
				cmds = append(cmds, playCmd())
			}
		case !next.IsPlaying && prev.IsPlaying && !loaded:
			cmds = append(cmds, pauseCmd())
		}
	}

	if next.OutputVolume() != prev.OutputVolume() {
		cmds = append(cmds, volumeCmd(next.OutputVolume()))
	}
	return cmds
}

func isStale(s State, src Source) bool {
	if s.Loaded.IsZero() {
		return true
	}
	return src.TrackID != s.Loaded.TrackID || src.Generation != s.Loaded.Generation
}

// pickExcluding draws uniformly from [0, n) without current.
func pickExcluding(rng Picker, n, current int) int {
	if n <= 1 {
		return 0
	}
	if current < 0 || current >= n {
		return rng.Intn(n)
	}
	i := rng.Intn(n - 1)
	if i >= current {
		i++
	}
	return i
}

// clampPosition bounds p to [0, duration]. An unknown (zero) duration only
// bounds from below.
func clampPosition(p, duration time.Duration) time.Duration {
	if p < 0 {
		return 0
	}
	if duration > 0 && p > duration {
		return duration
	}
	return p
}
