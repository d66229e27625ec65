// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"

	"connectrpc.com/connect"

	playerv1 "github.com/osa030/deckbox/internal/api/playerv1"
	"github.com/osa030/deckbox/internal/app/playback"
	"github.com/osa030/deckbox/internal/app/session"
)

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	session *session.Manager
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(session *session.Manager) *PlayerService {
	return &PlayerService{session: session}
}

// Ensure PlayerService implements the interface.
var _ playerv1.PlayerServiceHandler = (*PlayerService)(nil)

// apply runs fn against the controller and returns the resulting state.
func (s *PlayerService) apply(procedure string, fn func(*playback.Controller) error) (*connect.Response[playerv1.StateResponse], error) {
	controller := s.session.Playback()
	if err := fn(controller); err != nil {
		return nil, toConnectError(procedure, err)
	}
	return connect.NewResponse(&playerv1.StateResponse{
		State: playerv1.NewState(controller.Snapshot()),
	}), nil
}

// GetState returns the current player state.
func (s *PlayerService) GetState(
	ctx context.Context,
	req *connect.Request[playerv1.Empty],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply("GetState", func(*playback.Controller) error { return nil })
}

// PlayPause toggles playback.
func (s *PlayerService) PlayPause(
	ctx context.Context,
	req *connect.Request[playerv1.Empty],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply("PlayPause", (*playback.Controller).PlayPause)
}

// Next skips to the next track.
func (s *PlayerService) Next(
	ctx context.Context,
	req *connect.Request[playerv1.Empty],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply("Next", (*playback.Controller).Next)
}

// Previous restarts the current track or goes back one.
func (s *PlayerService) Previous(
	ctx context.Context,
	req *connect.Request[playerv1.Empty],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply("Previous", (*playback.Controller).Previous)
}

// Seek moves the playback position.
func (s *PlayerService) Seek(
	ctx context.Context,
	req *connect.Request[playerv1.SeekRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	position := playerv1.Duration(req.Msg.PositionMs)
	return s.apply("Seek", func(c *playback.Controller) error { return c.Seek(position) })
}

// SetVolume sets the volume.
func (s *PlayerService) SetVolume(
	ctx context.Context,
	req *connect.Request[playerv1.SetVolumeRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	volume := int(req.Msg.Volume)
	return s.apply("SetVolume", func(c *playback.Controller) error { return c.SetVolume(volume) })
}

// ToggleMute flips mute.
func (s *PlayerService) ToggleMute(
	ctx context.Context,
	req *connect.Request[playerv1.Empty],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply("ToggleMute", (*playback.Controller).ToggleMute)
}

// ToggleShuffle flips shuffle.
func (s *PlayerService) ToggleShuffle(
	ctx context.Context,
	req *connect.Request[playerv1.Empty],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply("ToggleShuffle", (*playback.Controller).ToggleShuffle)
}

// CycleRepeat advances the repeat mode.
func (s *PlayerService) CycleRepeat(
	ctx context.Context,
	req *connect.Request[playerv1.Empty],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply("CycleRepeat", (*playback.Controller).CycleRepeat)
}

// ToggleLike likes or unlikes the current track.
func (s *PlayerService) ToggleLike(
	ctx context.Context,
	req *connect.Request[playerv1.Empty],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply("ToggleLike", (*playback.Controller).ToggleLike)
}

// Select plays the track at the requested index.
func (s *PlayerService) Select(
	ctx context.Context,
	req *connect.Request[playerv1.SelectRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	index := int(req.Msg.Index)
	return s.apply("Select", func(c *playback.Controller) error { return c.Select(index) })
}

// Watch streams the initial state followed by every player event until
// the client goes away or the session closes.
func (s *PlayerService) Watch(
	ctx context.Context,
	req *connect.Request[playerv1.Empty],
	stream *connect.ServerStream[playerv1.Notification],
) error {
	notifications := s.session.Notifications()

	// subscribe first so no event between the snapshot and the stream is lost
	out := make(chan *playerv1.Notification, 32)
	subscriptionID := notifications.Subscribe(&channelStream{ch: out})
	defer notifications.Unsubscribe(subscriptionID)

	initial := notifications.InitialState(s.session.Playback().SnapshotAt())
	if err := stream.Send(initial); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.session.Done():
			return nil
		case n := <-out:
			if n.SequenceNo <= initial.SequenceNo {
				// already part of the initial state
				continue
			}
			if err := stream.Send(n); err != nil {
				return err
			}
		}
	}
}

// channelStream adapts a buffered channel to notification.Stream so a slow
// client never blocks the broadcast.
type channelStream struct {
	ch chan *playerv1.Notification
}

func (c *channelStream) Send(n *playerv1.Notification) error {
	select {
	case c.ch <- n:
	default:
		// client is behind; it resynchronizes from the next state
	}
	return nil
}
