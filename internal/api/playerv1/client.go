package playerv1

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// TokenHeader carries the library mutation token.
const TokenHeader = "X-Player-Token"

// Client is a typed client for both services.
type Client struct {
	getState      *connect.Client[Empty, StateResponse]
	playPause     *connect.Client[Empty, StateResponse]
	next          *connect.Client[Empty, StateResponse]
	previous      *connect.Client[Empty, StateResponse]
	seek          *connect.Client[SeekRequest, StateResponse]
	setVolume     *connect.Client[SetVolumeRequest, StateResponse]
	toggleMute    *connect.Client[Empty, StateResponse]
	toggleShuffle *connect.Client[Empty, StateResponse]
	cycleRepeat   *connect.Client[Empty, StateResponse]
	toggleLike    *connect.Client[Empty, StateResponse]
	selectTrack   *connect.Client[SelectRequest, StateResponse]
	watch         *connect.Client[Empty, Notification]

	listTracks  *connect.Client[Empty, ListTracksResponse]
	deleteTrack *connect.Client[DeleteTrackRequest, Empty]
	createTrack *connect.Client[CreateTrackRequest, CreateTrackResponse]
	reload      *connect.Client[Empty, ReloadResponse]

	token string
}

// NewClient creates a client for the server at baseURL. token is sent with
// library mutations when non-empty.
func NewClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return &Client{
		getState:      connect.NewClient[Empty, StateResponse](httpClient, baseURL+PlayerServiceGetStateProcedure, opts...),
		playPause:     connect.NewClient[Empty, StateResponse](httpClient, baseURL+PlayerServicePlayPauseProcedure, opts...),
		next:          connect.NewClient[Empty, StateResponse](httpClient, baseURL+PlayerServiceNextProcedure, opts...),
		previous:      connect.NewClient[Empty, StateResponse](httpClient, baseURL+PlayerServicePreviousProcedure, opts...),
		seek:          connect.NewClient[SeekRequest, StateResponse](httpClient, baseURL+PlayerServiceSeekProcedure, opts...),
		setVolume:     connect.NewClient[SetVolumeRequest, StateResponse](httpClient, baseURL+PlayerServiceSetVolumeProcedure, opts...),
		toggleMute:    connect.NewClient[Empty, StateResponse](httpClient, baseURL+PlayerServiceToggleMuteProcedure, opts...),
		toggleShuffle: connect.NewClient[Empty, StateResponse](httpClient, baseURL+PlayerServiceToggleShuffleProcedure, opts...),
		cycleRepeat:   connect.NewClient[Empty, StateResponse](httpClient, baseURL+PlayerServiceCycleRepeatProcedure, opts...),
		toggleLike:    connect.NewClient[Empty, StateResponse](httpClient, baseURL+PlayerServiceToggleLikeProcedure, opts...),
		selectTrack:   connect.NewClient[SelectRequest, StateResponse](httpClient, baseURL+PlayerServiceSelectProcedure, opts...),
		watch:         connect.NewClient[Empty, Notification](httpClient, baseURL+PlayerServiceWatchProcedure, opts...),
		listTracks:    connect.NewClient[Empty, ListTracksResponse](httpClient, baseURL+LibraryServiceListTracksProcedure, opts...),
		deleteTrack:   connect.NewClient[DeleteTrackRequest, Empty](httpClient, baseURL+LibraryServiceDeleteTrackProcedure, opts...),
		createTrack:   connect.NewClient[CreateTrackRequest, CreateTrackResponse](httpClient, baseURL+LibraryServiceCreateTrackProcedure, opts...),
		reload:        connect.NewClient[Empty, ReloadResponse](httpClient, baseURL+LibraryServiceReloadProcedure, opts...),
		token:         token,
	}
}

func unary[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], msg *Req, token string) (*Res, error) {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set(TokenHeader, token)
	}
	resp, err := c.CallUnary(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func state(resp *StateResponse, err error) (*State, error) {
	if err != nil {
		return nil, err
	}
	return resp.State, nil
}

// GetState returns the current player state.
func (c *Client) GetState(ctx context.Context) (*State, error) {
	return state(unary(ctx, c.getState, &Empty{}, ""))
}

// PlayPause toggles playback.
func (c *Client) PlayPause(ctx context.Context) (*State, error) {
	return state(unary(ctx, c.playPause, &Empty{}, ""))
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context) (*State, error) {
	return state(unary(ctx, c.next, &Empty{}, ""))
}

// Previous restarts the track or goes back one.
func (c *Client) Previous(ctx context.Context) (*State, error) {
	return state(unary(ctx, c.previous, &Empty{}, ""))
}

// Seek moves the playback position.
func (c *Client) Seek(ctx context.Context, positionMs int64) (*State, error) {
	return state(unary(ctx, c.seek, &SeekRequest{PositionMs: positionMs}, ""))
}

// SetVolume sets the volume.
func (c *Client) SetVolume(ctx context.Context, volume int32) (*State, error) {
	return state(unary(ctx, c.setVolume, &SetVolumeRequest{Volume: volume}, ""))
}

// ToggleMute flips mute.
func (c *Client) ToggleMute(ctx context.Context) (*State, error) {
	return state(unary(ctx, c.toggleMute, &Empty{}, ""))
}

// ToggleShuffle flips shuffle.
func (c *Client) ToggleShuffle(ctx context.Context) (*State, error) {
	return state(unary(ctx, c.toggleShuffle, &Empty{}, ""))
}

// CycleRepeat advances the repeat mode.
func (c *Client) CycleRepeat(ctx context.Context) (*State, error) {
	return state(unary(ctx, c.cycleRepeat, &Empty{}, ""))
}

// ToggleLike likes or unlikes the current track.
func (c *Client) ToggleLike(ctx context.Context) (*State, error) {
	return state(unary(ctx, c.toggleLike, &Empty{}, ""))
}

// Select plays the track at index.
func (c *Client) Select(ctx context.Context, index int32) (*State, error) {
	return state(unary(ctx, c.selectTrack, &SelectRequest{Index: index}, ""))
}

// Watch opens the notification stream. The first message is the initial
// state. The caller must Close the stream.
func (c *Client) Watch(ctx context.Context) (*connect.ServerStreamForClient[Notification], error) {
	return c.watch.CallServerStream(ctx, connect.NewRequest(&Empty{}))
}

// ListTracks lists the library.
func (c *Client) ListTracks(ctx context.Context) ([]*Track, error) {
	resp, err := unary(ctx, c.listTracks, &Empty{}, "")
	if err != nil {
		return nil, err
	}
	return resp.Tracks, nil
}

// DeleteTrack deletes a track.
func (c *Client) DeleteTrack(ctx context.Context, id string) error {
	_, err := unary(ctx, c.deleteTrack, &DeleteTrackRequest{Id: id}, c.token)
	return err
}

// CreateTrack uploads a track.
func (c *Client) CreateTrack(ctx context.Context, req *CreateTrackRequest) (*Track, error) {
	resp, err := unary(ctx, c.createTrack, req, c.token)
	if err != nil {
		return nil, err
	}
	return resp.Track, nil
}

// Reload re-reads the library and returns the queue length.
func (c *Client) Reload(ctx context.Context) (int32, error) {
	resp, err := unary(ctx, c.reload, &Empty{}, c.token)
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}
