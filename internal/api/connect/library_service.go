package connect

import (
	"context"

	"connectrpc.com/connect"
	zlog "github.com/rs/zerolog/log"

	playerv1 "github.com/osa030/deckbox/internal/api/playerv1"
	"github.com/osa030/deckbox/internal/app/library"
	"github.com/osa030/deckbox/internal/app/session"
	"github.com/osa030/deckbox/internal/domain/track"
)

// LibraryService implements the LibraryService RPC.
type LibraryService struct {
	session *session.Manager
}

// NewLibraryService creates a new LibraryService.
func NewLibraryService(session *session.Manager) *LibraryService {
	return &LibraryService{session: session}
}

// Ensure LibraryService implements the interface.
var _ playerv1.LibraryServiceHandler = (*LibraryService)(nil)

// ListTracks returns the queued library tracks.
func (s *LibraryService) ListTracks(
	ctx context.Context,
	req *connect.Request[playerv1.Empty],
) (*connect.Response[playerv1.ListTracksResponse], error) {
	return connect.NewResponse(&playerv1.ListTracksResponse{
		Tracks: playerv1.NewTracks(s.session.Library().Tracks()),
	}), nil
}

// DeleteTrack deletes a track from the repository and the queue.
func (s *LibraryService) DeleteTrack(
	ctx context.Context,
	req *connect.Request[playerv1.DeleteTrackRequest],
) (*connect.Response[playerv1.Empty], error) {
	if err := s.session.Library().Delete(ctx, req.Msg.Id); err != nil {
		return nil, toConnectError("DeleteTrack", err)
	}
	return connect.NewResponse(&playerv1.Empty{}), nil
}

// CreateTrack uploads a track and queues it.
func (s *LibraryService) CreateTrack(
	ctx context.Context,
	req *connect.Request[playerv1.CreateTrackRequest],
) (*connect.Response[playerv1.CreateTrackResponse], error) {
	msg := req.Msg
	meta := track.Metadata{
		Title:    msg.Title,
		Artist:   msg.Artist,
		Album:    msg.Album,
		Duration: playerv1.Duration(msg.DurationMs),
	}
	audio := library.Blob{Name: msg.AudioName, ContentType: msg.AudioContentType, Data: msg.Audio}

	var cover *library.Blob
	if len(msg.Cover) > 0 {
		cover = &library.Blob{Name: msg.CoverName, ContentType: msg.CoverContentType, Data: msg.Cover}
	}

	t, err := s.session.Library().Create(ctx, meta, audio, cover)
	if err != nil {
		return nil, toConnectError("CreateTrack", err)
	}
	return connect.NewResponse(&playerv1.CreateTrackResponse{
		Track: playerv1.NewTrack(t),
	}), nil
}

// Reload re-reads the repository into the queue.
func (s *LibraryService) Reload(
	ctx context.Context,
	req *connect.Request[playerv1.Empty],
) (*connect.Response[playerv1.ReloadResponse], error) {
	n, err := s.session.Reload(ctx)
	if err != nil {
		return nil, toConnectError("Reload", err)
	}
	zlog.Info().Msgf("rpc: library reloaded: tracks=%d", n)
	return connect.NewResponse(&playerv1.ReloadResponse{Count: int32(n)}), nil
}
