package playerv1

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

const (
	// PlayerServiceName is the fully-qualified name of the PlayerService service.
	PlayerServiceName = "deckbox.player.v1.PlayerService"
	// LibraryServiceName is the fully-qualified name of the LibraryService service.
	LibraryServiceName = "deckbox.player.v1.LibraryService"
)

// Procedure paths.
const (
	PlayerServiceGetStateProcedure      = "/deckbox.player.v1.PlayerService/GetState"
	PlayerServicePlayPauseProcedure     = "/deckbox.player.v1.PlayerService/PlayPause"
	PlayerServiceNextProcedure          = "/deckbox.player.v1.PlayerService/Next"
	PlayerServicePreviousProcedure      = "/deckbox.player.v1.PlayerService/Previous"
	PlayerServiceSeekProcedure          = "/deckbox.player.v1.PlayerService/Seek"
	PlayerServiceSetVolumeProcedure     = "/deckbox.player.v1.PlayerService/SetVolume"
	PlayerServiceToggleMuteProcedure    = "/deckbox.player.v1.PlayerService/ToggleMute"
	PlayerServiceToggleShuffleProcedure = "/deckbox.player.v1.PlayerService/ToggleShuffle"
	PlayerServiceCycleRepeatProcedure   = "/deckbox.player.v1.PlayerService/CycleRepeat"
	PlayerServiceToggleLikeProcedure    = "/deckbox.player.v1.PlayerService/ToggleLike"
	PlayerServiceSelectProcedure        = "/deckbox.player.v1.PlayerService/Select"
	PlayerServiceWatchProcedure         = "/deckbox.player.v1.PlayerService/Watch"

	LibraryServiceListTracksProcedure  = "/deckbox.player.v1.LibraryService/ListTracks"
	LibraryServiceDeleteTrackProcedure = "/deckbox.player.v1.LibraryService/DeleteTrack"
	LibraryServiceCreateTrackProcedure = "/deckbox.player.v1.LibraryService/CreateTrack"
	LibraryServiceReloadProcedure      = "/deckbox.player.v1.LibraryService/Reload"
)

// PlayerServiceHandler is implemented by the player service.
type PlayerServiceHandler interface {
	GetState(context.Context, *connect.Request[Empty]) (*connect.Response[StateResponse], error)
	PlayPause(context.Context, *connect.Request[Empty]) (*connect.Response[StateResponse], error)
	Next(context.Context, *connect.Request[Empty]) (*connect.Response[StateResponse], error)
	Previous(context.Context, *connect.Request[Empty]) (*connect.Response[StateResponse], error)
	Seek(context.Context, *connect.Request[SeekRequest]) (*connect.Response[StateResponse], error)
	SetVolume(context.Context, *connect.Request[SetVolumeRequest]) (*connect.Response[StateResponse], error)
	ToggleMute(context.Context, *connect.Request[Empty]) (*connect.Response[StateResponse], error)
	ToggleShuffle(context.Context, *connect.Request[Empty]) (*connect.Response[StateResponse], error)
	CycleRepeat(context.Context, *connect.Request[Empty]) (*connect.Response[StateResponse], error)
	ToggleLike(context.Context, *connect.Request[Empty]) (*connect.Response[StateResponse], error)
	Select(context.Context, *connect.Request[SelectRequest]) (*connect.Response[StateResponse], error)
	Watch(context.Context, *connect.Request[Empty], *connect.ServerStream[Notification]) error
}

// LibraryServiceHandler is implemented by the library service.
type LibraryServiceHandler interface {
	ListTracks(context.Context, *connect.Request[Empty]) (*connect.Response[ListTracksResponse], error)
	DeleteTrack(context.Context, *connect.Request[DeleteTrackRequest]) (*connect.Response[Empty], error)
	CreateTrack(context.Context, *connect.Request[CreateTrackRequest]) (*connect.Response[CreateTrackResponse], error)
	Reload(context.Context, *connect.Request[Empty]) (*connect.Response[ReloadResponse], error)
}

// NewPlayerServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler.
func NewPlayerServiceHandler(svc PlayerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
	handlers := map[string]http.Handler{
		PlayerServiceGetStateProcedure:      connect.NewUnaryHandler(PlayerServiceGetStateProcedure, svc.GetState, opts...),
		PlayerServicePlayPauseProcedure:     connect.NewUnaryHandler(PlayerServicePlayPauseProcedure, svc.PlayPause, opts...),
		PlayerServiceNextProcedure:          connect.NewUnaryHandler(PlayerServiceNextProcedure, svc.Next, opts...),
		PlayerServicePreviousProcedure:      connect.NewUnaryHandler(PlayerServicePreviousProcedure, svc.Previous, opts...),
		PlayerServiceSeekProcedure:          connect.NewUnaryHandler(PlayerServiceSeekProcedure, svc.Seek, opts...),
		PlayerServiceSetVolumeProcedure:     connect.NewUnaryHandler(PlayerServiceSetVolumeProcedure, svc.SetVolume, opts...),
		PlayerServiceToggleMuteProcedure:    connect.NewUnaryHandler(PlayerServiceToggleMuteProcedure, svc.ToggleMute, opts...),
		PlayerServiceToggleShuffleProcedure: connect.NewUnaryHandler(PlayerServiceToggleShuffleProcedure, svc.ToggleShuffle, opts...),
		PlayerServiceCycleRepeatProcedure:   connect.NewUnaryHandler(PlayerServiceCycleRepeatProcedure, svc.CycleRepeat, opts...),
		PlayerServiceToggleLikeProcedure:    connect.NewUnaryHandler(PlayerServiceToggleLikeProcedure, svc.ToggleLike, opts...),
		PlayerServiceSelectProcedure:        connect.NewUnaryHandler(PlayerServiceSelectProcedure, svc.Select, opts...),
		PlayerServiceWatchProcedure:         connect.NewServerStreamHandler(PlayerServiceWatchProcedure, svc.Watch, opts...),
	}
	return "/" + PlayerServiceName + "/", routes(handlers)
}

// NewLibraryServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler.
func NewLibraryServiceHandler(svc LibraryServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
	handlers := map[string]http.Handler{
		LibraryServiceListTracksProcedure:  connect.NewUnaryHandler(LibraryServiceListTracksProcedure, svc.ListTracks, opts...),
		LibraryServiceDeleteTrackProcedure: connect.NewUnaryHandler(LibraryServiceDeleteTrackProcedure, svc.DeleteTrack, opts...),
		LibraryServiceCreateTrackProcedure: connect.NewUnaryHandler(LibraryServiceCreateTrackProcedure, svc.CreateTrack, opts...),
		LibraryServiceReloadProcedure:      connect.NewUnaryHandler(LibraryServiceReloadProcedure, svc.Reload, opts...),
	}
	return "/" + LibraryServiceName + "/", routes(handlers)
}

func routes(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
