package connect

import (
	"net/http"

	"connectrpc.com/connect"

	playerv1 "github.com/osa030/deckbox/internal/api/playerv1"
	"github.com/osa030/deckbox/internal/app/session"
)

// NewMux registers both services on a new ServeMux. Library mutations
// require token when it is non-empty.
func NewMux(sess *session.Manager, token string) *http.ServeMux {
	mux := http.NewServeMux()

	playerPath, playerHandler := playerv1.NewPlayerServiceHandler(NewPlayerService(sess))
	libraryPath, libraryHandler := playerv1.NewLibraryServiceHandler(
		NewLibraryService(sess),
		connect.WithInterceptors(NewTokenAuthInterceptor(token)),
	)

	mux.Handle(playerPath, playerHandler)
	mux.Handle(libraryPath, libraryHandler)
	return mux
}
