package connect

import (
	"context"
	"crypto/subtle"

	"connectrpc.com/connect"

	playerv1 "github.com/osa030/deckbox/internal/api/playerv1"
)

// mutations are the procedures guarded by the player token.
var mutations = map[string]bool{
	playerv1.LibraryServiceDeleteTrackProcedure: true,
	playerv1.LibraryServiceCreateTrackProcedure: true,
	playerv1.LibraryServiceReloadProcedure:      true,
}

// NewTokenAuthInterceptor creates an interceptor that validates the player
// token on library mutations. An empty token disables the check.
func NewTokenAuthInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token == "" || !mutations[req.Spec().Procedure] {
				return next(ctx, req)
			}

			got := req.Header().Get(playerv1.TokenHeader)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return nil, connect.NewError(connect.CodeUnauthenticated, nil)
			}
			return next(ctx, req)
		}
	}
}
