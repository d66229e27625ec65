package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/deckbox/internal/app/library"
	"github.com/osa030/deckbox/internal/app/playback"
	"github.com/osa030/deckbox/internal/domain/queue"
	"github.com/osa030/deckbox/internal/domain/track"
)

// toConnectError maps service errors onto Connect codes.
func toConnectError(procedure string, err error) error {
	code := connect.CodeUnavailable
	switch {
	case errors.Is(err, library.ErrTrackNotFound), errors.Is(err, queue.ErrTrackNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, track.ErrInvalidMetadata),
		errors.Is(err, library.ErrEmptyAudio),
		errors.Is(err, queue.ErrInvalidIndex):
		code = connect.CodeInvalidArgument
	case errors.Is(err, queue.ErrDuplicateTrack):
		code = connect.CodeAlreadyExists
	case errors.Is(err, library.ErrReadOnly):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	case errors.Is(err, playback.ErrClosed):
		code = connect.CodeUnavailable
	}

	if code == connect.CodeUnavailable {
		zlog.Error().Err(err).Msgf("rpc: %s failed", procedure)
	} else {
		zlog.Debug().Err(err).Msgf("rpc: %s rejected: code=%s", procedure, code)
	}
	return connect.NewError(code, err)
}
