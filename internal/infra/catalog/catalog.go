// Package catalog provides track repositories backed by a YAML file, MySQL
// or a Spotify playlist.
package catalog

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/deckbox/internal/app/library"
	"github.com/osa030/deckbox/internal/infra/blob"
	"github.com/osa030/deckbox/internal/infra/config"
)

// New creates the repository selected by cfg.Type. store receives uploads
// for writable repositories.
func New(ctx context.Context, cfg config.LibraryConfig, store blob.Store) (library.Repository, error) {
	switch cfg.Type {
	case "file", "":
		var settings FileSettings
		if err := config.DecodeSettings(cfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "invalid file library settings")
		}
		return NewFile(settings, store), nil
	case "mysql":
		var settings MySQLSettings
		if err := config.DecodeSettings(cfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "invalid mysql library settings")
		}
		return NewMySQL(settings, store)
	case "spotify":
		var settings SpotifySettings
		if err := config.DecodeSettings(cfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "invalid spotify library settings")
		}
		return NewSpotify(ctx, settings)
	default:
		return nil, errors.Newf("unknown library type: %s", cfg.Type)
	}
}
