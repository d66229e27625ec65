package catalog

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/deckbox/internal/app/library"
	"github.com/osa030/deckbox/internal/domain/track"
	"github.com/osa030/deckbox/internal/infra/spotify"
)

// SpotifySettings configures the Spotify playlist catalog.
type SpotifySettings struct {
	ClientID     string `mapstructure:"client_id" validate:"required"`
	ClientSecret string `mapstructure:"client_secret" validate:"required"`
	RefreshToken string `mapstructure:"refresh_token" validate:"required"`
	Playlist     string `mapstructure:"playlist" validate:"required"`
	Market       string `mapstructure:"market" default:"JP" validate:"len=2"`
}

// PlaylistSource reads playlist tracks.
type PlaylistSource interface {
	GetPlaylistTracks(ctx context.Context, playlistURL string) ([]track.Track, error)
}

// Spotify is a read-only catalog listing a Spotify playlist.
type Spotify struct {
	source   PlaylistSource
	playlist string
}

var _ library.Repository = (*Spotify)(nil)

// NewSpotify connects to Spotify and checks that the playlist is readable.
func NewSpotify(ctx context.Context, settings SpotifySettings) (*Spotify, error) {
	client, err := spotify.New(ctx, spotify.Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		RefreshToken: settings.RefreshToken,
		Market:       settings.Market,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create spotify client")
	}
	if err := client.CheckPlaylistExists(ctx, settings.Playlist); err != nil {
		return nil, err
	}
	return NewSpotifyWithSource(client, settings.Playlist), nil
}

// NewSpotifyWithSource creates a catalog reading playlist from source.
func NewSpotifyWithSource(source PlaylistSource, playlist string) *Spotify {
	return &Spotify{source: source, playlist: playlist}
}

// List returns the playlist tracks that have a preview clip.
func (s *Spotify) List(ctx context.Context) ([]track.Track, error) {
	tracks, err := s.source.GetPlaylistTracks(ctx, s.playlist)
	if err != nil {
		return nil, err
	}
	return dedupe(tracks), nil
}

// Create is not supported.
func (s *Spotify) Create(context.Context, track.Metadata, library.Blob, *library.Blob) (track.Track, error) {
	return track.Track{}, library.ErrReadOnly
}

// Delete is not supported.
func (s *Spotify) Delete(context.Context, string) error {
	return library.ErrReadOnly
}

// dedupe drops repeated playlist entries; the queue requires unique IDs.
func dedupe(tracks []track.Track) []track.Track {
	seen := make(map[string]bool, len(tracks))
	out := make([]track.Track, 0, len(tracks))
	for _, t := range tracks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}
