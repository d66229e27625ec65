package catalog

import (
	"time"

	"github.com/osa030/deckbox/internal/domain/track"
)

// Song is the stored form of a track, shared by the file and MySQL
// catalogs.
type Song struct {
	ID        string    `yaml:"id" gorm:"primaryKey;size:36"`
	Title     string    `yaml:"title" gorm:"size:200;not null"`
	Artist    string    `yaml:"artist,omitempty" gorm:"size:200"`
	Album     string    `yaml:"album,omitempty" gorm:"size:200"`
	Duration  int       `yaml:"duration" gorm:"not null;default:0"` // seconds
	FilePath  string    `yaml:"file_path" gorm:"size:1024;not null"`
	CoverURL  string    `yaml:"cover_url,omitempty" gorm:"size:1024"`
	CreatedAt time.Time `yaml:"created_at" gorm:"index"`
}

// TableName returns the table name for gorm.
func (Song) TableName() string {
	return "songs"
}

func newSong(id string, meta track.Metadata, files uploaded, now time.Time) Song {
	return Song{
		ID:        id,
		Title:     meta.Title,
		Artist:    meta.Artist,
		Album:     meta.Album,
		Duration:  int(meta.Duration.Round(time.Second) / time.Second),
		FilePath:  files.AudioURL,
		CoverURL:  files.CoverURL,
		CreatedAt: now,
	}
}

// Track converts the record, filling artist and album defaults.
func (s Song) Track() track.Track {
	meta := track.Metadata{Title: s.Title, Artist: s.Artist, Album: s.Album}.Normalize()
	return track.Track{
		ID:        s.ID,
		Title:     meta.Title,
		Artist:    meta.Artist,
		Album:     meta.Album,
		Duration:  time.Duration(s.Duration) * time.Second,
		SourceURL: s.FilePath,
		CoverURL:  s.CoverURL,
	}
}

func songsToTracks(songs []Song) []track.Track {
	tracks := make([]track.Track, 0, len(songs))
	for _, s := range songs {
		tracks = append(tracks, s.Track())
	}
	return tracks
}
