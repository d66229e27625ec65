package catalog

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/osa030/deckbox/internal/app/library"
	"github.com/osa030/deckbox/internal/domain/track"
	"github.com/osa030/deckbox/internal/infra/blob"
)

// MySQLSettings configures the MySQL catalog.
type MySQLSettings struct {
	DSN          string `mapstructure:"dsn" validate:"required"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
	MaxOpenConns int    `mapstructure:"max_open_conns" default:"10" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" default:"5" validate:"gte=0"`
}

// MySQL is a catalog stored in the songs table.
type MySQL struct {
	db       *gorm.DB
	uploader uploader
}

var _ library.Repository = (*MySQL)(nil)

// NewMySQL connects to MySQL.
func NewMySQL(settings MySQLSettings, store blob.Store) (*MySQL, error) {
	db, err := gorm.Open(mysql.Open(settings.DSN), &gorm.Config{
		Logger: logger.New(gormWriter{}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	sqlDB.SetMaxOpenConns(settings.MaxOpenConns)
	sqlDB.SetMaxIdleConns(settings.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if settings.AutoMigrate {
		if err := db.AutoMigrate(&Song{}); err != nil {
			return nil, errors.Wrap(err, "failed to migrate songs table")
		}
	}

	return NewMySQLWithDB(db, store), nil
}

// NewMySQLWithDB creates a catalog on an open connection.
func NewMySQLWithDB(db *gorm.DB, store blob.Store) *MySQL {
	return &MySQL{
		db:       db,
		uploader: uploader{store: store, now: time.Now},
	}
}

// List returns all tracks, newest first.
func (m *MySQL) List(ctx context.Context) ([]track.Track, error) {
	var songs []Song
	if err := m.db.WithContext(ctx).Order("created_at DESC").Find(&songs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query songs")
	}
	return songsToTracks(songs), nil
}

// Create uploads the blobs and inserts the row. The blobs are removed again
// when the insert fails.
func (m *MySQL) Create(ctx context.Context, meta track.Metadata, audio library.Blob, cover *library.Blob) (track.Track, error) {
	now := m.uploader.now()
	files, err := m.uploader.upload(ctx, now, audio, cover)
	if err != nil {
		return track.Track{}, err
	}

	song := newSong(uuid.NewString(), meta, files, now)
	if err := m.db.WithContext(ctx).Create(&song).Error; err != nil {
		m.uploader.discard(ctx, files)
		return track.Track{}, errors.Wrap(err, "failed to insert song")
	}
	return song.Track(), nil
}

// Delete removes the row, then its blobs on a best-effort basis.
func (m *MySQL) Delete(ctx context.Context, id string) error {
	var song Song
	err := m.db.WithContext(ctx).Where("id = ?", id).First(&song).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrapf(library.ErrTrackNotFound, "id=%s", id)
		}
		return errors.Wrap(err, "failed to query song")
	}

	if err := m.db.WithContext(ctx).Where("id = ?", id).Delete(&Song{}).Error; err != nil {
		return errors.Wrap(err, "failed to delete song")
	}
	m.uploader.removeURLs(ctx, song.FilePath, song.CoverURL)
	return nil
}

// Close closes the database connection.
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormWriter forwards gorm logs to zerolog.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	zlog.Warn().Msgf("catalog: "+format, args...)
}
