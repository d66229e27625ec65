package blob

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// LocalSettings configures the local directory store.
type LocalSettings struct {
	Dir     string `mapstructure:"dir" default:"./media" validate:"required"`
	BaseURL string `mapstructure:"base_url" default:"/media" validate:"required"`
}

// Local stores blobs in a directory served under BaseURL.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal creates a local store, creating the directory if needed.
func NewLocal(settings LocalSettings) (*Local, error) {
	if err := os.MkdirAll(settings.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create storage directory")
	}
	return &Local{dir: settings.Dir, baseURL: settings.BaseURL}, nil
}

// Dir returns the storage directory.
func (l *Local) Dir() string {
	return l.dir
}

// BaseURL returns the public URL prefix.
func (l *Local) BaseURL() string {
	return l.baseURL
}

// Put writes data to dir/key.
func (l *Local) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	p := filepath.Join(l.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create blob directory")
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write blob %s", key)
	}
	return joinURL(l.baseURL, key), nil
}

// Remove deletes dir/key.
func (l *Local) Remove(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(l.dir, filepath.FromSlash(key))); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove blob %s", key)
	}
	return nil
}

// KeyFromURL maps a URL under BaseURL back to its key.
func (l *Local) KeyFromURL(url string) (string, bool) {
	return keyFromURL(l.baseURL, url)
}
