// Package blob provides storage for uploaded audio and cover files.
package blob

import (
	"context"
	"path"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/deckbox/internal/infra/config"
)

// Errors
var (
	ErrInvalidKey = errors.New("invalid blob key")
)

// Store stores blobs under slash-separated keys.
type Store interface {
	// Put stores data under key and returns its public URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Remove deletes the blob. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// KeyFromURL maps a URL returned by Put back to its key.
	KeyFromURL(url string) (string, bool)
}

// New creates the store selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "local", "":
		var settings LocalSettings
		if err := config.DecodeSettings(cfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "invalid local storage settings")
		}
		return NewLocal(settings)
	case "minio":
		var settings MinioSettings
		if err := config.DecodeSettings(cfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "invalid minio storage settings")
		}
		return NewMinio(ctx, settings)
	default:
		return nil, errors.Newf("unknown storage type: %s", cfg.Type)
	}
}

// cleanKey rejects keys that escape the store root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != key {
		return "", errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

func keyFromURL(base, url string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if _, err := cleanKey(key); err != nil {
		return "", false
	}
	return key, true
}
