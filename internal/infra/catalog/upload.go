package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/deckbox/internal/app/library"
	"github.com/osa030/deckbox/internal/infra/blob"
)

// uploader stores track blobs under timestamped keys.
type uploader struct {
	store blob.Store
	now   func() time.Time
}

type uploaded struct {
	AudioURL string
	CoverURL string
	keys     []string
}

func audioKey(ts int64, audio library.Blob) string {
	return fmt.Sprintf("audio/%d-%s", ts, audio.BaseName())
}

func coverKey(ts int64, cover library.Blob) string {
	return fmt.Sprintf("covers/%d-cover-%s", ts, cover.BaseName())
}

// upload stores the audio file and, if given, the cover. A failed cover
// upload is logged and the track continues without a cover.
func (u uploader) upload(ctx context.Context, now time.Time, audio library.Blob, cover *library.Blob) (uploaded, error) {
	if u.store == nil {
		return uploaded{}, errors.New("no blob store configured")
	}
	ts := now.UnixMilli()

	key := audioKey(ts, audio)
	url, err := u.store.Put(ctx, key, audio.Data, audio.ContentType)
	if err != nil {
		return uploaded{}, errors.Wrap(err, "failed to upload audio")
	}
	res := uploaded{AudioURL: url, keys: []string{key}}

	if cover != nil {
		key := coverKey(ts, *cover)
		url, err := u.store.Put(ctx, key, cover.Data, cover.ContentType)
		if err != nil {
			zlog.Warn().Err(err).Msgf("catalog: cover upload failed, continuing without cover: %s", cover.Name)
		} else {
			res.CoverURL = url
			res.keys = append(res.keys, key)
		}
	}
	return res, nil
}

// discard removes blobs of a track whose metadata could not be stored.
func (u uploader) discard(ctx context.Context, res uploaded) {
	for _, key := range res.keys {
		if err := u.store.Remove(ctx, key); err != nil {
			zlog.Warn().Err(err).Msgf("catalog: failed to remove orphaned blob %s", key)
		}
	}
}

// removeURLs removes the blobs behind urls that belong to the store.
// Foreign URLs are left alone.
func (u uploader) removeURLs(ctx context.Context, urls ...string) {
	if u.store == nil {
		return
	}
	for _, url := range urls {
		if url == "" {
			continue
		}
		key, ok := u.store.KeyFromURL(url)
		if !ok {
			continue
		}
		if err := u.store.Remove(ctx, key); err != nil {
			zlog.Warn().Err(err).Msgf("catalog: failed to remove blob %s", key)
		}
	}
}
