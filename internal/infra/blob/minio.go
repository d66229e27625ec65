package blob

import (
	"bytes"
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	zlog "github.com/rs/zerolog/log"
)

// MinioSettings configures the MinIO (S3 compatible) store.
type MinioSettings struct {
	Endpoint  string `mapstructure:"endpoint" validate:"required"`
	AccessKey string `mapstructure:"access_key" validate:"required"`
	SecretKey string `mapstructure:"secret_key" validate:"required"`
	Bucket    string `mapstructure:"bucket" default:"deckbox" validate:"required"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	PublicURL string `mapstructure:"public_url"` // Defaults to the bucket URL on the endpoint
}

func (s MinioSettings) baseURL() string {
	if s.PublicURL != "" {
		return s.PublicURL
	}
	scheme := "http"
	if s.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + s.Endpoint + "/" + s.Bucket
}

// Minio stores blobs in a MinIO bucket.
type Minio struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinio connects to MinIO and creates the bucket when it is missing.
func NewMinio(ctx context.Context, settings MinioSettings) (*Minio, error) {
	client, err := minio.New(settings.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(settings.AccessKey, settings.SecretKey, ""),
		Secure: settings.UseSSL,
		Region: settings.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create minio client")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, settings.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check bucket %s", settings.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, settings.Bucket, minio.MakeBucketOptions{Region: settings.Region}); err != nil {
			return nil, errors.Wrapf(err, "failed to create bucket %s", settings.Bucket)
		}
		zlog.Info().Msgf("blob: created bucket %s", settings.Bucket)
	}

	return &Minio{
		client:  client,
		bucket:  settings.Bucket,
		baseURL: settings.baseURL(),
	}, nil
}

// Put uploads data as an object.
func (m *Minio) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to upload %s", key)
	}
	return joinURL(m.baseURL, key), nil
}

// Remove deletes an object.
func (m *Minio) Remove(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return errors.Wrapf(err, "failed to remove %s", key)
	}
	return nil
}

// KeyFromURL maps an object URL back to its key.
func (m *Minio) KeyFromURL(url string) (string, bool) {
	return keyFromURL(m.baseURL, url)
}
