// Package publish uploads finished artifacts to S3-compatible object storage
// and mints presigned download links.
package publish

import (
	"bytes"
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"clipforge/internal/config"
	"clipforge/internal/services"
)

// SignedURLTTL is how long published download links stay valid.
const SignedURLTTL = 7 * 24 * time.Hour

// ContentType infers the MIME type for an object key from its extension.
func ContentType(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".mp4":
		return "video/mp4"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// Publisher stores artifacts in a single bucket.
type Publisher struct {
	client *minio.Client
	bucket string
}

// New connects to the configured object storage endpoint.
func New(cfg *config.Config) (*Publisher, error) {
	client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
		Region: cfg.Storage.Region,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "connect", "build storage client", err)
	}
	return &Publisher{client: client, bucket: cfg.Storage.Bucket}, nil
}

// Upload stores data under the object key, inferring the content type from
// the key's extension, and returns the storage key.
func (p *Publisher) Upload(ctx context.Context, key string, data []byte) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", services.Wrap(services.ErrValidation, "publish", "upload", "object key required", nil)
	}
	_, err := p.client.PutObject(ctx, p.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ContentType(key),
	})
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "publish", "upload", "store object "+key, err)
	}
	return key, nil
}

// SignedURL mints a presigned GET link for a stored object.
func (p *Publisher) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = SignedURLTTL
	}
	signed, err := p.client.PresignedGetObject(ctx, p.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "publish", "sign", "presign object "+key, err)
	}
	return signed.String(), nil
}
