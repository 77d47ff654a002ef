package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"filerapi/internal/config"
)

// minioTier implements Tier on an S3-compatible backend (MinIO, AWS S3).
// Blobs have no filesystem identity, so AbsolutePath is always empty and
// accelerated-sendfile delivery cannot be used with this tier.
type minioTier struct {
	name   string
	client *minio.Client
	bucket string
}

// NewMinioTiers builds the public/private tier pair on one S3 endpoint with
// a bucket per tier. Buckets are created when missing.
func NewMinioTiers(cfg config.MinIOConfig) (Tiers, error) {
	if cfg.Endpoint == "" {
		return Tiers{}, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return Tiers{}, fmt.Errorf("minio credentials are required")
	}
	if cfg.PublicBucket == "" || cfg.PrivateBucket == "" {
		return Tiers{}, fmt.Errorf("minio public and private buckets are required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return Tiers{}, fmt.Errorf("create minio client: %w", err)
	}

	for _, bucket := range []string{cfg.PublicBucket, cfg.PrivateBucket} {
		if err := ensureBucket(cli, bucket); err != nil {
			return Tiers{}, err
		}
	}

	return Tiers{
		Public:  &minioTier{name: "public", client: cli, bucket: cfg.PublicBucket},
		Private: &minioTier{name: "private", client: cli, bucket: cfg.PrivateBucket},
	}, nil
}

func ensureBucket(cli *minio.Client, bucket string) error {
	ctx := context.Background()
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

func (t *minioTier) Name() string { return t.name }

func (t *minioTier) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	obj, err := t.client.GetObject(ctx, t.bucket, p, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat forces the first request so a missing key is
	// reported here and not on the first Read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%s: %w", p, ErrNotExist)
		}
		return nil, err
	}
	return obj, nil
}

func (t *minioTier) Save(ctx context.Context, p string, r io.Reader, size int64) (string, error) {
	actual := p
	for {
		exists, err := t.Exists(ctx, actual)
		if err != nil {
			return "", err
		}
		if !exists {
			break
		}
		actual = alternateName(p)
	}
	if _, err := t.client.PutObject(ctx, t.bucket, actual, r, size, minio.PutObjectOptions{}); err != nil {
		return "", err
	}
	return actual, nil
}

func (t *minioTier) Delete(ctx context.Context, p string) error {
	return t.client.RemoveObject(ctx, t.bucket, p, minio.RemoveObjectOptions{})
}

func (t *minioTier) Exists(ctx context.Context, p string) (bool, error) {
	_, err := t.client.StatObject(ctx, t.bucket, p, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (t *minioTier) Size(ctx context.Context, p string) (int64, error) {
	st, err := t.client.StatObject(ctx, t.bucket, p, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return 0, fmt.Errorf("%s: %w", p, ErrNotExist)
		}
		return 0, err
	}
	return st.Size, nil
}

func (t *minioTier) URL(p string) string {
	u := *t.client.EndpointURL()
	u.Path = "/" + t.bucket + "/" + strings.TrimLeft(p, "/")
	return u.String()
}

func (t *minioTier) AbsolutePath(string) string { return "" }

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
	}
	return false
}
