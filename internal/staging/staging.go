// Package staging stores ephemeral NDJSON batch artifacts in S3-compatible
// object storage. Artifacts are write-once-read-once: one sync cycle creates
// an object, the warehouse load job consumes it, and the cycle removes it.
package staging

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/config"
)

// ContentType is the media type of staged batch artifacts.
const ContentType = "application/x-ndjson"

// ObjectStore writes and removes staged batch artifacts.
type ObjectStore interface {
	// Put uploads data under key with the NDJSON content type.
	Put(ctx context.Context, key string, data []byte) error

	// Remove deletes the object under key. Removing a missing object is not
	// an error.
	Remove(ctx context.Context, key string) error
}

// s3Client defines the minimal minio.Client operations used by S3Store.
// This interface enables testing with mock implementations.
type s3Client interface {
	PutObject(ctx context.Context, bucket, key string, reader *bytes.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
}

// minioClientWrapper adapts *minio.Client to s3Client. minio.Client takes an
// io.Reader; the narrower *bytes.Reader keeps mocks trivial.
type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) PutObject(ctx context.Context, bucket, key string, reader *bytes.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.client.PutObject(ctx, bucket, key, reader, size, opts)
}

func (w *minioClientWrapper) RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error {
	return w.client.RemoveObject(ctx, bucket, key, opts)
}

// S3Store stages artifacts in an S3-compatible bucket.
type S3Store struct {
	client s3Client
	bucket string
}

// NewObjectStore creates an S3Store from configuration.
func NewObjectStore(cfg config.StagingConfig) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("staging bucket not configured")
	}

	useSSL := true
	if cfg.UseSSL != nil {
		useSSL = *cfg.UseSSL
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Store{
		client: &minioClientWrapper{client: client},
		bucket: cfg.Bucket,
	}, nil
}

// Put uploads a staged artifact.
func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	opts := minio.PutObjectOptions{ContentType: ContentType}
	if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return fmt.Errorf("upload staged artifact: %w", err)
	}
	return nil
}

// Remove deletes a staged artifact.
func (s *S3Store) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove staged artifact: %w", err)
	}
	return nil
}

// BatchKey returns a unique object key for one sync cycle's artifact.
// Convention: staging/{table}/{timestamp}-{uuid}.ndjson
func BatchKey(table string, now time.Time) string {
	return fmt.Sprintf("staging/%s/%s-%s.ndjson", table, now.UTC().Format("20060102T150405Z"), uuid.NewString())
}
