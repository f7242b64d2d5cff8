package staging

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
)

// mockS3Client records uploads and removals.
type mockS3Client struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
	rmErr   error
}

func newMockS3Client() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *mockS3Client) PutObject(ctx context.Context, bucket, key string, reader *bytes.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if m.putErr != nil {
		return minio.UploadInfo{}, m.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	m.objects[key] = data
	m.types[key] = opts.ContentType
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func (m *mockS3Client) RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error {
	if m.rmErr != nil {
		return m.rmErr
	}
	delete(m.objects, key)
	return nil
}

func TestPut_UploadsNDJSONContentType(t *testing.T) {
	client := newMockS3Client()
	s := &S3Store{client: client, bucket: "staging"}

	data := []byte(`{"order_id":"order-1"}` + "\n")
	if err := s.Put(context.Background(), "staging/orders/test.ndjson", data); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if got := client.objects["staging/orders/test.ndjson"]; !bytes.Equal(got, data) {
		t.Errorf("stored data = %q", got)
	}
	if got := client.types["staging/orders/test.ndjson"]; got != ContentType {
		t.Errorf("content type = %q, want %q", got, ContentType)
	}
}

func TestPut_Error(t *testing.T) {
	client := newMockS3Client()
	client.putErr = errors.New("connection refused")
	s := &S3Store{client: client, bucket: "staging"}

	if err := s.Put(context.Background(), "key", []byte("data")); err == nil {
		t.Error("Put with failing client succeeded, want error")
	}
}

func TestRemove(t *testing.T) {
	client := newMockS3Client()
	client.objects["key"] = []byte("data")
	s := &S3Store{client: client, bucket: "staging"}

	if err := s.Remove(context.Background(), "key"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok := client.objects["key"]; ok {
		t.Error("object still present after Remove")
	}
}

func TestBatchKey_UniqueAndWellFormed(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	a := BatchKey("orders", now)
	b := BatchKey("orders", now)

	if a == b {
		t.Errorf("two keys for the same instant collide: %q", a)
	}
	if !strings.HasPrefix(a, "staging/orders/20260310T143000Z-") {
		t.Errorf("key = %q, want timestamped staging/orders/ prefix", a)
	}
	if !strings.HasSuffix(a, ".ndjson") {
		t.Errorf("key = %q, want .ndjson suffix", a)
	}
}
