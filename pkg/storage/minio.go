// Package storage provides the blob store backing raw PDF bytes.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"pdf-rag-go/internal/config"
	"pdf-rag-go/pkg/log"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const contentTypePDF = "application/pdf"

// BlobStore is the contract the ingestion pipeline needs from object storage.
type BlobStore interface {
	// PresignedUploadURL returns a URL the client PUTs the PDF bytes to. The
	// signature binds the content type to application/pdf.
	PresignedUploadURL(ctx context.Context, key string) (string, error)
	// GetObject reads the full object into memory.
	GetObject(ctx context.Context, key string) ([]byte, error)
	// ObjectSize returns the object's size in bytes, or nil when the object
	// cannot be stat'ed. Absence is not an error.
	ObjectSize(ctx context.Context, key string) *int64
	// RemoveObject deletes the object.
	RemoveObject(ctx context.Context, key string) error
}

// MinIOStore implements BlobStore on a MinIO (or any S3-compatible) bucket.
type MinIOStore struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
}

// NewMinIOStore builds the client and makes sure the bucket exists.
func NewMinIOStore(cfg config.MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket '%s': %w", cfg.BucketName, err)
	}
	if !exists {
		log.Infof("bucket '%s' does not exist, creating it", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket '%s': %w", cfg.BucketName, err)
		}
	}

	expiry := time.Duration(cfg.URLExpiryHours) * time.Hour
	if expiry <= 0 {
		expiry = time.Hour
	}

	log.Info("MinIO client initialized successfully")
	return &MinIOStore{client: client, bucket: cfg.BucketName, urlExpiry: expiry}, nil
}

// NewObjectKey derives a fresh blob key for an uploaded file. The key is
// uuid-based so filenames never collide inside the bucket; the extension is
// kept for readability.
func NewObjectKey(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		ext = "pdf"
	}
	return fmt.Sprintf("pdfs/%s.%s", uuid.NewString(), ext)
}

// PresignedUploadURL signs a PUT request for the given key.
func (s *MinIOStore) PresignedUploadURL(ctx context.Context, key string) (string, error) {
	headers := http.Header{}
	headers.Set("Content-Type", contentTypePDF)
	u, err := s.client.PresignHeader(ctx, http.MethodPut, s.bucket, key, s.urlExpiry, nil, headers)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload url for '%s': %w", key, err)
	}
	return u.String(), nil
}

// GetObject downloads the object and returns its bytes.
func (s *MinIOStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s': %w", key, err)
	}
	defer object.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(object); err != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, err)
	}
	return buf.Bytes(), nil
}

// ObjectSize stats the object. A failed stat is logged and reported as
// absent, matching the tolerant size lookup during upload confirmation.
func (s *MinIOStore) ObjectSize(ctx context.Context, key string) *int64 {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		log.Warnf("failed to stat object '%s': %v", key, err)
		return nil
	}
	size := info.Size
	return &size
}

// RemoveObject deletes the object from the bucket.
func (s *MinIOStore) RemoveObject(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object '%s': %w", key, err)
	}
	return nil
}
