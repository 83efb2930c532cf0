// Package storage uploads backup snapshots to S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"upfitter/showroom/internal/config"
	"upfitter/showroom/internal/logging"
)

// MinIOStorage writes objects into one bucket.
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIOStorage creates the client and the bucket when it does not exist.
func NewMinIOStorage(ctx context.Context, cfg config.BackupConfig) (*MinIOStorage, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.S3Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinIOStorage{client: client, bucket: cfg.S3Bucket}, nil
}

// UploadFile stores one local file under key.
func (s *MinIOStorage) UploadFile(ctx context.Context, key, path string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, key, path, minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// UploadDir stores every regular file directly inside dir under
// prefix/<file name> and returns the keys written, sorted.
func (s *MinIOStorage) UploadDir(ctx context.Context, dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var keys []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		key := prefix + "/" + e.Name()
		if err := s.UploadFile(ctx, key, filepath.Join(dir, e.Name())); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	logging.Info("Backup uploaded", "bucket", s.bucket, "prefix", prefix, "objects", len(keys))
	return keys, nil
}

// FetchFile downloads key into path.
func (s *MinIOStorage) FetchFile(ctx context.Context, key, path string) error {
	if err := s.client.FGetObject(ctx, s.bucket, key, path, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("failed to download %s: %w", key, err)
	}
	return nil
}
