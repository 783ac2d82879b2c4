// File path: internal/artifact/minio.go
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/raglinehq/ragline/internal/common"
)

// MinioBackend stores artifact records in an S3-compatible bucket so
// artifacts survive restarts and are shared across replicas.
type MinioBackend struct {
	client *minio.Client
	bucket string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func LoadMinioConfig() MinioConfig {
	cfg := MinioConfig{
		Endpoint:  strings.TrimSpace(os.Getenv("MINIO_ENDPOINT")),
		AccessKey: strings.TrimSpace(os.Getenv("MINIO_ACCESS_KEY")),
		SecretKey: strings.TrimSpace(os.Getenv("MINIO_SECRET_KEY")),
		Bucket:    strings.TrimSpace(os.Getenv("MINIO_BUCKET")),
		UseSSL:    strings.EqualFold(strings.TrimSpace(os.Getenv("MINIO_USE_SSL")), "true"),
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "ragline-artifacts"
	}
	return cfg
}

func (c MinioConfig) Enabled() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != ""
}

// NewMinioBackend connects to the object store and ensures the bucket
// exists. Connection problems surface here so the caller can fall back to
// the filesystem backend.
func NewMinioBackend(ctx context.Context, cfg MinioConfig) (*MinioBackend, error) {
	if !cfg.Enabled() {
		return nil, errors.New("artifact: minio not configured")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		common.Logger().Info("artifact: bucket created", "bucket", cfg.Bucket)
	}
	return &MinioBackend{client: client, bucket: cfg.Bucket}, nil
}

func (b *MinioBackend) Get(ctx context.Context, contentHash string) (*Record, error) {
	object, err := b.client.GetObject(ctx, b.bucket, ObjectKey(contentHash), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get artifact object: %w", err)
	}
	defer object.Close()
	data, err := io.ReadAll(object)
	if err != nil {
		var minioErr minio.ErrorResponse
		if errors.As(err, &minioErr) && minioErr.Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, contentHash)
		}
		return nil, fmt.Errorf("read artifact object: %w", err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", contentHash, err)
	}
	return &record, nil
}

func (b *MinioBackend) Put(ctx context.Context, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	_, err = b.client.PutObject(ctx, b.bucket, ObjectKey(record.ContentHash), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put artifact object: %w", err)
	}
	return nil
}

func (b *MinioBackend) Name() string { return "minio" }
