package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JaimeStill/vera/pkg/lifecycle"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type objectStore struct {
	client *minio.Client
	bucket string
	region string
	logger *slog.Logger
}

func newMinIO(cfg *MinIOConfig, logger *slog.Logger) (*objectStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &objectStore{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		logger: logger.With("system", "storage", "backend", BackendMinIO),
	}, nil
}

func (o *objectStore) Start(lc *lifecycle.Coordinator) error {
	o.logger.Info("starting storage system", "bucket", o.bucket)

	lc.OnStartup(func() {
		ctx, cancel := context.WithTimeout(lc.Context(), 10*time.Second)
		defer cancel()

		exists, err := o.client.BucketExists(ctx, o.bucket)
		if err != nil {
			o.logger.Error("bucket check failed", "error", err)
			return
		}
		if exists {
			o.logger.Info("bucket ready")
			return
		}

		if err := o.client.MakeBucket(ctx, o.bucket, minio.MakeBucketOptions{Region: o.region}); err != nil {
			o.logger.Error("bucket creation failed", "error", err)
			return
		}
		o.logger.Info("bucket created")
	})

	return nil
}

func (o *objectStore) Store(ctx context.Context, key string, data []byte) error {
	key, err := objectKey(key)
	if err != nil {
		return err
	}

	_, err = o.client.PutObject(ctx, o.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: http.DetectContentType(data),
	})
	if err != nil {
		return mapObjectError(err, "put object")
	}
	return nil
}

func (o *objectStore) Retrieve(ctx context.Context, key string) ([]byte, error) {
	key, err := objectKey(key)
	if err != nil {
		return nil, err
	}

	obj, err := o.client.GetObject(ctx, o.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapObjectError(err, "get object")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapObjectError(err, "read object")
	}
	return data, nil
}

func (o *objectStore) Delete(ctx context.Context, key string) error {
	key, err := objectKey(key)
	if err != nil {
		return err
	}

	if err := o.client.RemoveObject(ctx, o.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		mapped := mapObjectError(err, "remove object")
		if mapped == ErrNotFound {
			return nil
		}
		return mapped
	}
	return nil
}

func (o *objectStore) Validate(ctx context.Context, key string) (bool, error) {
	key, err := objectKey(key)
	if err != nil {
		return false, err
	}

	if _, err := o.client.StatObject(ctx, o.bucket, key, minio.StatObjectOptions{}); err != nil {
		mapped := mapObjectError(err, "stat object")
		if mapped == ErrNotFound {
			return false, nil
		}
		return false, mapped
	}
	return true, nil
}

// objectKey normalizes key to a bucket-relative object name.
func objectKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if !validKey(key) {
		return "", ErrInvalidKey
	}
	for part := range strings.SplitSeq(key, "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	return key, nil
}

func mapObjectError(err error, op string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject":
		return ErrNotFound
	case "AccessDenied":
		return ErrPermissionDenied
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
