package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"leasehub/internal/domain/shared/errs"
)

// objectWriter is the subset of *minio.Client the archive uses.
type objectWriter interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Archive writes JSON snapshots into a private S3-compatible bucket.
type Archive struct {
	bucket         string
	client         objectWriter
	logger         *slog.Logger
	bucketInitOnce sync.Once
	bucketInitErr  error
}

func NewArchive(endpoint string, useSSL bool, accessKey, secretKey, bucket string, logger *slog.Logger) (*Archive, error) {
	cleanEndpoint := strings.TrimSpace(endpoint)
	if cleanEndpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	client, err := minio.New(parseEndpoint(cleanEndpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(accessKey), strings.TrimSpace(secretKey), ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	return &Archive{bucket: bucket, client: client, logger: logger}, nil
}

// Archive stores snapshot as JSON under key. Any failure is a storage error
// so the caller's unit of work is abandoned.
func (a *Archive) Archive(ctx context.Context, key string, snapshot any) error {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return errs.Validation("archive key is required")
	}
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("s3: encode snapshot: %w", err)
	}
	if err := a.ensureBucket(ctx); err != nil {
		return errs.Storage(err)
	}
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return errs.Storage(fmt.Errorf("s3: put object: %w", err))
	}
	if a.logger != nil {
		a.logger.Info("snapshot archived", "bucket", a.bucket, "key", key, "bytes", len(body))
	}
	return nil
}

func (a *Archive) ensureBucket(ctx context.Context) error {
	a.bucketInitOnce.Do(func() {
		exists, err := a.client.BucketExists(ctx, a.bucket)
		if err != nil {
			a.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			a.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
		}
	})
	return a.bucketInitErr
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}
