package archive

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"AgentAction/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const objectPrefix = "badges/"

// MinioArchiver uploads badge PNGs to an S3-compatible bucket.
type MinioArchiver struct {
	client *minio.Client
	bucket string
}

// NewMinioArchiver connects to the object store and creates the bucket if
// it does not exist yet.
func NewMinioArchiver(ctx context.Context, cfg config.MinioConfig, logger *zap.Logger) (*MinioArchiver, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("minio bucket %q exists: %w", cfg.BucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio create bucket %q: %w", cfg.BucketName, err)
		}
		logger.Info("created badge bucket", zap.String("bucket", cfg.BucketName))
	}
	return &MinioArchiver{client: client, bucket: cfg.BucketName}, nil
}

func (m *MinioArchiver) Archive(ctx context.Context, b Badge) error {
	raw, err := base64.StdEncoding.DecodeString(b.Base64)
	if err != nil {
		return fmt.Errorf("decode badge: %w", err)
	}
	_, err = m.client.PutObject(ctx, m.bucket, ObjectKey(b.InvocationID), bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{
			ContentType:  "image/png",
			UserMetadata: map[string]string{"name": b.Name},
		})
	if err != nil {
		return fmt.Errorf("minio put %s: %w", ObjectKey(b.InvocationID), err)
	}
	return nil
}

// ObjectKey is the bucket key for an invocation's badge.
func ObjectKey(invocationID string) string {
	return objectPrefix + invocationID + ".png"
}
