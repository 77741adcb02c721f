package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"comment-tree-go/internal/config"
	"comment-tree-go/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Init 初始化 MinIO 客户端并确保导出 Bucket 存在
func Init(cfg *config.MinIOConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.ExportBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.ExportBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.ExportBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.ExportBucket, err)
		}
		logger.Info("MinIO bucket created", zap.String("bucket", cfg.ExportBucket))
	}

	logger.Info("MinIO connected",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("export_bucket", cfg.ExportBucket),
	)

	return client, nil
}

// ExportStore 评论导出文件存储
type ExportStore struct {
	client *minio.Client
	bucket string
}

func NewExportStore(client *minio.Client, bucket string) *ExportStore {
	return &ExportStore{client: client, bucket: bucket}
}

// Bucket 导出文件所在 Bucket
func (s *ExportStore) Bucket() string {
	return s.bucket
}

// Upload 上传导出文件，返回对象名
func (s *ExportStore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to minio: %w", err)
	}
	return objectName, nil
}

// PresignedURL 生成预签名下载 URL
func (s *ExportStore) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", path.Base(objectName)))
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned url: %w", err)
	}
	return presignedURL.String(), nil
}
