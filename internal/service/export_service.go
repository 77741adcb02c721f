package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"comment-tree-go/internal/api/dto"
	"comment-tree-go/internal/repository"
	"comment-tree-go/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	exportBatchSize = 500
	exportURLExpiry = time.Hour
)

// ObjectStore 导出文件存储（minio）
type ObjectStore interface {
	Bucket() string
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

type ExportService struct {
	commentRepo *repository.CommentRepository
	store       ObjectStore
}

func NewExportService(commentRepo *repository.CommentRepository, store ObjectStore) *ExportService {
	return &ExportService{commentRepo: commentRepo, store: store}
}

// ExportPost 将帖子全部评论按先序顺序导出为 JSONL 并上传
func (s *ExportService) ExportPost(ctx context.Context, postID int64) (*dto.CommentExportData, error) {
	var (
		buf    bytes.Buffer
		count  int64
		cursor string
	)
	enc := json.NewEncoder(&buf)

	for {
		batch, err := s.commentRepo.ListByPath(ctx, postID, cursor, exportBatchSize)
		if err != nil {
			return nil, storageFailure(err)
		}
		for i := range batch {
			if err := enc.Encode(toCommentInfo(&batch[i])); err != nil {
				return nil, fmt.Errorf("encode comment %d: %w", batch[i].ID, err)
			}
		}
		count += int64(len(batch))
		if len(batch) < exportBatchSize {
			break
		}
		cursor = batch[len(batch)-1].Path
	}

	objectName := fmt.Sprintf("post-%d/%s-%s.jsonl", postID, time.Now().Format("20060102150405"), uuid.NewString()[:8])
	if _, err := s.store.Upload(ctx, objectName, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "application/x-ndjson"); err != nil {
		return nil, storageFailure(err)
	}

	url, err := s.store.PresignedURL(ctx, objectName, exportURLExpiry)
	if err != nil {
		return nil, storageFailure(err)
	}

	logger.Info("Comments exported",
		zap.Int64("post_id", postID),
		zap.Int64("count", count),
		zap.String("object", objectName),
	)

	return &dto.CommentExportData{
		Bucket:   s.store.Bucket(),
		Object:   objectName,
		Count:    count,
		URL:      url,
		ExpireAt: time.Now().Add(exportURLExpiry).Unix(),
	}, nil
}
