package service

import (
	"context"
	"time"

	infraKafka "comment-tree-go/internal/infra/kafka"
	"comment-tree-go/internal/model"
	"comment-tree-go/pkg/logger"

	"go.uber.org/zap"
)

// IndexWriter 评论索引写入端
type IndexWriter interface {
	IndexComment(ctx context.Context, comment *model.Comment) error
	DeleteSubtree(ctx context.Context, postID int64, path string) (int64, error)
}

// IndexerService 消费评论事件并同步到搜索索引
type IndexerService struct {
	index IndexWriter
}

func NewIndexerService(index IndexWriter) *IndexerService {
	return &IndexerService{index: index}
}

// HandleEvent 处理单条评论事件，未知类型直接忽略
func (s *IndexerService) HandleEvent(ctx context.Context, event *infraKafka.CommentEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch event.Type {
	case infraKafka.EventCommentCreated:
		return s.index.IndexComment(ctx, &model.Comment{
			ID:        event.CommentID,
			PostID:    event.PostID,
			ParentID:  event.ParentID,
			Depth:     event.Depth,
			Path:      event.Path,
			Content:   event.Content,
			CreatedAt: event.CreatedAt,
		})
	case infraKafka.EventSubtreeDeleted:
		removed, err := s.index.DeleteSubtree(ctx, event.PostID, event.Path)
		if err != nil {
			return err
		}
		if removed != event.Deleted {
			logger.Warn("Index subtree size differs from DB",
				zap.Int64("post_id", event.PostID),
				zap.String("path", event.Path),
				zap.Int64("db_deleted", event.Deleted),
				zap.Int64("index_deleted", removed),
			)
		}
		return nil
	default:
		logger.Warn("Unknown comment event type", zap.String("type", event.Type))
		return nil
	}
}
