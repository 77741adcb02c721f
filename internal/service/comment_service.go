package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"comment-tree-go/internal/api/dto"
	"comment-tree-go/internal/config"
	infraKafka "comment-tree-go/internal/infra/kafka"
	"comment-tree-go/internal/metrics"
	"comment-tree-go/internal/model"
	"comment-tree-go/internal/pathcodec"
	"comment-tree-go/internal/position"
	"comment-tree-go/internal/repository"
	"comment-tree-go/pkg/logger"
	"comment-tree-go/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("评论不存在")
	ErrCommentNotFound  = fmt.Errorf("%w: 目标评论不存在", ErrNotFound)
	ErrParentNotFound   = fmt.Errorf("%w: 父评论不存在", ErrNotFound)
	ErrDepthExceeded    = errors.New("超过最大回复深度")
	ErrCapacityExceeded = pathcodec.ErrCapacityExceeded
	ErrInvalidCursor    = errors.New("无效的分页游标")
	ErrStorageFailure   = errors.New("存储访问失败")
)

// EventPublisher 评论事件发布（kafka）
type EventPublisher interface {
	PublishCommentEvent(ctx context.Context, event *infraKafka.CommentEvent) error
}

// CountCache 评论数缓存（redis）。
// Get 同时返回失效版本号，Set 只在版本未变时写入，防止旧值覆盖新的失效。
type CountCache interface {
	Get(ctx context.Context, postID int64) (count int64, version int64, ok bool, err error)
	Set(ctx context.Context, postID int64, count int64, version int64, ttl time.Duration) (bool, error)
	Invalidate(ctx context.Context, postID int64) error
}

type CommentService struct {
	commentRepo *repository.CommentRepository
	allocator   *position.Allocator
	cfg         config.CommentConfig
	events      EventPublisher
	counts      CountCache
}

// NewCommentService events 与 counts 可以为 nil
func NewCommentService(
	commentRepo *repository.CommentRepository,
	allocator *position.Allocator,
	cfg config.CommentConfig,
	events EventPublisher,
	counts CountCache,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		allocator:   allocator,
		cfg:         cfg,
		events:      events,
		counts:      counts,
	}
}

// Create 发表评论或回复
func (s *CommentService) Create(ctx context.Context, req *dto.CommentCreateRequest) (*dto.CommentInfo, error) {
	scope := position.Scope{PostID: req.PostID}

	var parent *model.Comment
	if req.ParentID != nil {
		p, err := s.commentRepo.GetByIDAndPost(ctx, *req.ParentID, req.PostID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, storageFailure(err)
		}
		if p.Depth >= s.cfg.MaxDepth {
			return nil, ErrDepthExceeded
		}
		parent = p
		scope.ParentPrefix = p.Path
	}

	comment := &model.Comment{
		PostID:   req.PostID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}

	_, err := s.allocator.Allocate(ctx, scope, func(tx *gorm.DB, rank int) error {
		if parent != nil {
			// 祖先链在事务内必须完整存在
			alive, err := s.commentRepo.LockAncestors(tx, req.PostID, parent.Path)
			if err != nil {
				return err
			}
			if alive != parent.Depth+1 {
				return ErrParentNotFound
			}
		}

		path, err := pathcodec.ChildPath(scope.ParentPrefix, rank)
		if err != nil {
			return err
		}
		comment.Path = path
		comment.Depth = pathcodec.Depth(path)
		return s.commentRepo.Create(tx, comment)
	})
	if err != nil {
		return nil, classify(err)
	}

	logger.Debug("Comment created",
		zap.Int64("comment_id", comment.ID),
		zap.Int64("post_id", comment.PostID),
		zap.String("path", comment.Path),
	)

	s.invalidateCount(ctx, comment.PostID)
	s.publish(ctx, infraKafka.NewCommentCreatedEvent(comment))

	return toCommentInfo(comment), nil
}

// List 按路径顺序的游标分页（先序深度优先）
func (s *CommentService) List(ctx context.Context, postID int64, cursor string, size int) (*dto.CommentPage, error) {
	if cursor != "" && !pathcodec.Valid(cursor) {
		return nil, ErrInvalidCursor
	}
	size = s.clampPageSize(size)

	// 多取一条判断是否还有下一页
	comments, err := s.commentRepo.ListByPath(ctx, postID, cursor, size+1)
	if err != nil {
		return nil, storageFailure(err)
	}

	hasMore := len(comments) > size
	if hasMore {
		comments = comments[:size]
	}

	items := make([]dto.CommentInfo, 0, len(comments))
	for i := range comments {
		items = append(items, *toCommentInfo(&comments[i]))
	}

	page := &dto.CommentPage{
		Comments: items,
		HasMore:  hasMore,
		Size:     size,
	}
	if hasMore {
		page.NextCursor = comments[len(comments)-1].Path
	}
	return page, nil
}

// Count 帖子评论总数，优先读缓存
func (s *CommentService) Count(ctx context.Context, postID int64) (int64, error) {
	fill := false
	var version int64
	if s.counts != nil {
		count, ver, ok, err := s.counts.Get(ctx, postID)
		switch {
		case err != nil:
			metrics.CountCacheRequests.WithLabelValues("error").Inc()
			logger.Warn("Count cache read failed, fallback to DB", zap.Int64("post_id", postID), zap.Error(err))
		case ok:
			metrics.CountCacheRequests.WithLabelValues("hit").Inc()
			return count, nil
		default:
			metrics.CountCacheRequests.WithLabelValues("miss").Inc()
			fill, version = true, ver
		}
	}

	count, err := s.commentRepo.CountByPost(ctx, postID)
	if err != nil {
		return 0, storageFailure(err)
	}

	if fill {
		stored, err := s.counts.Set(ctx, postID, count, version, s.cfg.CountCacheDuration())
		if err != nil {
			logger.Warn("Count cache write failed", zap.Int64("post_id", postID), zap.Error(err))
		} else if !stored {
			logger.Debug("Count cache fill skipped, invalidated concurrently", zap.Int64("post_id", postID))
		}
	}
	return count, nil
}

// DeleteSubtree 删除评论及其全部回复，返回删除行数；其余兄弟节点不重新编号
func (s *CommentService) DeleteSubtree(ctx context.Context, commentID int64) (int64, error) {
	target, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCommentNotFound
		}
		return 0, storageFailure(err)
	}

	deleted, err := s.commentRepo.DeleteSubtree(ctx, target)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCommentNotFound
		}
		return 0, storageFailure(err)
	}
	metrics.SubtreeDeletedRows.Observe(float64(deleted))

	logger.Info("Comment subtree deleted",
		zap.Int64("comment_id", target.ID),
		zap.Int64("post_id", target.PostID),
		zap.String("path", target.Path),
		zap.Int64("deleted", deleted),
	)

	s.invalidateCount(ctx, target.PostID)
	s.publish(ctx, infraKafka.NewSubtreeDeletedEvent(target, deleted))

	return deleted, nil
}

func (s *CommentService) clampPageSize(size int) int {
	if size < 1 {
		return s.cfg.DefaultPageSize
	}
	if size > s.cfg.MaxPageSize {
		return s.cfg.MaxPageSize
	}
	return size
}

func (s *CommentService) invalidateCount(ctx context.Context, postID int64) {
	if s.counts == nil {
		return
	}
	// 已提交的写入必须失效缓存，不受调用方取消影响
	invCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.counts.Invalidate(invCtx, postID); err != nil {
		logger.Warn("Count cache invalidate failed", zap.Int64("post_id", postID), zap.Error(err))
	}
}

func (s *CommentService) publish(ctx context.Context, event *infraKafka.CommentEvent) {
	if s.events == nil {
		return
	}
	// 写库已提交，事件发布失败只记日志
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.events.PublishCommentEvent(pubCtx, event); err != nil {
		logger.Error("Publish comment event failed",
			zap.String("type", event.Type),
			zap.Int64("post_id", event.PostID),
			zap.Error(err),
		)
	}
}

// classify 将分配/写入阶段的错误归类到对外错误
func classify(err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrDepthExceeded),
		errors.Is(err, ErrCapacityExceeded):
		return err
	case errors.Is(err, pathcodec.ErrInvalidPath):
		return fmt.Errorf("%w: %v", ErrDepthExceeded, err)
	default:
		return storageFailure(err)
	}
}

func storageFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageFailure, err)
}

func toCommentInfo(c *model.Comment) *dto.CommentInfo {
	return &dto.CommentInfo{
		ID:          c.ID,
		PostID:      c.PostID,
		ParentID:    c.ParentID,
		Depth:       c.Depth,
		Path:        c.Path,
		Content:     c.Content,
		ContentHTML: utils.RenderMarkdown(c.Content),
		CreatedAt:   c.CreatedAt,
	}
}
