package service

import (
	"context"
	"strings"
	"time"

	"comment-tree-go/internal/api/dto"
	"comment-tree-go/internal/model"
	"comment-tree-go/internal/repository"
	"comment-tree-go/pkg/logger"

	"go.uber.org/zap"
)

// CommentIndex 评论全文索引（elasticsearch）
type CommentIndex interface {
	Search(ctx context.Context, postID int64, q string, from, size int) ([]int64, int64, error)
}

type SearchService struct {
	commentRepo *repository.CommentRepository
	index       CommentIndex
}

// NewSearchService index 为 nil 时只走数据库
func NewSearchService(commentRepo *repository.CommentRepository, index CommentIndex) *SearchService {
	return &SearchService{commentRepo: commentRepo, index: index}
}

// SearchComments 搜索帖子内评论（ES 优先，失败则降级到 DB）
func (s *SearchService) SearchComments(ctx context.Context, req *dto.CommentSearchQuery) (*dto.CommentSearchData, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}
	req.Q = strings.TrimSpace(req.Q)

	if s.index != nil {
		data, err := s.searchFromES(ctx, req)
		if err == nil {
			return data, nil
		}
		logger.Warn("ES search failed, fallback to DB", zap.Error(err))
	}
	return s.searchFromDB(ctx, req)
}

func (s *SearchService) searchFromES(ctx context.Context, req *dto.CommentSearchQuery) (*dto.CommentSearchData, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ids, total, err := s.index.Search(ctx, req.PostID, req.Q, (req.Page-1)*req.PageSize, req.PageSize)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// 按 ES 相关度顺序回表；索引滞后时已删除的评论被跳过
	byID := make(map[int64]*model.Comment, len(comments))
	for i := range comments {
		byID[comments[i].ID] = &comments[i]
	}
	ordered := make([]model.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, *c)
		}
	}

	return buildSearchData(ordered, total, req.Page, req.PageSize, "es"), nil
}

func (s *SearchService) searchFromDB(ctx context.Context, req *dto.CommentSearchQuery) (*dto.CommentSearchData, error) {
	skip := (req.Page - 1) * req.PageSize
	comments, total, err := s.commentRepo.SearchContent(ctx, req.PostID, req.Q, skip, req.PageSize)
	if err != nil {
		return nil, storageFailure(err)
	}
	return buildSearchData(comments, total, req.Page, req.PageSize, "db"), nil
}

func buildSearchData(comments []model.Comment, total int64, page, pageSize int, source string) *dto.CommentSearchData {
	items := make([]dto.CommentInfo, 0, len(comments))
	for i := range comments {
		items = append(items, *toCommentInfo(&comments[i]))
	}

	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	return &dto.CommentSearchData{
		Comments:   items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Source:     source,
	}
}
