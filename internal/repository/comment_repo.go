package repository

import (
	"context"
	"strings"

	"comment-tree-go/internal/model"
	"comment-tree-go/internal/pathcodec"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// DB 返回底层连接，供作用域锁开启事务
func (r *CommentRepository) DB() *gorm.DB {
	return r.db
}

// Create 在给定事务内写入评论
func (r *CommentRepository) Create(tx *gorm.DB, comment *model.Comment) error {
	return tx.Create(comment).Error
}

func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).First(&comment, id).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetByIDAndPost 按 (id, post_id) 查询
func (r *CommentRepository) GetByIDAndPost(ctx context.Context, id, postID int64) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).Where("id = ? AND post_id = ?", id, postID).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// LockAncestors 在事务内对 path 及其所有祖先加共享锁，返回仍存在的行数。
// 与 DeleteSubtree 对目标行的排他锁互斥，避免并发删除留下孤儿评论。
// 按 path 升序即从根到叶加锁，与删除的加锁顺序一致。
func (r *CommentRepository) LockAncestors(tx *gorm.DB, postID int64, path string) (int, error) {
	paths := append(pathcodec.Ancestors(path), path)

	var ids []int64
	err := tx.Model(&model.Comment{}).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("post_id = ? AND path IN ?", postID, paths).
		Order("path ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// ListByPath 按路径升序的游标分页，cursor 为空从头开始，否则严格大于 cursor
func (r *CommentRepository) ListByPath(ctx context.Context, postID int64, cursor string, limit int) ([]model.Comment, error) {
	query := r.db.WithContext(ctx).Where("post_id = ?", postID)
	if cursor != "" {
		query = query.Where("path > ?", cursor)
	}

	var comments []model.Comment
	err := query.Order("path ASC").Limit(limit).Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// CountByPost 统计帖子评论总数
func (r *CommentRepository) CountByPost(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Comment{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

// DeleteSubtree 在一个事务内删除目标及其全部后代，返回删除行数。
// 先删目标行拿到它的行锁，再删后代：与 LockAncestors 配合，并发回复要么先提交后被一并删除，
// 要么看到祖先已消失。
func (r *CommentRepository) DeleteSubtree(ctx context.Context, target *model.Comment) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND post_id = ?", target.ID, target.PostID).Delete(&model.Comment{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		deleted = result.RowsAffected

		lo, hi := pathcodec.DescendantRange(target.Path)
		result = tx.Where("post_id = ? AND path >= ? AND path < ?", target.PostID, lo, hi).Delete(&model.Comment{})
		if result.Error != nil {
			return result.Error
		}
		deleted += result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// LIKE 通配符按字面匹配
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchContent 数据库兜底搜索（ES 不可用时）
func (r *CommentRepository) SearchContent(ctx context.Context, postID int64, keyword string, skip, limit int) ([]model.Comment, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where(`post_id = ? AND content LIKE ? ESCAPE '\'`, postID, "%"+likeEscaper.Replace(keyword)+"%").
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []model.Comment
	err := query.Order("path ASC").Offset(skip).Limit(limit).Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// GetByIDs 按 ID 批量查询（搜索结果回表）
func (r *CommentRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Comment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var comments []model.Comment
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&comments).Error
	return comments, err
}
