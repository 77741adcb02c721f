// Package position 负责在同一父节点作用域下分配兄弟序号。
//
// 同一作用域 (postID, parentPrefix) 内的 "读取最大序号 -> 写入新行" 在作用域锁与同一事务内完成，
// 不同作用域之间互不阻塞。
package position

import (
	"context"
	"errors"
	"fmt"
	"time"

	"comment-tree-go/internal/metrics"
	"comment-tree-go/internal/model"
	"comment-tree-go/internal/pathcodec"

	"gorm.io/gorm"
)

// ErrLockTimeout 等待作用域锁超时
var ErrLockTimeout = errors.New("等待评论作用域锁超时")

// Scope 兄弟序号的分配作用域，ParentPrefix 为空表示根层
type Scope struct {
	PostID       int64
	ParentPrefix string
}

func (s Scope) String() string {
	return fmt.Sprintf("%d:%s", s.PostID, s.ParentPrefix)
}

// ScopeLocker 在持有作用域锁的情况下执行一个事务。
// 实现必须保证锁在事务提交或回滚之后才释放。
type ScopeLocker interface {
	WithScope(ctx context.Context, db *gorm.DB, scope Scope, fn func(tx *gorm.DB) error) error
	Name() string
}

// InsertFunc 在分配到序号后、事务提交前执行写入
type InsertFunc func(tx *gorm.DB, rank int) error

type Allocator struct {
	db     *gorm.DB
	locker ScopeLocker
}

func NewAllocator(db *gorm.DB, locker ScopeLocker) *Allocator {
	return &Allocator{db: db, locker: locker}
}

// Locker 返回当前使用的作用域锁
func (a *Allocator) Locker() ScopeLocker {
	return a.locker
}

// Allocate 加锁、计算下一个序号并调用 insert，返回分配到的序号
func (a *Allocator) Allocate(ctx context.Context, scope Scope, insert InsertFunc) (int, error) {
	var rank int
	err := a.locker.WithScope(ctx, a.db, scope, func(tx *gorm.DB) error {
		next, err := a.NextRank(tx, scope)
		if err != nil {
			return err
		}
		rank = next
		return insert(tx, next)
	})

	switch {
	case err == nil:
		metrics.RankAllocations.WithLabelValues("ok").Inc()
	case errors.Is(err, pathcodec.ErrCapacityExceeded):
		metrics.RankAllocations.WithLabelValues("capacity").Inc()
	default:
		metrics.RankAllocations.WithLabelValues("error").Inc()
	}
	if err != nil {
		return 0, err
	}
	return rank, nil
}

// NextRank 返回作用域下直接子节点的最大序号 + 1，空作用域返回 1。
// 必须在 ScopeLocker 提供的事务内调用。
func (a *Allocator) NextRank(tx *gorm.DB, scope Scope) (int, error) {
	query := tx.Model(&model.Comment{}).Where("post_id = ?", scope.PostID)

	if scope.ParentPrefix == "" {
		query = query.Where("depth = ?", 0)
	} else {
		lo, hi := pathcodec.DescendantRange(scope.ParentPrefix)
		query = query.Where("depth = ? AND path >= ? AND path < ?", pathcodec.Depth(scope.ParentPrefix)+1, lo, hi)
	}

	var paths []string
	if err := query.Order("path DESC").Limit(1).Pluck("path", &paths).Error; err != nil {
		return 0, fmt.Errorf("query max sibling path: %w", err)
	}
	if len(paths) == 0 {
		return 1, nil
	}

	last, err := pathcodec.LastRank(paths[0])
	if err != nil {
		return 0, err
	}
	if last >= pathcodec.MaxRank {
		return 0, fmt.Errorf("%w: scope %s", pathcodec.ErrCapacityExceeded, scope)
	}
	return last + 1, nil
}

func observeWait(backend string, start time.Time) {
	metrics.ScopeLockWait.WithLabelValues(backend).Observe(time.Since(start).Seconds())
}
