package position

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"gorm.io/gorm"
)

// AdvisoryLocker 使用 PostgreSQL 事务级 advisory lock，多实例部署下同样有效。
// 锁随事务提交或回滚自动释放。
type AdvisoryLocker struct {
	timeout time.Duration
}

func NewAdvisoryLocker(timeout time.Duration) *AdvisoryLocker {
	return &AdvisoryLocker{timeout: timeout}
}

func (l *AdvisoryLocker) Name() string {
	return "advisory"
}

// AdvisoryKey 作用域对应的 64 位锁键；哈希碰撞只会多串行化，不影响正确性
func AdvisoryKey(scope Scope) int64 {
	return int64(xxhash.Sum64String("comment-scope:" + scope.String()))
}

func (l *AdvisoryLocker) WithScope(ctx context.Context, db *gorm.DB, scope Scope, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if l.timeout > 0 {
			// SET 不支持绑定参数
			if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = %d", l.timeout.Milliseconds())).Error; err != nil {
				return err
			}
		}

		start := time.Now()
		err := tx.Exec("SELECT pg_advisory_xact_lock(?)", AdvisoryKey(scope)).Error
		observeWait(l.Name(), start)
		if err != nil {
			return fmt.Errorf("acquire advisory lock %s: %w", scope, err)
		}

		return fn(tx)
	})
}
