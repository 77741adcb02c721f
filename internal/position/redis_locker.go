package position

import (
	"context"
	"fmt"
	"time"

	"comment-tree-go/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 只删除自己持有的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const (
	minLeaseTTL = 10 * time.Second
	// 事务须在租约到期前这段时间内结束
	leaseMargin = time.Second
)

// RedisLocker 基于 SET NX PX 的分布式作用域锁。
// 租约不续期，事务的截止时间被限制在租约之内，超时回滚而不是在失去互斥后继续写入。
type RedisLocker struct {
	client  redis.UniversalClient
	timeout time.Duration
	ttl     time.Duration
	retry   time.Duration
}

func NewRedisLocker(client redis.UniversalClient, timeout time.Duration) *RedisLocker {
	return &RedisLocker{
		client:  client,
		timeout: timeout,
		ttl:     leaseTTL(timeout),
		retry:   5 * time.Millisecond,
	}
}

// leaseTTL 租约至少 10s，且不短于三倍的等锁超时
func leaseTTL(timeout time.Duration) time.Duration {
	if ttl := 3 * timeout; ttl > minLeaseTTL {
		return ttl
	}
	return minLeaseTTL
}

// leaseContext 事务上下文，截止时间早于租约到期
func leaseContext(ctx context.Context, acquiredAt time.Time, ttl time.Duration) (context.Context, context.CancelFunc) {
	return context.WithDeadline(ctx, acquiredAt.Add(ttl-leaseMargin))
}

func (l *RedisLocker) Name() string {
	return "redis"
}

// LockKey 作用域对应的 redis 键
func LockKey(scope Scope) string {
	return fmt.Sprintf("comment:scope-lock:%d:%s", scope.PostID, scope.ParentPrefix)
}

func (l *RedisLocker) WithScope(ctx context.Context, db *gorm.DB, scope Scope, fn func(tx *gorm.DB) error) error {
	key := LockKey(scope)
	token := uuid.NewString()

	acquiredAt, err := l.acquire(ctx, key, token)
	if err != nil {
		return err
	}
	defer func() {
		// 调用方 ctx 可能已取消，释放必须执行
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := unlockScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			logger.Warn("Failed to release redis scope lock", zap.String("key", key), zap.Error(err))
		}
	}()

	txCtx, cancel := leaseContext(ctx, acquiredAt, l.ttl)
	defer cancel()
	err = db.WithContext(txCtx).Transaction(fn)
	if err != nil && txCtx.Err() != nil && ctx.Err() == nil {
		logger.Warn("Redis scope lock lease expired before commit", zap.String("key", key), zap.Duration("ttl", l.ttl))
		return fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}
	return err
}

// acquire 返回成功那次 SET 发出前的时间，租约从不早于该时刻开始计算
func (l *RedisLocker) acquire(ctx context.Context, key, token string) (time.Time, error) {
	start := time.Now()
	defer observeWait(l.Name(), start)

	waitCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	for {
		attempt := time.Now()
		ok, err := l.client.SetNX(waitCtx, key, token, l.ttl).Result()
		if err != nil {
			if waitCtx.Err() != nil && ctx.Err() == nil {
				return time.Time{}, ErrLockTimeout
			}
			return time.Time{}, fmt.Errorf("acquire redis lock %s: %w", key, err)
		}
		if ok {
			return attempt, nil
		}

		select {
		case <-time.After(l.retry):
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return time.Time{}, ctx.Err()
			}
			return time.Time{}, ErrLockTimeout
		}
	}
}
