package position

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
)

// LocalLocker 进程内的作用域锁表，只适用于单实例部署
type LocalLocker struct {
	timeout time.Duration

	mu    sync.Mutex
	locks map[Scope]*scopeLock
}

type scopeLock struct {
	sem  chan struct{}
	refs int
}

func NewLocalLocker(timeout time.Duration) *LocalLocker {
	return &LocalLocker{
		timeout: timeout,
		locks:   make(map[Scope]*scopeLock),
	}
}

func (l *LocalLocker) Name() string {
	return "local"
}

// WithScope 加锁后开启事务，事务结束后释放锁
func (l *LocalLocker) WithScope(ctx context.Context, db *gorm.DB, scope Scope, fn func(tx *gorm.DB) error) error {
	unlock, err := l.lock(ctx, scope)
	if err != nil {
		return err
	}
	defer unlock()

	return db.WithContext(ctx).Transaction(fn)
}

func (l *LocalLocker) lock(ctx context.Context, scope Scope) (func(), error) {
	start := time.Now()
	defer observeWait(l.Name(), start)

	l.mu.Lock()
	sl, ok := l.locks[scope]
	if !ok {
		sl = &scopeLock{sem: make(chan struct{}, 1)}
		l.locks[scope] = sl
	}
	sl.refs++
	l.mu.Unlock()

	waitCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	select {
	case sl.sem <- struct{}{}:
		return func() {
			<-sl.sem
			l.release(scope, sl)
		}, nil
	case <-waitCtx.Done():
		l.release(scope, sl)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrLockTimeout
	}
}

func (l *LocalLocker) release(scope Scope, sl *scopeLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sl.refs--
	if sl.refs == 0 {
		delete(l.locks, scope)
	}
}

// size 返回当前存活的作用域条目数
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
