package position

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestLocalLocker_ScopesAreIndependent(t *testing.T) {
	l := NewLocalLocker(50 * time.Millisecond)
	ctx := context.Background()

	a := Scope{PostID: 1, ParentPrefix: "00001"}
	b := Scope{PostID: 1, ParentPrefix: "00002"}
	root := Scope{PostID: 1}
	otherPost := Scope{PostID: 2, ParentPrefix: "00001"}

	unlockA, err := l.lock(ctx, a)
	require.NoError(t, err)

	// 同一帖子下的其他父节点、根层、其他帖子都不应被阻塞
	for _, s := range []Scope{b, root, otherPost} {
		unlock, err := l.lock(ctx, s)
		require.NoError(t, err, s.String())
		unlock()
	}

	// 同一作用域必须等待
	_, err = l.lock(ctx, a)
	assert.ErrorIs(t, err, ErrLockTimeout)

	unlockA()
	unlockA2, err := l.lock(ctx, a)
	require.NoError(t, err)
	unlockA2()

	assert.Equal(t, 0, l.size())
}

func TestLocalLocker_ContextCanceled(t *testing.T) {
	l := NewLocalLocker(time.Minute)
	s := Scope{PostID: 1}

	unlock, err := l.lock(context.Background(), s)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.lock(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalLocker_WaitersProceedInTurn(t *testing.T) {
	l := NewLocalLocker(time.Second)
	s := Scope{PostID: 1}

	unlock, err := l.lock(context.Background(), s)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		u, err := l.lock(context.Background(), s)
		if err == nil {
			u()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second caller acquired a held scope")
	case <-time.After(30 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second caller never acquired the scope")
	}
}

func newMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestAdvisoryLocker_LocksInsideTransaction(t *testing.T) {
	db, mock := newMockPostgres(t)
	l := NewAdvisoryLocker(3 * time.Second)
	scope := Scope{PostID: 7, ParentPrefix: "00001/00002"}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = 3000")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(AdvisoryKey(scope)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	called := false
	err := l.WithScope(context.Background(), db, scope, func(tx *gorm.DB) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisoryLocker_RollbackOnError(t *testing.T) {
	db, mock := newMockPostgres(t)
	l := NewAdvisoryLocker(0)
	scope := Scope{PostID: 7}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(AdvisoryKey(scope)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	boom := errors.New("insert failed")
	err := l.WithScope(context.Background(), db, scope, func(tx *gorm.DB) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisoryKey(t *testing.T) {
	a := AdvisoryKey(Scope{PostID: 1, ParentPrefix: "00001"})
	assert.Equal(t, a, AdvisoryKey(Scope{PostID: 1, ParentPrefix: "00001"}))
	assert.NotEqual(t, a, AdvisoryKey(Scope{PostID: 1, ParentPrefix: "00002"}))
	assert.NotEqual(t, a, AdvisoryKey(Scope{PostID: 2, ParentPrefix: "00001"}))
}

func TestRedisLocker_UnreachableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer rdb.Close()

	l := NewRedisLocker(rdb, 200*time.Millisecond)
	called := false
	err := l.WithScope(context.Background(), nil, Scope{PostID: 1}, func(tx *gorm.DB) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, "comment:scope-lock:1:", LockKey(Scope{PostID: 1}))
	assert.Equal(t, "comment:scope-lock:3:00001/00002", LockKey(Scope{PostID: 3, ParentPrefix: "00001/00002"}))
}

func TestRedisLocker_LeaseCoversLockTimeout(t *testing.T) {
	assert.Equal(t, 10*time.Second, leaseTTL(0))
	assert.Equal(t, 10*time.Second, leaseTTL(3*time.Second))
	assert.Equal(t, 30*time.Second, leaseTTL(10*time.Second))

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer rdb.Close()
	assert.Equal(t, 30*time.Second, NewRedisLocker(rdb, 10*time.Second).ttl)
}

func TestLeaseContext_EndsBeforeLeaseExpires(t *testing.T) {
	acquiredAt := time.Now()
	ctx, cancel := leaseContext(context.Background(), acquiredAt, 10*time.Second)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.Equal(t, acquiredAt.Add(10*time.Second-leaseMargin), deadline)

	// 租约已过期时事务上下文立即结束
	expired, cancelExpired := leaseContext(context.Background(), acquiredAt.Add(-time.Minute), 10*time.Second)
	defer cancelExpired()
	assert.ErrorIs(t, expired.Err(), context.DeadlineExceeded)
}

func TestNewLocker(t *testing.T) {
	l, err := NewLocker("local", time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, "local", l.Name())

	l, err = NewLocker("advisory", time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, "advisory", l.Name())

	_, err = NewLocker("redis", time.Second, nil)
	assert.Error(t, err)

	_, err = NewLocker("etcd", time.Second, nil)
	assert.Error(t, err)
}
