package position

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewLocker 按配置创建作用域锁
func NewLocker(backend string, timeout time.Duration, rdb redis.UniversalClient) (ScopeLocker, error) {
	switch backend {
	case "", "local":
		return NewLocalLocker(timeout), nil
	case "advisory":
		return NewAdvisoryLocker(timeout), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis lock backend requires a redis client")
		}
		return NewRedisLocker(rdb, timeout), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", backend)
	}
}
