package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// 版本键的保留时间需远大于计数缓存 TTL
const countVersionTTL = 24 * time.Hour

// 仅当版本与读取时一致才回填，避免覆盖更新的失效
var fillScript = redis.NewScript(`
local v = redis.call("GET", KEYS[2])
if v == false then v = "0" end
if v ~= ARGV[2] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

// CountCache 帖子评论数缓存，写路径上只做失效不做递增
type CountCache struct {
	client redis.UniversalClient
}

func NewCountCache(client redis.UniversalClient) *CountCache {
	return &CountCache{client: client}
}

// CountKey 评论数缓存键，hash tag 保证与版本键同槽
func CountKey(postID int64) string {
	return fmt.Sprintf("comment:count:{%d}", postID)
}

// VersionKey 失效版本号键
func VersionKey(postID int64) string {
	return fmt.Sprintf("comment:count:{%d}:ver", postID)
}

// Get 读取缓存与当前版本号，未命中时 ok 为 false
func (c *CountCache) Get(ctx context.Context, postID int64) (count int64, version int64, ok bool, err error) {
	vals, err := c.client.MGet(ctx, CountKey(postID), VersionKey(postID)).Result()
	if err != nil {
		return 0, 0, false, err
	}

	if vals[1] != nil {
		if version, err = parseInt(vals[1]); err != nil {
			return 0, 0, false, fmt.Errorf("bad count version: %w", err)
		}
	}
	if vals[0] == nil {
		return 0, version, false, nil
	}
	if count, err = parseInt(vals[0]); err != nil {
		return 0, 0, false, fmt.Errorf("bad cached count: %w", err)
	}
	return count, version, true, nil
}

// Set 回填缓存；期间发生过失效则放弃写入并返回 false
func (c *CountCache) Set(ctx context.Context, postID int64, count int64, version int64, ttl time.Duration) (bool, error) {
	n, err := fillScript.Run(ctx, c.client,
		[]string{CountKey(postID), VersionKey(postID)},
		count, version, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Invalidate 删除缓存并递增版本号
func (c *CountCache) Invalidate(ctx context.Context, postID int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, VersionKey(postID))
		pipe.Expire(ctx, VersionKey(postID), countVersionTTL)
		pipe.Del(ctx, CountKey(postID))
		return nil
	})
	return err
}

func parseInt(v interface{}) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected type %T", v)
	}
	return strconv.ParseInt(s, 10, 64)
}
