package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrLockHeld 锁已被其他进程持有
var ErrLockHeld = errors.New("lock held by another process")

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock Redis 分布式互斥锁（SET NX PX）
// 多个实例共享同一数据库时，保证同一时刻只有一个巡检在运行
type Lock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewLock 创建锁
func NewLock(client *redis.Client, key string, ttl time.Duration) *Lock {
	return &Lock{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

// Key 锁的 Redis key
func (l *Lock) Key() string {
	return l.key
}

// Acquire 获取锁，返回释放函数；已被持有时返回 ErrLockHeld
func (l *Lock) Acquire(ctx context.Context) (func(context.Context) error, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", l.key, ErrLockHeld)
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to release lock %s: %w", l.key, err)
		}
		return nil
	}
	return release, nil
}
