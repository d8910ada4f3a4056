package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UNO-CSCI4830/project4-logbook/internal/config"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *Lock) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(&config.RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = Close(client) })
	return mr, NewLock(client, "logbook:sweep:lock", time.Minute)
}

func TestLock_AcquireRelease(t *testing.T) {
	mr, lock := setupRedis(t)
	ctx := context.Background()

	release, err := lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists(lock.Key()))
	assert.Equal(t, time.Minute, mr.TTL(lock.Key()))

	_, err = lock.Acquire(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLockHeld))

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists(lock.Key()))

	release, err = lock.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestLock_ReleaseDoesNotDropForeignLock(t *testing.T) {
	mr, lock := setupRedis(t)
	ctx := context.Background()

	release, err := lock.Acquire(ctx)
	require.NoError(t, err)

	// 锁过期后被其他进程拿到
	mr.FastForward(2 * time.Minute)
	require.NoError(t, mr.Set(lock.Key(), "other-process"))

	require.NoError(t, release(ctx))
	got, err := mr.Get(lock.Key())
	require.NoError(t, err)
	assert.Equal(t, "other-process", got)
}

func TestPing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(&config.RedisConfig{Addr: mr.Addr()})
	defer Close(client)

	require.NoError(t, Ping(context.Background(), client))

	mr.Close()
	assert.Error(t, Ping(context.Background(), client))
}
