package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedis_TryLock(t *testing.T) {
	client, mr := newRedisClient(t)
	ctx := context.Background()

	first := NewRedis(client, "importer:lock", time.Minute)
	second := NewRedis(client, "importer:lock", time.Minute)

	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("importer:lock"))

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Unlock(ctx))
	assert.False(t, mr.Exists("importer:lock"))

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedis_ExpiredLeaseNotReleasedByOldHolder(t *testing.T) {
	client, mr := newRedisClient(t)
	ctx := context.Background()

	first := NewRedis(client, "importer:lock", time.Minute)
	second := NewRedis(client, "importer:lock", time.Minute)

	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, first.Unlock(ctx))
	assert.True(t, mr.Exists("importer:lock"))

	require.NoError(t, second.Unlock(ctx))
	assert.False(t, mr.Exists("importer:lock"))
}

func TestRedis_UnlockWithoutLock(t *testing.T) {
	client, _ := newRedisClient(t)
	assert.NoError(t, NewRedis(client, "importer:lock", time.Minute).Unlock(context.Background()))
}

func TestRedis_ServerDown(t *testing.T) {
	client, mr := newRedisClient(t)
	mr.Close()

	_, err := NewRedis(client, "importer:lock", time.Minute).TryLock(context.Background())
	assert.Error(t, err)
}

func TestLocal(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()

	ok, err := l.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Unlock(ctx))

	ok, err = l.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}
