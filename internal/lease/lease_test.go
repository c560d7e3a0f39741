// internal/lease/lease_test.go
package lease

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "job-snatcher/internal/common/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestAcquire_Exclusive(t *testing.T) {
	mr, client := setupRedis(t)
	locker := NewLocker(client, time.Minute)
	ctx := context.Background()

	first, err := locker.Acquire(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(Key("job-1")))

	_, err = locker.Acquire(ctx, "job-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeLeaseHeld, apperrors.CodeOf(err))

	_, err = locker.Acquire(ctx, "job-2")
	assert.NoError(t, err)

	require.NoError(t, first.Release(ctx))
	assert.False(t, mr.Exists(Key("job-1")))

	_, err = locker.Acquire(ctx, "job-1")
	assert.NoError(t, err)
}

func TestAcquire_ExpiresAfterTTL(t *testing.T) {
	mr, client := setupRedis(t)
	locker := NewLocker(client, 10*time.Second)
	ctx := context.Background()

	_, err := locker.Acquire(ctx, "job-1")
	require.NoError(t, err)

	mr.FastForward(11 * time.Second)
	_, err = locker.Acquire(ctx, "job-1")
	assert.NoError(t, err)
}

func TestRelease_DoesNotDropForeignLease(t *testing.T) {
	mr, client := setupRedis(t)
	locker := NewLocker(client, 10*time.Second)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "job-1")
	require.NoError(t, err)
	mr.FastForward(11 * time.Second)

	_, err = locker.Acquire(ctx, "job-1")
	require.NoError(t, err)

	require.NoError(t, stale.Release(ctx))
	assert.True(t, mr.Exists(Key("job-1")))
}

func TestAcquire_RedisFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewLocker(client, time.Minute)

	mock.Regexp().ExpectSetNX(Key("job-1"), `.+`, time.Minute).SetErr(errors.New("READONLY"))

	_, err := locker.Acquire(context.Background(), "job-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodePersistence, apperrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
