// internal/lease/lease.go

// Package lease provides per-job Redis leases so that no two in-flight stage
// invocations mutate the same job record at once.
package lease

import (
	"context"
	"fmt"
	"time"

	apperrors "job-snatcher/internal/common/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "job-snatcher:lease:"

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out leases keyed by job id.
type Locker struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewLocker(client redis.Cmdable, ttl time.Duration) *Locker {
	return &Locker{client: client, ttl: ttl}
}

// Lease is a held lock on one job record.
type Lease struct {
	locker *Locker
	key    string
	token  string
}

func Key(jobID string) string {
	return keyPrefix + jobID
}

// Acquire takes the lease for jobID or returns a LEASE_HELD error if another
// invocation holds it.
func (l *Locker) Acquire(ctx context.Context, jobID string) (*Lease, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, Key(jobID), token, l.ttl).Result()
	if err != nil {
		return nil, apperrors.NewPersistenceError("acquire lease", err)
	}
	if !ok {
		return nil, apperrors.NewLeaseHeldError(jobID)
	}
	return &Lease{locker: l, key: Key(jobID), token: token}, nil
}

// Release frees the lease if it is still ours; an expired lease is not an error.
func (le *Lease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, le.locker.client, []string{le.key}, le.token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release lease %s: %w", le.key, err)
	}
	return nil
}
