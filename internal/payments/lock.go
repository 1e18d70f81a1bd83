package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgredis "github.com/fitdesk/gymportal-backend/pkg/redis"
)

const (
	submissionLockScope = "membership-lock"
	defaultLockTTL      = 30 * time.Second
)

// SubmissionLocker serializes payment submissions per membership. The
// lock is held from the duplicate-pending check through assignment
// creation, closing the check-then-act window between concurrent
// submissions for the same membership.
type SubmissionLocker interface {
	Acquire(ctx context.Context, membershipID int64) (release func(context.Context) error, ok bool, err error)
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisSubmissionLock implements SubmissionLocker using SETNX + TTL.
type RedisSubmissionLock struct {
	client redisStore
	ttl    time.Duration
}

// NewRedisSubmissionLock constructs a Redis-backed submission lock.
func NewRedisSubmissionLock(client redisStore, ttl time.Duration) (*RedisSubmissionLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for submission lock")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisSubmissionLock{client: client, ttl: ttl}, nil
}

// Acquire tries to own the membership's submission slot for the
// configured TTL. The returned release only frees the lock while this
// caller still owns it.
func (l *RedisSubmissionLock) Acquire(ctx context.Context, membershipID int64) (func(context.Context) error, bool, error) {
	key := pkgredis.LockKey(submissionLockScope, membershipID)
	owner := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("setnx: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		value, err := l.client.Get(ctx, key)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil
			}
			return fmt.Errorf("read lock owner: %w", err)
		}
		if value != owner {
			return nil
		}
		if err := l.client.Del(ctx, key); err != nil {
			return fmt.Errorf("delete lock: %w", err)
		}
		return nil
	}
	return release, true, nil
}
