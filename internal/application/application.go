package application

import (
	"context"
	"errors"
	"strconv"
)

// ErrLockNotAcquired is returned when a Locker gives up waiting for a key.
var ErrLockNotAcquired = errors.New("lock: not acquired")

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// Locker serializes work on a key across callers. The returned release func
// must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

type IDGenerator interface {
	NewID() string
}

// UserLockKey is the lock key for every mutation touching a user's balance or cart.
func UserLockKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// WithLock runs fn while holding key.
func WithLock(ctx context.Context, l Locker, key string, fn func(ctx context.Context) error) error {
	release, err := l.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}
