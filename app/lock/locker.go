package lock

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is used when Acquire is called with a non-positive ttl.
const DefaultTTL = 2 * time.Minute

const dispatchKeyPrefix = "notifications:email:"

var (
	ErrAlreadyHeld = errors.New("lock already held by this process")
	ErrNotAcquired = errors.New("lock not acquired")
	// ErrLost is returned by Release when the lock expired and is now owned by someone else.
	ErrLost = errors.New("lock lost before release")
)

// Locker serializes processing of a single channel message across dispatchers.
type Locker interface {
	// Acquire attempts to lock a key for the given TTL without waiting.
	Acquire(ctx context.Context, key string, ttl time.Duration) error
	// Release frees the lock for the given key.
	Release(ctx context.Context, key string) error
}

// DispatchKey is the lock key guarding one channel message.
func DispatchKey(messageID string) string {
	return dispatchKeyPrefix + messageID
}

// NoopLocker always succeeds. It is used when dispatch locking is disabled.
type NoopLocker struct{}

func (NoopLocker) Acquire(_ context.Context, _ string, _ time.Duration) error { return nil }
func (NoopLocker) Release(_ context.Context, _ string) error                  { return nil }
