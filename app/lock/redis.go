package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still carries our owner token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker takes dispatch locks with SET NX PX. The value is an owner
// token so an expired lock re-taken by another dispatcher is never deleted.
type RedisLocker struct {
	client redis.Cmdable

	mu sync.Mutex

	// tokens maps held keys to owner tokens; "" marks an acquire in flight.
	tokens map[string]string
}

// NewRedisLocker builds a locker on any go-redis client.
func NewRedisLocker(client redis.Cmdable) *RedisLocker {
	return &RedisLocker{
		client: client,
		tokens: make(map[string]string),
	}
}

// Acquire reserves key locally, then tries SET NX without holding the
// mutex so concurrent acquires of different keys do not queue on Redis.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	l.mu.Lock()
	if _, held := l.tokens[key]; held {
		l.mu.Unlock()
		return ErrAlreadyHeld
	}
	l.tokens[key] = ""
	l.mu.Unlock()

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil || !ok {
		delete(l.tokens, key)
		if err != nil {
			return err
		}
		return ErrNotAcquired
	}
	l.tokens[key] = token
	return nil
}

// Release drops the key when this locker still owns it. Releasing a key
// that was never acquired here is a no-op.
func (l *RedisLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token := l.tokens[key]
	if token != "" {
		delete(l.tokens, key)
	}
	l.mu.Unlock()

	// Not held, or an Acquire for key is still in flight.
	if token == "" {
		return nil
	}

	deleted, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrLost
	}
	return nil
}
