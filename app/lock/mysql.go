package lock

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// mysqlMaxLockName is the longest name GET_LOCK accepts.
const mysqlMaxLockName = 64

// MySQLLocker takes dispatch locks with MySQL named locks. A named lock
// belongs to the session that took it, so each held key pins a pooled
// connection until Release. The ttl is not enforced by the server.
type MySQLLocker struct {
	db *sql.DB

	mu       sync.Mutex
	sessions map[string]*sql.Conn
}

func NewMySQLLocker(db *sql.DB) *MySQLLocker {
	return &MySQLLocker{
		db:       db,
		sessions: make(map[string]*sql.Conn),
	}
}

// Acquire calls GET_LOCK with a zero wait so a busy key fails fast.
func (l *MySQLLocker) Acquire(ctx context.Context, key string, _ time.Duration) error {
	if l.holds(key) {
		return ErrAlreadyHeld
	}

	session, err := l.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("mysql lock session: %w", err)
	}

	granted, err := queryLockResult(ctx, session, "SELECT GET_LOCK(?, 0)", key)
	if err != nil || !granted {
		_ = session.Close()
		if err != nil {
			return err
		}
		return ErrNotAcquired
	}

	l.mu.Lock()
	l.sessions[key] = session
	l.mu.Unlock()
	return nil
}

// Release calls RELEASE_LOCK on the session that holds key and returns the
// session to the pool. Unknown keys are ignored.
func (l *MySQLLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	session, ok := l.sessions[key]
	delete(l.sessions, key)
	l.mu.Unlock()

	if !ok {
		return nil
	}
	defer session.Close()

	released, err := queryLockResult(ctx, session, "SELECT RELEASE_LOCK(?)", key)
	if err != nil {
		return err
	}
	if !released {
		return ErrLost
	}
	return nil
}

func (l *MySQLLocker) holds(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.sessions[key]
	return ok
}

// queryLockResult runs a GET_LOCK style query; MySQL answers 1, 0 or NULL.
func queryLockResult(ctx context.Context, session *sql.Conn, query, key string) (bool, error) {
	var result sql.NullInt64
	if err := session.QueryRowContext(ctx, query, lockName(key)).Scan(&result); err != nil {
		return false, fmt.Errorf("mysql lock %q: %w", key, err)
	}
	return result.Valid && result.Int64 == 1, nil
}

// lockName hashes keys that do not fit MySQL's lock name limit.
func lockName(key string) string {
	if len(key) <= mysqlMaxLockName {
		return key
	}
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
