package revocation

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time.Now for testability.
type Clock func() time.Time

// MemoryList is an in-memory revocation list for single-instance deployments
// and tests. Expired entries are purged lazily on writes.
type MemoryList struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	clock   Clock
}

// MemoryListOption configures a MemoryList.
type MemoryListOption func(*MemoryList)

// WithClock sets the clock function for tests.
func WithClock(clock Clock) MemoryListOption {
	return func(l *MemoryList) {
		if clock != nil {
			l.clock = clock
		}
	}
}

func NewMemoryList(opts ...MemoryListOption) *MemoryList {
	l := &MemoryList{
		revoked: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func (l *MemoryList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.purgeLocked()
	l.revoked[jti] = l.clock().Add(ttl)
	return nil
}

func (l *MemoryList) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	expiresAt, ok := l.revoked[jti]
	if !ok {
		return false, nil
	}
	return l.clock().Before(expiresAt), nil
}

func (l *MemoryList) purgeLocked() {
	now := l.clock()
	for jti, expiresAt := range l.revoked {
		if now.After(expiresAt) {
			delete(l.revoked, jti)
		}
	}
}
