package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SscSPs/ledger_recon/internal/apperrors"
)

// LocalLocker is the single-process fallback used when no Redis server is
// configured. Locks still expire after their ttl.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localHold
	seq   uint64
	clock func() time.Time
}

type localHold struct {
	token   uint64
	expires time.Time
}

// NewLocalLocker creates an empty in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localHold), clock: time.Now}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if h, ok := l.held[key]; ok && now.Before(h.expires) {
		return nil, apperrors.NewConflictError("lock for key %s is already held", key)
	}
	l.seq++
	token := l.seq
	l.held[key] = localHold{token: token, expires: now.Add(ttl)}

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if h, ok := l.held[key]; !ok || h.token != token {
			return fmt.Errorf("unlock failed, either lock expired or you're not the lock holder for key %s", key)
		}
		delete(l.held, key)
		return nil
	}
	return release, nil
}
