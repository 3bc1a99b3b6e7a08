package storage

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rl1809/hotel-reservation/internal/port"
)

// LocalLocker serializes callers within one process. Each key owns a
// one-slot channel so waiting can be abandoned when ctx is done.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (port.Lease, error) {
	slot := l.slot(key)
	select {
	case slot <- struct{}{}:
		return &localLease{slot: slot}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[key] = s
	}
	return s
}

type localLease struct {
	once     sync.Once
	released atomic.Bool
	slot     chan struct{}
}

// Extend only reports whether the lease is still held; local leases never
// expire.
func (l *localLease) Extend(ctx context.Context) error {
	if l.released.Load() {
		return port.ErrLockLost
	}
	return nil
}

func (l *localLease) Release(ctx context.Context) error {
	l.once.Do(func() {
		l.released.Store(true)
		<-l.slot
	})
	return nil
}
