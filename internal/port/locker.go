package port

import "context"

type Lease interface {
	// Extend renews the lease, returns ErrLockLost if another holder may have taken the lock
	Extend(ctx context.Context) error

	// Release gives up the lock; releasing an expired lease is not an error
	Release(ctx context.Context) error
}

type Locker interface {
	// Lock blocks until the named lock is held or ctx is done
	Lock(ctx context.Context, key string) (Lease, error)
}
