package port

import "errors"

// Ledger adapters wrap their failures with one of these so callers can
// classify them without knowing the backing store.
var (
	ErrStoreUnavailable = errors.New("ledger store unavailable")
	ErrStoreCorrupt     = errors.New("ledger store corrupt")
	ErrStoreWriteFailed = errors.New("ledger store write failed")
)

// ErrLockLost is returned by Lease.Extend once the lock has expired or been
// released.
var ErrLockLost = errors.New("lock no longer held")
