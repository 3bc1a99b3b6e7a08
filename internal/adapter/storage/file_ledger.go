package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rl1809/hotel-reservation/internal/core/domain"
	"github.com/rl1809/hotel-reservation/internal/port"
)

// FileLedger stores the ledger as a JSON array in a single file. Writes go to
// a temporary file in the same directory which is then renamed over the
// ledger, so readers see either the old or the new ledger in full.
type FileLedger struct {
	path   string
	mu     sync.RWMutex
	rename func(oldpath, newpath string) error
}

func NewFileLedger(path string) *FileLedger {
	return &FileLedger{path: path, rename: os.Rename}
}

func (f *FileLedger) Load(ctx context.Context) ([]domain.Reservation, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Reservation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", port.ErrStoreUnavailable, f.path, err)
	}

	return decodeLedger(data)
}

func (f *FileLedger) Replace(ctx context.Context, reservations []domain.Reservation) error {
	data, err := json.MarshalIndent(nonNil(reservations), "", "    ")
	if err != nil {
		return fmt.Errorf("%w: encode ledger: %w", port.ErrStoreWriteFailed, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", port.ErrStoreWriteFailed, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write temp file: %w", port.ErrStoreWriteFailed, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync temp file: %w", port.ErrStoreWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %w", port.ErrStoreWriteFailed, err)
	}
	if err := f.rename(tmpName, f.path); err != nil {
		return fmt.Errorf("%w: rename into place: %w", port.ErrStoreWriteFailed, err)
	}
	return nil
}

func decodeLedger(data []byte) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	if err := json.Unmarshal(data, &reservations); err != nil {
		return nil, fmt.Errorf("%w: decode ledger: %w", port.ErrStoreCorrupt, err)
	}
	if err := validateLedger(reservations); err != nil {
		return nil, err
	}
	return nonNil(reservations), nil
}

// validateLedger rejects records that could never have been written by the
// service: malformed fields or duplicate ids.
func validateLedger(reservations []domain.Reservation) error {
	seen := make(map[string]struct{}, len(reservations))
	for _, r := range reservations {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: %w", port.ErrStoreCorrupt, err)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate reservation id %q", port.ErrStoreCorrupt, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

func nonNil(in []domain.Reservation) []domain.Reservation {
	if in == nil {
		return []domain.Reservation{}
	}
	return in
}
