package storage

import (
	"context"
	"sync"

	"github.com/rl1809/hotel-reservation/internal/core/domain"
)

// MemoryLedger keeps the ledger in process memory. It loses everything on
// restart and suits tests and single-process demos.
type MemoryLedger struct {
	mu           sync.RWMutex
	reservations []domain.Reservation
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (m *MemoryLedger) Load(ctx context.Context) ([]domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneReservations(m.reservations), nil
}

func (m *MemoryLedger) Replace(ctx context.Context, reservations []domain.Reservation) error {
	next := cloneReservations(reservations)
	m.mu.Lock()
	m.reservations = next
	m.mu.Unlock()
	return nil
}

func cloneReservations(in []domain.Reservation) []domain.Reservation {
	out := make([]domain.Reservation, len(in))
	copy(out, in)
	return out
}
