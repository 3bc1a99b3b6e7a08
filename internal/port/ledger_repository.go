package port

import (
	"context"

	"github.com/rl1809/hotel-reservation/internal/core/domain"
)

type LedgerRepository interface {
	// Load returns the full ledger in stored order; an absent ledger is empty, not an error
	Load(ctx context.Context) ([]domain.Reservation, error)

	// Replace atomically overwrites the whole ledger; on failure the previous ledger stays intact
	Replace(ctx context.Context, reservations []domain.Reservation) error
}
