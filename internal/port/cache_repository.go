package port

import "context"

type CacheRepository interface {
	// GetIdempotency returns the reservation id recorded for a request key
	GetIdempotency(ctx context.Context, key string) (string, bool, error)

	// SetIdempotency records the reservation id for a request key, replacing any earlier one
	SetIdempotency(ctx context.Context, key, reservationID string) error
}
