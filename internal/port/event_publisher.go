package port

import (
	"context"

	"github.com/rl1809/hotel-reservation/internal/core/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, event domain.ReservationEvent) error
}
