package messaging

import (
	"context"
	"log/slog"

	"github.com/rl1809/hotel-reservation/internal/core/domain"
)

// LogPublisher writes events to the log. It stands in when no broker is
// configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event domain.ReservationEvent) error {
	p.logger.InfoContext(ctx, "reservation event",
		slog.String("type", string(event.Type)),
		slog.String("reservation_id", event.Reservation.ID),
		slog.String("hotel_id", event.Reservation.HotelID),
		slog.String("room_id", event.Reservation.RoomID),
		slog.Time("occurred_at", event.OccurredAt))
	return nil
}
