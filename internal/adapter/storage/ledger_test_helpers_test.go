package storage

import (
	"fmt"

	"github.com/rl1809/hotel-reservation/internal/core/domain"
)

func sampleReservations(n int) []domain.Reservation {
	out := make([]domain.Reservation, n)
	for i := range out {
		out[i] = domain.Reservation{
			ID:         fmt.Sprintf("R-%03d", i),
			CustomerID: fmt.Sprintf("C%d", i%3),
			HotelID:    "H001",
			RoomID:     fmt.Sprintf("%d", 100+i),
			StartDate:  "2024-01-01",
			EndDate:    "2024-01-07",
		}
	}
	return out
}
