package port

import "context"

// Directory answers existence questions about hotels, rooms and customers
// owned by other services.
type Directory interface {
	RoomExists(ctx context.Context, hotelID, roomID string) (bool, error)
	CustomerExists(ctx context.Context, customerID string) (bool, error)
}
