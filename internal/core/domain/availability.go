package domain

// CheckAvailability scans existing for a reservation of the same hotel and
// room whose dates overlap want. It returns the id of the first conflicting
// reservation and false, or "" and true when the room is free.
func CheckAvailability(existing []Reservation, hotelID, roomID string, want DateRange) (string, bool) {
	for _, r := range existing {
		if r.HotelID != hotelID || r.RoomID != roomID {
			continue
		}
		if r.Range().Overlaps(want) {
			return r.ID, false
		}
	}
	return "", true
}
