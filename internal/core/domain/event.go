package domain

import "time"

type EventType string

const (
	EventReservationBooked    EventType = "reservation.booked"
	EventReservationCancelled EventType = "reservation.cancelled"
)

type ReservationEvent struct {
	Type        EventType   `json:"type"`
	Reservation Reservation `json:"reservation"`
	OccurredAt  time.Time   `json:"occurred_at"`
}
