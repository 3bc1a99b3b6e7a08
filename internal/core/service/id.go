package service

import "github.com/google/uuid"

const (
	reservationIDPrefix = "R-"
	maxIDAttempts       = 5
)

// IDGenerator mints candidate reservation ids. Candidates are checked against
// the ledger before use, so a generator may return duplicates.
type IDGenerator func() string

func NewID() string {
	return reservationIDPrefix + uuid.NewString()
}
