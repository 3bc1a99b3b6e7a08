package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("invalid reservation request")
	ErrConflict    = errors.New("room not available for the selected dates")
	ErrIDExhausted = errors.New("could not generate a unique reservation id")
)

// ValidationError names the offending field of a rejected request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError carries the id of the reservation that blocks a booking.
type ConflictError struct {
	ReservationID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: overlaps reservation %s", ErrConflict, e.ReservationID)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
