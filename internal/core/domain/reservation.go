package domain

import (
	"fmt"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used for every persisted date.
const DateLayout = "2006-01-02"

// Date is a calendar date in YYYY-MM-DD form. Values produced by ParseDate
// compare lexically in chronological order.
type Date string

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", s, err)
	}
	// reject non-canonical forms such as "2024-1-05"
	if t.Format(DateLayout) != s {
		return "", fmt.Errorf("parse date %q: not in %s form", s, DateLayout)
	}
	return Date(s), nil
}

func (d Date) Before(o Date) bool { return d < o }
func (d Date) After(o Date) bool  { return d > o }
func (d Date) String() string     { return string(d) }

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start Date
	End   Date
}

// Overlaps reports whether both inclusive ranges share at least one date.
func (r DateRange) Overlaps(o DateRange) bool {
	return !(r.End.Before(o.Start) || r.Start.After(o.End))
}

type Reservation struct {
	ID         string `json:"reservation_id"`
	CustomerID string `json:"customer_id"`
	HotelID    string `json:"hotel_id"`
	RoomID     string `json:"room_id"`
	StartDate  Date   `json:"start_date"`
	EndDate    Date   `json:"end_date"`
}

func (r Reservation) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

// Validate checks a record loaded from storage. It is used by ledger adapters
// to detect corrupt entries.
func (r Reservation) Validate() error {
	if r.ID == "" || r.HotelID == "" || r.RoomID == "" || r.CustomerID == "" {
		return fmt.Errorf("reservation %q: missing identifier", r.ID)
	}
	if _, err := ParseDate(string(r.StartDate)); err != nil {
		return fmt.Errorf("reservation %q: %w", r.ID, err)
	}
	if _, err := ParseDate(string(r.EndDate)); err != nil {
		return fmt.Errorf("reservation %q: %w", r.ID, err)
	}
	if r.StartDate.After(r.EndDate) {
		return fmt.Errorf("reservation %q: start_date after end_date", r.ID)
	}
	return nil
}
