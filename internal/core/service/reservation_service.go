package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rl1809/hotel-reservation/internal/core/domain"
	"github.com/rl1809/hotel-reservation/internal/metrics"
	"github.com/rl1809/hotel-reservation/internal/port"
)

// Replace overwrites the whole ledger, so every read-modify-write must hold
// the same lock regardless of which room it touches.
const ledgerLockKey = "lock:ledger:reservations"

const idempotencyKeyPrefix = "reservation:request:"

type CancelResult string

const (
	CancelResultCancelled CancelResult = "cancelled"
	CancelResultNotFound  CancelResult = "not_found"
)

type BookRequest struct {
	HotelID    string
	CustomerID string
	RoomID     string
	StartDate  string
	EndDate    string
	// RequestID is optional; retries carrying the same id return the original reservation.
	RequestID string
}

func (r BookRequest) validate() (domain.DateRange, error) {
	required := []struct{ field, value string }{
		{"hotel_id", r.HotelID},
		{"customer_id", r.CustomerID},
		{"room_id", r.RoomID},
		{"start_date", r.StartDate},
		{"end_date", r.EndDate},
	}
	for _, f := range required {
		if f.value == "" {
			return domain.DateRange{}, &ValidationError{Field: f.field, Reason: "is required"}
		}
	}

	start, err := domain.ParseDate(r.StartDate)
	if err != nil {
		return domain.DateRange{}, &ValidationError{Field: "start_date", Reason: "must be a YYYY-MM-DD date"}
	}
	end, err := domain.ParseDate(r.EndDate)
	if err != nil {
		return domain.DateRange{}, &ValidationError{Field: "end_date", Reason: "must be a YYYY-MM-DD date"}
	}
	if start.After(end) {
		return domain.DateRange{}, &ValidationError{Field: "end_date", Reason: "must not be before start_date"}
	}
	return domain.DateRange{Start: start, End: end}, nil
}

type Option func(*ReservationService)

func WithDirectory(d port.Directory) Option {
	return func(s *ReservationService) { s.directory = d }
}

func WithCache(c port.CacheRepository) Option {
	return func(s *ReservationService) { s.cache = c }
}

func WithIDGenerator(g IDGenerator) Option {
	return func(s *ReservationService) { s.newID = g }
}

func WithMetrics(m *metrics.ReservationMetrics) Option {
	return func(s *ReservationService) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *ReservationService) { s.logger = l }
}

// WithLockWait bounds how long a call waits for the ledger lock.
func WithLockWait(d time.Duration) Option {
	return func(s *ReservationService) { s.lockWait = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *ReservationService) { s.now = now }
}

// WithEventQueue enables reservation events buffered up to size. Events that
// do not fit are dropped.
func WithEventQueue(size int) Option {
	return func(s *ReservationService) {
		if size > 0 {
			s.events = make(chan domain.ReservationEvent, size)
		}
	}
}

type ReservationService struct {
	ledger    port.LedgerRepository
	locker    port.Locker
	directory port.Directory
	cache     port.CacheRepository
	newID     IDGenerator
	metrics   *metrics.ReservationMetrics
	logger    *slog.Logger
	now       func() time.Time
	lockWait  time.Duration

	eventsMu sync.RWMutex
	events   chan domain.ReservationEvent
	closed   bool
}

func NewReservationService(ledger port.LedgerRepository, locker port.Locker, opts ...Option) *ReservationService {
	s := &ReservationService{
		ledger: ledger,
		locker: locker,
		newID:  NewID,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Book reserves the room for the inclusive date range in req and returns the
// stored record. Overlapping an existing reservation of the same hotel room
// yields a *ConflictError.
func (s *ReservationService) Book(ctx context.Context, req BookRequest) (domain.Reservation, error) {
	want, err := req.validate()
	if err != nil {
		s.metrics.ObserveBooking("invalid")
		return domain.Reservation{}, err
	}
	if err := s.checkDirectory(ctx, req); err != nil {
		if errors.Is(err, ErrValidation) {
			s.metrics.ObserveBooking("invalid")
		} else {
			s.metrics.ObserveBooking("error")
		}
		return domain.Reservation{}, err
	}

	lease, err := s.lock(ctx)
	if err != nil {
		s.metrics.ObserveBooking("error")
		return domain.Reservation{}, err
	}
	defer s.release(lease)

	current, err := s.ledger.Load(ctx)
	if err != nil {
		s.metrics.ObserveBooking("error")
		return domain.Reservation{}, fmt.Errorf("load ledger: %w", err)
	}

	if existing, ok := s.replay(ctx, req.RequestID, current); ok {
		s.metrics.ObserveBooking("replayed")
		return existing, nil
	}

	if conflictID, free := domain.CheckAvailability(current, req.HotelID, req.RoomID, want); !free {
		s.metrics.ObserveBooking("conflict")
		s.logger.Info("booking rejected",
			slog.String("hotel_id", req.HotelID),
			slog.String("room_id", req.RoomID),
			slog.String("conflicts_with", conflictID))
		return domain.Reservation{}, &ConflictError{ReservationID: conflictID}
	}

	id, err := s.mintID(current)
	if err != nil {
		s.metrics.ObserveBooking("error")
		return domain.Reservation{}, err
	}

	res := domain.Reservation{
		ID:         id,
		CustomerID: req.CustomerID,
		HotelID:    req.HotelID,
		RoomID:     req.RoomID,
		StartDate:  want.Start,
		EndDate:    want.End,
	}

	next := make([]domain.Reservation, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, res)
	if err := s.confirm(ctx, lease); err != nil {
		s.metrics.ObserveBooking("error")
		return domain.Reservation{}, err
	}
	if err := s.ledger.Replace(ctx, next); err != nil {
		s.metrics.ObserveBooking("error")
		return domain.Reservation{}, fmt.Errorf("persist reservation: %w", err)
	}

	s.remember(ctx, req.RequestID, res.ID)
	s.emit(domain.EventReservationBooked, res)
	s.metrics.ObserveBooking("booked")
	s.logger.Info("reservation booked",
		slog.String("reservation_id", res.ID),
		slog.String("hotel_id", res.HotelID),
		slog.String("room_id", res.RoomID),
		slog.String("start_date", res.StartDate.String()),
		slog.String("end_date", res.EndDate.String()))

	return res, nil
}

// Cancel removes the reservation. An unknown id is reported as
// CancelResultNotFound, not as an error.
func (s *ReservationService) Cancel(ctx context.Context, reservationID string) (CancelResult, error) {
	if reservationID == "" {
		s.metrics.ObserveCancellation("invalid")
		return "", &ValidationError{Field: "reservation_id", Reason: "is required"}
	}

	lease, err := s.lock(ctx)
	if err != nil {
		s.metrics.ObserveCancellation("error")
		return "", err
	}
	defer s.release(lease)

	current, err := s.ledger.Load(ctx)
	if err != nil {
		s.metrics.ObserveCancellation("error")
		return "", fmt.Errorf("load ledger: %w", err)
	}

	idx := -1
	for i, r := range current {
		if r.ID == reservationID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.metrics.ObserveCancellation("not_found")
		return CancelResultNotFound, nil
	}
	removed := current[idx]

	next := make([]domain.Reservation, 0, len(current)-1)
	next = append(next, current[:idx]...)
	next = append(next, current[idx+1:]...)
	if err := s.confirm(ctx, lease); err != nil {
		s.metrics.ObserveCancellation("error")
		return "", err
	}
	if err := s.ledger.Replace(ctx, next); err != nil {
		s.metrics.ObserveCancellation("error")
		return "", fmt.Errorf("persist cancellation: %w", err)
	}

	s.emit(domain.EventReservationCancelled, removed)
	s.metrics.ObserveCancellation("cancelled")
	s.logger.Info("reservation cancelled", slog.String("reservation_id", removed.ID))

	return CancelResultCancelled, nil
}

// Reservations lists the ledger, narrowed to a hotel and room when given.
// The returned slice is owned by the caller.
func (s *ReservationService) Reservations(ctx context.Context, hotelID, roomID string) ([]domain.Reservation, error) {
	current, err := s.ledger.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	out := make([]domain.Reservation, 0, len(current))
	for _, r := range current {
		if hotelID != "" && r.HotelID != hotelID {
			continue
		}
		if roomID != "" && r.RoomID != roomID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Events exposes booked/cancelled events; nil unless WithEventQueue was used.
func (s *ReservationService) Events() <-chan domain.ReservationEvent {
	return s.events
}

func (s *ReservationService) Close() {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.events != nil {
		close(s.events)
	}
}

func (s *ReservationService) lock(ctx context.Context) (port.Lease, error) {
	if s.lockWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.lockWait)
		defer cancel()
	}
	lease, err := s.locker.Lock(ctx, ledgerLockKey)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire ledger lock: %w", port.ErrStoreUnavailable, err)
	}
	return lease, nil
}

// confirm renews the lease right before a write. A lease that expired while
// the ledger was being read may have let another writer in, so the write is
// abandoned.
func (s *ReservationService) confirm(ctx context.Context, lease port.Lease) error {
	if err := lease.Extend(ctx); err != nil {
		s.logger.Warn("ledger lock lost before write", slog.Any("error", err))
		return fmt.Errorf("%w: %w", port.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *ReservationService) release(lease port.Lease) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := lease.Release(ctx); err != nil {
		s.logger.Warn("release ledger lock", slog.Any("error", err))
	}
}

func (s *ReservationService) checkDirectory(ctx context.Context, req BookRequest) error {
	if s.directory == nil {
		return nil
	}

	ok, err := s.directory.RoomExists(ctx, req.HotelID, req.RoomID)
	if err != nil {
		return fmt.Errorf("check room: %w", err)
	}
	if !ok {
		return &ValidationError{Field: "room_id", Reason: "does not exist in hotel " + req.HotelID}
	}

	ok, err = s.directory.CustomerExists(ctx, req.CustomerID)
	if err != nil {
		return fmt.Errorf("check customer: %w", err)
	}
	if !ok {
		return &ValidationError{Field: "customer_id", Reason: "does not exist"}
	}
	return nil
}

func (s *ReservationService) mintID(current []domain.Reservation) (string, error) {
	taken := make(map[string]struct{}, len(current))
	for _, r := range current {
		taken[r.ID] = struct{}{}
	}

	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if _, dup := taken[id]; id != "" && !dup {
			return id, nil
		}
		s.metrics.ObserveIDCollision()
		s.logger.Warn("reservation id collision", slog.String("reservation_id", id))
	}
	return "", ErrIDExhausted
}

// replay returns the reservation previously booked under requestID, if it is
// still in the ledger.
func (s *ReservationService) replay(ctx context.Context, requestID string, current []domain.Reservation) (domain.Reservation, bool) {
	if s.cache == nil || requestID == "" {
		return domain.Reservation{}, false
	}

	id, ok, err := s.cache.GetIdempotency(ctx, idempotencyKeyPrefix+requestID)
	if err != nil {
		s.logger.Warn("idempotency lookup failed", slog.String("request_id", requestID), slog.Any("error", err))
		return domain.Reservation{}, false
	}
	if !ok {
		return domain.Reservation{}, false
	}
	for _, r := range current {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Reservation{}, false
}

func (s *ReservationService) remember(ctx context.Context, requestID, reservationID string) {
	if s.cache == nil || requestID == "" {
		return
	}
	if err := s.cache.SetIdempotency(ctx, idempotencyKeyPrefix+requestID, reservationID); err != nil {
		s.logger.Warn("idempotency record failed", slog.String("request_id", requestID), slog.Any("error", err))
	}
}

func (s *ReservationService) emit(kind domain.EventType, res domain.Reservation) {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	if s.events == nil || s.closed {
		return
	}

	ev := domain.ReservationEvent{Type: kind, Reservation: res, OccurredAt: s.now().UTC()}
	select {
	case s.events <- ev:
	default:
		s.metrics.ObserveDroppedEvent()
		s.logger.Warn("event queue full, dropping event",
			slog.String("type", string(kind)),
			slog.String("reservation_id", res.ID))
	}
}
