package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type ReservationMetrics struct {
	bookings      *prometheus.CounterVec
	cancellations *prometheus.CounterVec
	idCollisions  prometheus.Counter
	droppedEvents prometheus.Counter
}

var (
	reservationOnce     sync.Once
	reservationRegistry *ReservationMetrics
)

// Reservations returns the process-wide reservation metrics, registering them
// with the default Prometheus registry on first use.
func Reservations() *ReservationMetrics {
	reservationOnce.Do(func() {
		reservationRegistry = &ReservationMetrics{
			bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "reservation_bookings_total",
				Help: "Booking attempts by outcome.",
			}, []string{"outcome"}),
			cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "reservation_cancellations_total",
				Help: "Cancellation attempts by outcome.",
			}, []string{"outcome"}),
			idCollisions: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "reservation_id_collisions_total",
				Help: "Generated reservation ids that collided with an existing one.",
			}),
			droppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "reservation_events_dropped_total",
				Help: "Reservation events dropped because the event queue was full.",
			}),
		}
		prometheus.MustRegister(
			reservationRegistry.bookings,
			reservationRegistry.cancellations,
			reservationRegistry.idCollisions,
			reservationRegistry.droppedEvents,
		)
	})
	return reservationRegistry
}

func (m *ReservationMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *ReservationMetrics) ObserveCancellation(outcome string) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.cancellations.WithLabelValues(outcome).Inc()
}

func (m *ReservationMetrics) ObserveIDCollision() {
	if m == nil {
		return
	}
	m.idCollisions.Inc()
}

func (m *ReservationMetrics) ObserveDroppedEvent() {
	if m == nil {
		return
	}
	m.droppedEvents.Inc()
}
