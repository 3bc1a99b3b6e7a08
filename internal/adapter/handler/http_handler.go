package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rl1809/hotel-reservation/internal/core/domain"
	"github.com/rl1809/hotel-reservation/internal/core/service"
	"github.com/rl1809/hotel-reservation/internal/port"
)

type HTTPHandler struct {
	reservationService *service.ReservationService
}

type BookHTTPRequest struct {
	RequestID  string `json:"request_id"`
	HotelID    string `json:"hotel_id"`
	CustomerID string `json:"customer_id"`
	RoomID     string `json:"room_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

type ReservationHTTPResponse struct {
	Success                  bool                `json:"success"`
	Message                  string              `json:"message"`
	Reservation              *domain.Reservation `json:"reservation,omitempty"`
	ConflictingReservationID string              `json:"conflicting_reservation_id,omitempty"`
}

type CancelHTTPResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

type ListHTTPResponse struct {
	Reservations []domain.Reservation `json:"reservations"`
}

func NewHTTPHandler(reservationService *service.ReservationService) *HTTPHandler {
	return &HTTPHandler{reservationService: reservationService}
}

// Register mounts the reservation API, health check and metrics on e.
func (h *HTTPHandler) Register(e *echo.Echo) {
	e.GET("/health", h.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	g := e.Group("/api/reservations")
	g.POST("", h.Book)
	g.GET("", h.List)
	g.DELETE("/:id", h.Cancel)
}

func (h *HTTPHandler) Book(c echo.Context) error {
	var req BookHTTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ReservationHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
	}

	res, err := h.reservationService.Book(c.Request().Context(), service.BookRequest{
		HotelID:    req.HotelID,
		CustomerID: req.CustomerID,
		RoomID:     req.RoomID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		RequestID:  req.RequestID,
	})
	if err != nil {
		status, message := httpStatusFromError(err)
		resp := ReservationHTTPResponse{Success: false, Message: message}

		var conflict *service.ConflictError
		if errors.As(err, &conflict) {
			resp.ConflictingReservationID = conflict.ReservationID
		}
		return c.JSON(status, resp)
	}

	return c.JSON(http.StatusCreated, ReservationHTTPResponse{
		Success:     true,
		Message:     "reservation created",
		Reservation: &res,
	})
}

func (h *HTTPHandler) Cancel(c echo.Context) error {
	result, err := h.reservationService.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		status, message := httpStatusFromError(err)
		return c.JSON(status, CancelHTTPResponse{Success: false, Message: message})
	}

	return c.JSON(http.StatusOK, CancelHTTPResponse{
		Success: true,
		Result:  string(result),
	})
}

func (h *HTTPHandler) List(c echo.Context) error {
	reservations, err := h.reservationService.Reservations(c.Request().Context(), c.QueryParam("hotel_id"), c.QueryParam("room_id"))
	if err != nil {
		status, message := httpStatusFromError(err)
		return c.JSON(status, echo.Map{"error": message})
	}
	return c.JSON(http.StatusOK, ListHTTPResponse{Reservations: reservations})
}

func (h *HTTPHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func httpStatusFromError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "room not available for the selected dates"
	case errors.Is(err, port.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "reservation store unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
