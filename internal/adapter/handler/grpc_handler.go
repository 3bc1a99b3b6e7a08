package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/hotel-reservation/internal/core/domain"
	"github.com/rl1809/hotel-reservation/internal/core/service"
	"github.com/rl1809/hotel-reservation/internal/port"
)

const reservationServiceName = "hotel.reservation.v1.ReservationService"

const (
	bookFullMethod   = "/" + reservationServiceName + "/Book"
	cancelFullMethod = "/" + reservationServiceName + "/Cancel"
	listFullMethod   = "/" + reservationServiceName + "/List"
)

type BookReservationRequest struct {
	RequestID  string `json:"request_id"`
	HotelID    string `json:"hotel_id"`
	CustomerID string `json:"customer_id"`
	RoomID     string `json:"room_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

type BookReservationResponse struct {
	Reservation domain.Reservation `json:"reservation"`
}

type CancelReservationRequest struct {
	ReservationID string `json:"reservation_id"`
}

type CancelReservationResponse struct {
	Result string `json:"result"`
}

type ListReservationsRequest struct {
	HotelID string `json:"hotel_id"`
	RoomID  string `json:"room_id"`
}

type ListReservationsResponse struct {
	Reservations []domain.Reservation `json:"reservations"`
}

type ReservationServiceServer interface {
	Book(context.Context, *BookReservationRequest) (*BookReservationResponse, error)
	Cancel(context.Context, *CancelReservationRequest) (*CancelReservationResponse, error)
	List(context.Context, *ListReservationsRequest) (*ListReservationsResponse, error)
}

func RegisterReservationServiceServer(s grpc.ServiceRegistrar, srv ReservationServiceServer) {
	s.RegisterService(&ReservationServiceDesc, srv)
}

var ReservationServiceDesc = grpc.ServiceDesc{
	ServiceName: reservationServiceName,
	HandlerType: (*ReservationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Book", Handler: bookHandler},
		{MethodName: "Cancel", Handler: cancelHandler},
		{MethodName: "List", Handler: listHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func bookHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BookReservationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReservationServiceServer).Book(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: bookFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReservationServiceServer).Book(ctx, req.(*BookReservationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func cancelHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CancelReservationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReservationServiceServer).Cancel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: cancelFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReservationServiceServer).Cancel(ctx, req.(*CancelReservationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListReservationsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReservationServiceServer).List(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReservationServiceServer).List(ctx, req.(*ListReservationsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

type GRPCHandler struct {
	reservationService *service.ReservationService
}

func NewGRPCHandler(reservationService *service.ReservationService) *GRPCHandler {
	return &GRPCHandler{reservationService: reservationService}
}

func (h *GRPCHandler) Book(ctx context.Context, req *BookReservationRequest) (*BookReservationResponse, error) {
	res, err := h.reservationService.Book(ctx, service.BookRequest{
		HotelID:    req.HotelID,
		CustomerID: req.CustomerID,
		RoomID:     req.RoomID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		RequestID:  req.RequestID,
	})
	if err != nil {
		return nil, statusFromError(err)
	}
	return &BookReservationResponse{Reservation: res}, nil
}

func (h *GRPCHandler) Cancel(ctx context.Context, req *CancelReservationRequest) (*CancelReservationResponse, error) {
	result, err := h.reservationService.Cancel(ctx, req.ReservationID)
	if err != nil {
		return nil, statusFromError(err)
	}
	return &CancelReservationResponse{Result: string(result)}, nil
}

func (h *GRPCHandler) List(ctx context.Context, req *ListReservationsRequest) (*ListReservationsResponse, error) {
	reservations, err := h.reservationService.Reservations(ctx, req.HotelID, req.RoomID)
	if err != nil {
		return nil, statusFromError(err)
	}
	return &ListReservationsResponse{Reservations: reservations}, nil
}

func statusFromError(err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrConflict):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, port.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, "reservation store unavailable")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// ReservationClient calls the reservation service over a gRPC connection
// using the JSON codec.
type ReservationClient struct {
	cc grpc.ClientConnInterface
}

func NewReservationClient(cc grpc.ClientConnInterface) *ReservationClient {
	return &ReservationClient{cc: cc}
}

func (c *ReservationClient) Book(ctx context.Context, in *BookReservationRequest, opts ...grpc.CallOption) (*BookReservationResponse, error) {
	out := new(BookReservationResponse)
	if err := c.cc.Invoke(ctx, bookFullMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReservationClient) Cancel(ctx context.Context, in *CancelReservationRequest, opts ...grpc.CallOption) (*CancelReservationResponse, error) {
	out := new(CancelReservationResponse)
	if err := c.cc.Invoke(ctx, cancelFullMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReservationClient) List(ctx context.Context, in *ListReservationsRequest, opts ...grpc.CallOption) (*ListReservationsResponse, error) {
	out := new(ListReservationsResponse)
	if err := c.cc.Invoke(ctx, listFullMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withJSON(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
}
