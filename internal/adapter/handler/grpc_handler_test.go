package handler

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rl1809/hotel-reservation/internal/adapter/storage"
	"github.com/rl1809/hotel-reservation/internal/core/service"
	"github.com/rl1809/hotel-reservation/internal/port"
)

func startGRPC(t *testing.T, ledger port.LedgerRepository) *ReservationClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	srv := grpc.NewServer()
	svc := service.NewReservationService(ledger, storage.NewLocalLocker())
	RegisterReservationServiceServer(srv, NewGRPCHandler(svc))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewReservationClient(conn)
}

func TestGRPC_BookListCancel(t *testing.T) {
	client := startGRPC(t, storage.NewMemoryLedger())
	ctx := context.Background()

	booked, err := client.Book(ctx, &BookReservationRequest{
		HotelID: "H1", CustomerID: "C1", RoomID: "R1",
		StartDate: "2024-01-01", EndDate: "2024-01-07",
	})
	require.NoError(t, err)
	require.NotEmpty(t, booked.Reservation.ID)

	list, err := client.List(ctx, &ListReservationsRequest{HotelID: "H1", RoomID: "R1"})
	require.NoError(t, err)
	require.Len(t, list.Reservations, 1)
	require.Equal(t, booked.Reservation, list.Reservations[0])

	_, err = client.Book(ctx, &BookReservationRequest{
		HotelID: "H1", CustomerID: "C2", RoomID: "R1",
		StartDate: "2024-01-07", EndDate: "2024-01-10",
	})
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	cancelled, err := client.Cancel(ctx, &CancelReservationRequest{ReservationID: booked.Reservation.ID})
	require.NoError(t, err)
	require.Equal(t, string(service.CancelResultCancelled), cancelled.Result)

	cancelled, err = client.Cancel(ctx, &CancelReservationRequest{ReservationID: booked.Reservation.ID})
	require.NoError(t, err)
	require.Equal(t, string(service.CancelResultNotFound), cancelled.Result)
}

func TestGRPC_ErrorCodes(t *testing.T) {
	ctx := context.Background()

	client := startGRPC(t, storage.NewMemoryLedger())
	_, err := client.Book(ctx, &BookReservationRequest{HotelID: "H1"})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Cancel(ctx, &CancelReservationRequest{})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	unavailable := startGRPC(t, failingLedger{})
	_, err = unavailable.List(ctx, &ListReservationsRequest{})
	require.Equal(t, codes.Unavailable, status.Code(err))
}
