package storage

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/hotel-reservation/internal/core/domain"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/hotel?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	return db
}

func setupMySQLAdapter(t *testing.T) (*MySQLAdapter, *sql.DB) {
	db := getMySQLDB(t)
	t.Cleanup(func() { db.Close() })

	adapter := NewMySQLAdapter(db)
	require.NoError(t, adapter.EnsureSchema(context.Background()))
	_, err := db.Exec(`DELETE FROM reservations`)
	require.NoError(t, err)
	return adapter, db
}

func TestMySQLLedger_RoundTrip(t *testing.T) {
	adapter, _ := setupMySQLAdapter(t)
	ctx := context.Background()

	empty, err := adapter.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, empty)

	in := sampleReservations(3)
	in[0], in[2] = in[2], in[0]
	require.NoError(t, adapter.Replace(ctx, in))

	out, err := adapter.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, in, out)

	require.NoError(t, adapter.Replace(ctx, in[1:]))
	out, err = adapter.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, in[1:], out)
}

func TestMySQLLedger_FailedReplaceKeepsPrevious(t *testing.T) {
	adapter, _ := setupMySQLAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Replace(ctx, sampleReservations(2)))

	// duplicate primary keys make the insert fail after the delete ran
	dup := append(sampleReservations(2), sampleReservations(1)...)
	require.Error(t, adapter.Replace(ctx, dup))

	out, err := adapter.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, sampleReservations(2), out)
}

func TestMySQLDirectory(t *testing.T) {
	adapter, db := setupMySQLAdapter(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT IGNORE INTO hotel_rooms (hotel_id, room_id) VALUES ('H-test', '101')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT IGNORE INTO customers (customer_id, name) VALUES ('C-test', 'Test')`)
	require.NoError(t, err)

	ok, err := adapter.RoomExists(ctx, "H-test", "101")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = adapter.RoomExists(ctx, "H-test", "999")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = adapter.CustomerExists(ctx, "C-test")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = adapter.CustomerExists(ctx, "C-missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMySQLLedger_DatesSurviveDateColumn(t *testing.T) {
	adapter, _ := setupMySQLAdapter(t)
	ctx := context.Background()

	in := []domain.Reservation{{
		ID: "R-leap", CustomerID: "C1", HotelID: "H1", RoomID: "1",
		StartDate: "2024-02-29", EndDate: "2024-03-01",
	}}
	require.NoError(t, adapter.Replace(ctx, in))

	out, err := adapter.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, in, out)
}
