package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rl1809/hotel-reservation/internal/core/domain"
	"github.com/rl1809/hotel-reservation/internal/port"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS reservations (
		seq            INT UNSIGNED NOT NULL,
		reservation_id VARCHAR(64)  NOT NULL PRIMARY KEY,
		customer_id    VARCHAR(64)  NOT NULL,
		hotel_id       VARCHAR(64)  NOT NULL,
		room_id        VARCHAR(64)  NOT NULL,
		start_date     DATE         NOT NULL,
		end_date       DATE         NOT NULL,
		KEY idx_reservations_room (hotel_id, room_id),
		KEY idx_reservations_seq (seq)
	)`,
	`CREATE TABLE IF NOT EXISTS hotel_rooms (
		hotel_id VARCHAR(64) NOT NULL,
		room_id  VARCHAR(64) NOT NULL,
		PRIMARY KEY (hotel_id, room_id)
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		customer_id VARCHAR(64)  NOT NULL PRIMARY KEY,
		name        VARCHAR(255) NOT NULL DEFAULT '',
		email       VARCHAR(255) NOT NULL DEFAULT '',
		phone       VARCHAR(64)  NOT NULL DEFAULT ''
	)`,
}

// insertBatchSize bounds the number of rows per multi-row INSERT.
const insertBatchSize = 500

// MySQLAdapter is both a ledger store and a read-only hotel/customer
// directory. Replace swaps the reservations table contents inside one
// transaction.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) Load(ctx context.Context) ([]domain.Reservation, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT reservation_id, customer_id, hotel_id, room_id,
		       DATE_FORMAT(start_date, '%Y-%m-%d'), DATE_FORMAT(end_date, '%Y-%m-%d')
		FROM reservations ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("%w: query reservations: %w", port.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	reservations := []domain.Reservation{}
	for rows.Next() {
		var r domain.Reservation
		var start, end string
		if err := rows.Scan(&r.ID, &r.CustomerID, &r.HotelID, &r.RoomID, &start, &end); err != nil {
			return nil, fmt.Errorf("%w: scan reservation: %w", port.ErrStoreCorrupt, err)
		}
		r.StartDate = domain.Date(start)
		r.EndDate = domain.Date(end)
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate reservations: %w", port.ErrStoreUnavailable, err)
	}

	if err := validateLedger(reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

func (m *MySQLAdapter) Replace(ctx context.Context, reservations []domain.Reservation) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %w", port.ErrStoreWriteFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations`); err != nil {
		return fmt.Errorf("%w: clear reservations: %w", port.ErrStoreWriteFailed, err)
	}

	for start := 0; start < len(reservations); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(reservations) {
			end = len(reservations)
		}
		if err := insertBatch(ctx, tx, start, reservations[start:end]); err != nil {
			return fmt.Errorf("%w: insert reservations: %w", port.ErrStoreWriteFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", port.ErrStoreWriteFailed, err)
	}
	return nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, offset int, batch []domain.Reservation) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO reservations (seq, reservation_id, customer_id, hotel_id, room_id, start_date, end_date) VALUES `)
	args := make([]interface{}, 0, len(batch)*7)
	for i, r := range batch {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, offset+i, r.ID, r.CustomerID, r.HotelID, r.RoomID, string(r.StartDate), string(r.EndDate))
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

func (m *MySQLAdapter) RoomExists(ctx context.Context, hotelID, roomID string) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM hotel_rooms WHERE hotel_id = ? AND room_id = ?)`,
		hotelID, roomID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query room: %w", err)
	}
	return exists, nil
}

func (m *MySQLAdapter) CustomerExists(ctx context.Context, customerID string) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE customer_id = ?)`, customerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query customer: %w", err)
	}
	return exists, nil
}
