package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/rl1809/hotel-reservation/internal/core/domain"
	"github.com/rl1809/hotel-reservation/internal/port"
)

var bucketReservations = []byte("reservations")

// BoltLedger keeps the ledger in a BoltDB file. Records are keyed by their
// big-endian position so iteration returns them in ledger order; Replace
// rebuilds the bucket inside a single write transaction.
type BoltLedger struct {
	db *bolt.DB
}

func NewBoltLedger(path string, options *bolt.Options) (*BoltLedger, error) {
	if options == nil {
		options = &bolt.Options{Timeout: time.Second}
	} else if options.Timeout == 0 {
		options.Timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", port.ErrStoreUnavailable, path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketReservations)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create bucket: %w", port.ErrStoreUnavailable, err)
	}
	return &BoltLedger{db: db}, nil
}

func (b *BoltLedger) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *BoltLedger) Load(ctx context.Context) ([]domain.Reservation, error) {
	reservations := []domain.Reservation{}
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketReservations)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var r domain.Reservation
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("%w: decode record %x: %w", port.ErrStoreCorrupt, k, err)
			}
			reservations = append(reservations, r)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, port.ErrStoreCorrupt) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read ledger: %w", port.ErrStoreUnavailable, err)
	}
	if err := validateLedger(reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

func (b *BoltLedger) Replace(ctx context.Context, reservations []domain.Reservation) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketReservations); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		bucket, err := tx.CreateBucket(bucketReservations)
		if err != nil {
			return err
		}
		for i, r := range reservations {
			encoded, err := json.Marshal(r)
			if err != nil {
				return err
			}
			if err := bucket.Put(positionKey(i), encoded); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", port.ErrStoreWriteFailed, err)
	}
	return nil
}

func positionKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}
