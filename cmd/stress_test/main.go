package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/hotel-reservation/internal/adapter/storage"
	"github.com/rl1809/hotel-reservation/internal/core/domain"
	"github.com/rl1809/hotel-reservation/internal/core/service"
	"github.com/rl1809/hotel-reservation/internal/port"
)

const (
	hotelID       = "stress-hotel"
	roomCount     = 3
	totalRequests = 200
	maxStayNights = 4
	horizonDays   = 30
)

var horizonStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func main() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "reservation-stress-")
	if err != nil {
		log.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	ledger := storage.NewFileLedger(filepath.Join(dir, "reservations.json"))

	// REDIS_ADDR switches to the distributed lock.
	var locker port.Locker = storage.NewLocalLocker()
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer rdb.Close()
		locker = storage.NewRedisAdapter(rdb)
		log.Printf("using redis lock at %s", addr)
	}

	reservationService := service.NewReservationService(ledger, locker)

	var successCount, conflictCount, errorCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			rng := rand.New(rand.NewSource(int64(n)))
			first := horizonStart.AddDate(0, 0, rng.Intn(horizonDays))
			last := first.AddDate(0, 0, rng.Intn(maxStayNights))

			_, err := reservationService.Book(ctx, service.BookRequest{
				HotelID:    hotelID,
				CustomerID: fmt.Sprintf("customer-%d", n),
				RoomID:     fmt.Sprintf("room-%d", rng.Intn(roomCount)),
				StartDate:  first.Format(domain.DateLayout),
				EndDate:    last.Format(domain.DateLayout),
			})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, service.ErrConflict):
				conflictCount.Add(1)
			default:
				errorCount.Add(1)
				log.Printf("booking %d failed: %v", n, err)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	stored, err := ledger.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load ledger: %v", err)
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Rooms:            %d\n", roomCount)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Booked:           %d\n", successCount.Load())
	fmt.Printf("Conflicts:        %d\n", conflictCount.Load())
	fmt.Printf("Errors:           %d\n", errorCount.Load())
	fmt.Printf("Stored:           %d\n", len(stored))
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	failed := false
	if int(successCount.Load()) != len(stored) {
		fmt.Printf("FAIL: %d bookings succeeded but ledger holds %d\n", successCount.Load(), len(stored))
		failed = true
	}
	if a, b, ok := findOverlap(stored); ok {
		fmt.Printf("FAIL: %s and %s overlap on %s/%s\n", a.ID, b.ID, a.HotelID, a.RoomID)
		failed = true
	}
	if errorCount.Load() > 0 {
		failed = true
	}

	if failed {
		os.Exit(1)
	}
	fmt.Println("PASS: no room is double-booked")
}

func findOverlap(reservations []domain.Reservation) (domain.Reservation, domain.Reservation, bool) {
	for i := range reservations {
		for j := i + 1; j < len(reservations); j++ {
			a, b := reservations[i], reservations[j]
			if a.HotelID == b.HotelID && a.RoomID == b.RoomID && a.Range().Overlaps(b.Range()) {
				return a, b, true
			}
		}
	}
	return domain.Reservation{}, domain.Reservation{}, false
}
