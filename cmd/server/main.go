package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/rl1809/hotel-reservation/internal/adapter/handler"
	"github.com/rl1809/hotel-reservation/internal/adapter/messaging"
	"github.com/rl1809/hotel-reservation/internal/adapter/storage"
	"github.com/rl1809/hotel-reservation/internal/config"
	"github.com/rl1809/hotel-reservation/internal/core/domain"
	"github.com/rl1809/hotel-reservation/internal/core/service"
	"github.com/rl1809/hotel-reservation/internal/logging"
	"github.com/rl1809/hotel-reservation/internal/metrics"
	"github.com/rl1809/hotel-reservation/internal/port"
)

const serviceName = "hotel-reservation"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.Setup(serviceName, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("close resource", slog.Any("error", err))
			}
		}
		logger.Info("connections closed")
	}()

	// Ledger
	ledger, directory, closer, err := openLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("open ledger", slog.String("driver", cfg.LedgerDriver), slog.Any("error", err))
		os.Exit(1)
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(metrics.Reservations()),
		service.WithEventQueue(cfg.EventQueueSize),
		service.WithLockWait(cfg.LockWait),
	}
	if directory != nil {
		opts = append(opts, service.WithDirectory(directory))
	}

	// Lock and idempotency
	var locker port.Locker
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect redis", slog.String("addr", cfg.RedisAddr), slog.Any("error", err))
			os.Exit(1)
		}
		closers = append(closers, rdb)
		logger.Info("connected to redis", slog.String("addr", cfg.RedisAddr))

		redisAdapter := storage.NewRedisAdapter(rdb,
			storage.WithLockTTL(cfg.LockTTL),
			storage.WithIdempotencyTTL(cfg.IdempotencyTTL),
		)
		locker = redisAdapter
		opts = append(opts, service.WithCache(redisAdapter))
	} else {
		locker = storage.NewLocalLocker()
		logger.Info("using in-process ledger lock")
	}

	reservationService := service.NewReservationService(ledger, locker, opts...)

	// Event publisher
	var publisher port.EventPublisher
	if cfg.AMQPURL != "" {
		rabbit := messaging.NewRabbitMQPublisher(cfg.AMQPURL)
		closers = append(closers, rabbit)
		publisher = rabbit
		logger.Info("publishing events to rabbitmq", slog.String("queue", messaging.ReservationEventsQueue))
	} else {
		publisher = messaging.NewLogPublisher(logger)
	}

	// Start worker pool
	var wg sync.WaitGroup
	if events := reservationService.Events(); events != nil {
		for i := 0; i < cfg.WorkerCount; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				workerLoop(id, events, publisher, logger)
			}(i)
		}
		logger.Info("started event workers", slog.Int("count", cfg.WorkerCount))
	}

	// gRPC server
	grpcServer := grpc.NewServer()
	handler.RegisterReservationServiceServer(grpcServer, handler.NewGRPCHandler(reservationService))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen", slog.String("addr", cfg.GRPCAddr), slog.Any("error", err))
		os.Exit(1)
	}

	go func() {
		logger.Info("gRPC server listening", slog.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", slog.Any("error", err))
		}
	}()

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	handler.NewHTTPHandler(reservationService).Register(e)

	go func() {
		logger.Info("HTTP server listening", slog.String("addr", cfg.HTTPAddr))
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", slog.Any("error", err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// No request can emit anymore; drain the queue.
	reservationService.Close()
	wg.Wait()
	logger.Info("workers stopped")
}

// openLedger builds the configured ledger backend. The MySQL backend also
// serves as the room/customer directory when VALIDATE_DIRECTORY is set.
func openLedger(ctx context.Context, cfg config.Config, logger *slog.Logger) (port.LedgerRepository, port.Directory, io.Closer, error) {
	switch cfg.LedgerDriver {
	case config.LedgerDriverMemory:
		logger.Warn("using in-memory ledger; reservations are lost on exit")
		return storage.NewMemoryLedger(), nil, nil, nil

	case config.LedgerDriverBolt:
		bl, err := storage.NewBoltLedger(cfg.BoltPath, nil)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("opened bolt ledger", slog.String("path", cfg.BoltPath))
		return bl, nil, bl, nil

	case config.LedgerDriverMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		logger.Info("connected to mysql")

		adapter := storage.NewMySQLAdapter(db)
		if err := adapter.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		if cfg.ValidateDirectory {
			return adapter, adapter, db, nil
		}
		return adapter, nil, db, nil

	default:
		logger.Info("using file ledger", slog.String("path", cfg.LedgerPath))
		return storage.NewFileLedger(cfg.LedgerPath), nil, nil, nil
	}
}

func workerLoop(id int, events <-chan domain.ReservationEvent, publisher port.EventPublisher, logger *slog.Logger) {
	for event := range events {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		if err := publisher.Publish(ctx, event); err != nil {
			logger.Error("publish reservation event",
				slog.Int("worker", id),
				slog.String("type", string(event.Type)),
				slog.String("reservation_id", event.Reservation.ID),
				slog.Any("error", err))
		} else {
			logger.Debug("published reservation event",
				slog.Int("worker", id),
				slog.String("type", string(event.Type)),
				slog.String("reservation_id", event.Reservation.ID))
		}

		cancel()
	}
}
