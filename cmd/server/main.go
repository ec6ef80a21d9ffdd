package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go-gin-event-booking/config"
	"go-gin-event-booking/internal/cache"
	"go-gin-event-booking/internal/database"
	"go-gin-event-booking/internal/handler"
	"go-gin-event-booking/internal/queue"
	"go-gin-event-booking/internal/refund"
	"go-gin-event-booking/internal/repository"
	"go-gin-event-booking/internal/service"
	"go-gin-event-booking/internal/worker"
	"go-gin-event-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.LoadConfig()); err != nil {
		logger.L.Error("server exited with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger.SetLevel(cfg.Server.LogLevel)
	gin.SetMode(cfg.Server.Mode)
	log := logger.WithComponent("server")

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer rdb.Close()

	events, err := newQueue(ctx, cfg.Queue, rdb)
	if err != nil {
		return err
	}

	tier, err := refund.ParseTier(cfg.Booking.DefaultRefundPolicy)
	if err != nil {
		return fmt.Errorf("BOOKING_DEFAULT_REFUND_POLICY: %w", err)
	}
	policy := service.BookingPolicy{
		CancellationWindow:   cfg.Booking.CancellationWindow,
		DefaultRefundTier:    tier,
		MaxTicketsPerBooking: cfg.Booking.MaxTicketsPerBooking,
	}

	eventRepo := repository.NewEventRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	transactor := database.NewTransactor(pool, cfg.Database.QueryTimeout)
	availability := cache.NewRedisAvailabilityCache(rdb, cfg.Redis.AvailabilityTTL)

	eventService := service.NewEventService(eventRepo, availability, policy)
	bookingService := service.NewBookingService(transactor, eventRepo, bookingRepo, events, policy)
	bookingWorker := worker.NewBookingWorker(eventService, events)

	router := handler.NewRouter(
		handler.RouterConfig{JWTSecret: cfg.Auth.JWTSecret, AllowedOrigins: cfg.Server.AllowedOrigins},
		handler.NewEventHandler(eventService),
		handler.NewBookingHandler(bookingService),
		handler.NewHealthHandler(map[string]handler.Check{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
	)
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bookingWorker.Run(ctx)
	})

	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newQueue(ctx context.Context, cfg config.QueueConfig, rdb *redis.Client) (queue.BookingEventQueue, error) {
	switch cfg.Driver {
	case "memory":
		return queue.NewMemoryQueue(cfg.BufferSize), nil
	case "redis", "":
		q, err := queue.NewRedisStreamQueue(ctx, rdb, cfg.ConsumerID, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize booking event stream: %w", err)
		}
		return q, nil
	default:
		return nil, fmt.Errorf("unknown QUEUE_DRIVER %q", cfg.Driver)
	}
}
