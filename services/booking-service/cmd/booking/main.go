package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/smartmeeting/room-booking/pkg/auth"
	"github.com/smartmeeting/room-booking/pkg/config"
	"github.com/smartmeeting/room-booking/pkg/db"
	"github.com/smartmeeting/room-booking/pkg/mq"
	"github.com/smartmeeting/room-booking/pkg/obs"
	"github.com/smartmeeting/room-booking/services/booking-service/internal/events"
	"github.com/smartmeeting/room-booking/services/booking-service/internal/repository"
	"github.com/smartmeeting/room-booking/services/booking-service/internal/roomlock"
	"github.com/smartmeeting/room-booking/services/booking-service/internal/rooms"
	"github.com/smartmeeting/room-booking/services/booking-service/internal/service"
	httpx "github.com/smartmeeting/room-booking/services/booking-service/internal/transport/http"
)

type store interface {
	service.Store
	Ping(ctx context.Context) error
}

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal().Err(err).Msg("booking-service startup failed")
	}
	return v
}

func openStore(cfg config.Booking) (store, error) {
	if cfg.Store == "memory" {
		log.Warn().Msg("Using in-memory booking store, data is lost on restart")
		return repository.NewMemoryRepo(), nil
	}
	if cfg.PGBookingDSN == "" {
		return nil, errors.New("PG_BOOKING_DSN is required when BOOKING_STORE=postgres")
	}
	gdb, err := db.Open(cfg.PGBookingDSN)
	if err != nil {
		return nil, err
	}
	repo := repository.NewBookingRepo(gdb)
	if err := repo.Migrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

func newLocker(ctx context.Context, cfg config.Booking) service.RoomLocker {
	if cfg.RoomLock != "redis" {
		return roomlock.NewLocal()
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err := client.Ping(ctx).Err(); err != nil {
		// writes fail until redis is reachable; reads keep working
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis not reachable at startup")
	}
	return roomlock.NewRedis(client, cfg.RoomLockTTL)
}

func brokerHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func main() {
	cfg, err := config.LoadBooking()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	obs.SetupLogger("booking-service", cfg.Env, cfg.LogLevel)
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracer := must(obs.InitTracer("booking-service", cfg.Env, cfg.OTelEndpoint))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := must(openStore(cfg))

	// the broker connection is opened lazily on first publish
	broker := mq.NewPublisher(cfg.RabbitURL, cfg.BookingExchange, cfg.PublishTimeout)
	pub := events.NewPublisher(broker, cfg.PublishTimeout)

	svc := service.NewBookingSvc(
		st,
		rooms.NewDirectory(cfg.RoomsURL, cfg.RoomsTimeout),
		pub,
		newLocker(ctx, cfg),
	)

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpx.NewRouter(httpx.RouterDeps{
			Service:    svc,
			Verifier:   auth.NewVerifier(cfg.JWTSecret),
			Store:      st,
			BrokerHost: brokerHost(cfg.RabbitURL),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.Store).Str("room_lock", cfg.RoomLock).Msg("booking-service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		pub.Wait()
		_ = broker.Close()
		if terr := shutdownTracer(shutdownCtx); terr != nil {
			log.Warn().Err(terr).Msg("tracer shutdown")
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("booking-service stopped with error")
	}
	log.Info().Msg("booking-service stopped")
}
