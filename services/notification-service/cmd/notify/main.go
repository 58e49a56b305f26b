package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/smartmeeting/room-booking/pkg/auth"
	"github.com/smartmeeting/room-booking/pkg/config"
	"github.com/smartmeeting/room-booking/pkg/db"
	"github.com/smartmeeting/room-booking/pkg/mq"
	"github.com/smartmeeting/room-booking/pkg/obs"
	"github.com/smartmeeting/room-booking/services/notification-service/internal/notifier"
	"github.com/smartmeeting/room-booking/services/notification-service/internal/repository"
	httpx "github.com/smartmeeting/room-booking/services/notification-service/internal/transport/http"
	"github.com/smartmeeting/room-booking/services/notification-service/internal/worker"
)

func main() {
	cfg, err := config.LoadNotify()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	obs.SetupLogger("notification-service", cfg.Env, cfg.LogLevel)
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracer, err := obs.InitTracer("notification-service", cfg.Env, cfg.OTelEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("init tracer")
	}

	gdb, err := db.Open(cfg.PGNotifyDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	repo := repository.NewNotificationRepo(gdb)
	if err := repo.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mqCfg := mq.ConsumerConfig{
		URL:         cfg.RabbitURL,
		Exchange:    cfg.Exchange,
		Queue:       cfg.Queue,
		Bindings:    cfg.Bindings,
		Prefetch:    cfg.Prefetch,
		UseDLX:      cfg.UseDLX,
		DLXName:     cfg.DLXName,
		DLXQueue:    cfg.DLXQueue,
		Tag:         "notification-service",
		DialTimeout: cfg.DialTimeout,
	}
	dial := func() (worker.Source, error) {
		c, err := mq.NewConsumer(mqCfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	cons := worker.NewConsumer(repo, notifier.NewConsole(), cfg.RequeueDelay)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(repo, auth.NewVerifier(cfg.JWTSecret)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("queue", cfg.Queue).Strs("bindings", cfg.Bindings).Msg("notification consumer starting")
		cons.Supervise(gctx, dial, cfg.ReconnectDelay)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("notification-service listening")
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
		if terr := shutdownTracer(shutdownCtx); terr != nil {
			log.Warn().Err(terr).Msg("tracer shutdown")
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("notification-service stopped with error")
	}
	log.Info().Msg("notification-service stopped")
}
