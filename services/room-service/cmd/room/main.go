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

	"github.com/smartmeeting/room-booking/pkg/auth"
	"github.com/smartmeeting/room-booking/pkg/config"
	"github.com/smartmeeting/room-booking/pkg/db"
	"github.com/smartmeeting/room-booking/pkg/obs"
	"github.com/smartmeeting/room-booking/services/room-service/internal/repository"
	"github.com/smartmeeting/room-booking/services/room-service/internal/service"
	httpx "github.com/smartmeeting/room-booking/services/room-service/internal/transport/http"
)

func main() {
	cfg, err := config.LoadRoom()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	obs.SetupLogger("room-service", cfg.Env, cfg.LogLevel)
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	gdb, err := db.Open(cfg.PGRoomDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	repo := repository.NewRoomRepo(gdb)
	if err := repo.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(service.NewRoomSvc(repo), auth.NewVerifier(cfg.JWTSecret)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("room-service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("room-service serve")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("room-service shutdown")
	}
	log.Info().Msg("room-service stopped")
}
