package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/vkuzmenko/chippot/internal/application/config"
	"github.com/vkuzmenko/chippot/internal/application/constant"
	"github.com/vkuzmenko/chippot/internal/application/metric"
	"github.com/vkuzmenko/chippot/internal/infra/adapters/memory"
	"github.com/vkuzmenko/chippot/internal/infra/adapters/postgres"
	"github.com/vkuzmenko/chippot/internal/infra/adapters/postgres/repository"
	"github.com/vkuzmenko/chippot/internal/infra/ports/http/handlers"
	"github.com/vkuzmenko/chippot/internal/infra/ports/http/server"
	"github.com/vkuzmenko/chippot/internal/usecase"
)

func runApp() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	slog.SetDefault(
		slog.New(
			slog.NewJSONHandler(
				os.Stdout,
				&slog.HandlerOptions{Level: slog.LevelInfo},
			),
		),
	)

	cfg, err := config.New()
	if err != nil {
		slog.Error("parse config", slog.Any(constant.Error, err))
		os.Exit(1)
	}

	slog.Info("Running app", slog.Bool("debug", cfg.Debug))

	archive := repository.NewNoopEventRepo()
	if cfg.Postgres.URL != "" {
		dbConn, err := postgres.NewPostgres(ctx, cfg.Postgres.URL)
		if err != nil {
			slog.Error("connect to postgres", slog.Any(constant.Error, err))
			os.Exit(1)
		}
		defer dbConn.Close()

		archive = repository.NewEventRepo(dbConn)
	} else {
		slog.Info("audit archive disabled, no POSTGRES_URL configured")
	}

	roomRepo := memory.NewRoomRepository(cfg.LogLimit)
	sessionRepo := memory.NewSessionRepository()

	hostTokenUsecase := usecase.NewHostTokenUsecase([]byte(cfg.JWTSecret))
	gameUsecase := usecase.NewGameUsecase(roomRepo, sessionRepo, archive, hostTokenUsecase, cfg.RequireHost)

	wsHandler := handlers.NewWebSocketHandler(cfg, gameUsecase, sessionRepo)
	roomsHandler := handlers.NewRoomsHandler(roomRepo)

	echoSrv := server.New(cfg, wsHandler, roomsHandler)

	metricsSrv := metric.NewServer()

	go roomRepo.RunJanitor(ctx, cfg.RoomTTL)

	echoSrvCh := make(chan error, 1)
	metricsSrvCh := make(chan error, 1)

	go func() {
		echoSrvCh <- echoSrv.Start(":" + cfg.Port)
	}()

	go func() {
		metricsSrvCh <- metricsSrv.Start(":" + cfg.MetricPort)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down servers due to context cancel")
	case err := <-echoSrvCh:
		slog.Error(
			"HTTP server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	case err := <-metricsSrvCh:
		slog.Error(
			"Metrics server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	}

	timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer timeoutCancel()

	if err := echoSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown HTTP server", slog.Any(constant.Error, err))
	}

	if err := metricsSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown metric server", slog.Any(constant.Error, err))
	}
}
