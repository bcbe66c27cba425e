package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chronoshift/server"
	"chronoshift/server/application"
	"chronoshift/server/auth"
	"chronoshift/server/config"
	"chronoshift/server/domain"
	"chronoshift/server/handler"
	"chronoshift/server/telemetry"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.ErrorContext(ctx, "server exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	started := time.Now()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:  cfg.ServiceName,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Level:        cfg.LogLevel,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "err", err)
		}
	}()

	zones, err := config.LoadZoneLayout(ctx, cfg.ZoneLayout)
	if err != nil {
		return err
	}
	app := application.NewTemporalApplication(ctx, application.Config{
		World:         cfg.WorldConfig(),
		Zones:         zones,
		Policy:        cfg.RelayPolicy,
		SweepInterval: cfg.SweepInterval,
	})
	slog.InfoContext(ctx, "world ready",
		"zones", len(app.World().Zones()),
		"timelineMode", cfg.TimelineMode,
		"relayPolicy", cfg.RelayPolicy,
	)

	// PubSub とデフォルトルーム
	pubsub := domain.NewSimplePubSub()
	roomID := domain.NewRoomID()
	roomManager := domain.NewSimpleRoomManager(roomID)
	room := domain.NewRoom(roomID, pubsub, app, cfg.TickHz)

	handlers := server.Handlers{Health: handler.NewHealthHandler(started)}
	var verifier handler.TokenVerifier
	if cfg.JWTSecret != "" {
		issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
		if err != nil {
			return err
		}
		verifier = issuer
		handlers.Token = handler.NewTokenHandler(issuer, cfg.AdminKey)
		handlers.Admin = handler.NewAdminHandler(issuer, pubsub, roomID)
	} else {
		slog.WarnContext(ctx, "JWT_SECRET is empty, sessions are not authenticated")
	}
	handlers.Accept = handler.NewAcceptHandler(pubsub, roomManager, verifier, cfg.Endpoint)

	s := server.NewServer(cfg.ListenAddr(), server.Route(handlers))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return room.Run(ctx)
	})
	eg.Go(func() error {
		slog.InfoContext(ctx, "server listening", "addr", s.Addr(), "roomID", roomID)
		if err := s.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		slog.InfoContext(ctx, "shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(ctx, "graceful shutdown failed", "err", err)
			if err := s.Close(); err != nil {
				slog.ErrorContext(ctx, "forced close failed", "err", err)
			}
		}
		return nil
	})

	err = eg.Wait()
	slog.Info("server shutdown complete")
	return err
}
