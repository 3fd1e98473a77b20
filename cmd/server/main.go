package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coords-bot/internal/alliance"
	"coords-bot/internal/command"
	"coords-bot/internal/dedupe"
	"coords-bot/internal/middleware"
	"coords-bot/internal/planet"
	"coords-bot/internal/player"
	"coords-bot/internal/relay"
	"coords-bot/internal/server"
	"coords-bot/internal/shared/config"
	"coords-bot/internal/shared/database"
	"coords-bot/internal/shared/logger"
	"coords-bot/internal/shared/redis"
)

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Init()

	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.GlobalConfig
	log := slog.With("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}()

	log.Info("Running database migrations")
	if err := db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	appLogger := slog.Default()
	service := command.NewService(db,
		alliance.NewRepository(db, appLogger),
		player.NewRepository(db, appLogger),
		planet.NewRepository(db, appLogger),
		cfg.Bot,
		appLogger,
	)

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis", "error", err)
		}
	}()

	store := dedupe.New(redisClient, cfg.Dedupe.TTL, appLogger)
	if mem, ok := store.(*dedupe.MemoryStore); ok {
		go mem.Run(ctx, time.Minute)
	}
	dispatcher := relay.NewDispatcher(service, store, cfg.Bot.Prefix, appLogger)

	if cfg.NATS.Enabled {
		subscriber := relay.NewNATSSubscriber(dispatcher, cfg.NATS, appLogger)
		if err := subscriber.Start(); err != nil {
			return err
		}
		defer func() {
			if err := subscriber.Stop(); err != nil {
				log.Error("Failed to stop NATS subscriber", "error", err)
			}
		}()
	}

	mux := server.NewRoutes(db, dispatcher, cfg.Auth, appLogger).Setup()

	var handler http.Handler = mux
	handler = middleware.NewRateLimiter(ctx, cfg.RateLimit).Middleware(handler)
	handler = middleware.NewCORS(cfg.Frontend).Middleware(handler)
	handler = middleware.RequestID(handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting",
			"port", cfg.Server.Port,
			"environment", cfg.Server.Environment,
			"bot", cfg.Bot.Name,
			"prefix", cfg.Bot.Prefix,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
