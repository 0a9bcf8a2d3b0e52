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

	colonyHandlers "colony-server/internal/colony/handlers"
	"colony-server/internal/history"
	"colony-server/internal/middleware"
	"colony-server/internal/server"
	"colony-server/internal/session"
	"colony-server/internal/shared/config"
	"colony-server/internal/shared/database"
	"colony-server/internal/shared/logger"
	"colony-server/internal/shared/redis"
	"colony-server/internal/shared/token"
)

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init()

	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.GlobalConfig
	log := slog.With("component", "main")
	log.Info("Starting colony server",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := session.LoadCatalog(cfg.Colony.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load module catalog: %w", err)
	}
	engineConfig, err := session.EngineConfig(cfg.Colony)
	if err != nil {
		return fmt.Errorf("failed to build engine config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	var historyStore history.Store
	if db != nil {
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close database", "error", err)
			}
		}()
		if _, err := db.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		historyStore = history.NewRepository(db, slog.Default())
	} else {
		historyStore = history.NewMemoryStore()
	}
	historyService := history.NewService(historyStore, slog.Default())

	rdb, err := redis.Connect(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	var snapshots session.SnapshotStore
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error("Failed to close redis", "error", err)
			}
		}()
		snapshots = session.NewRedisStore(rdb, cfg.Colony.SnapshotTTL)
	} else {
		snapshots = session.NewMemoryStore(cfg.Colony.SnapshotTTL)
	}

	issuer, err := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiration)
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	sessionService := session.NewService(session.Options{
		Engine:      engineConfig,
		Catalog:     catalog,
		Store:       snapshots,
		Recorder:    historyService,
		IdleTimeout: cfg.Colony.SnapshotTTL,
		MaxSessions: cfg.Colony.MaxSessions,
		Logger:      slog.Default(),
	})

	hub := colonyHandlers.NewHub(sessionService, cfg.Frontend.URL, slog.Default())
	go hub.Run(ctx)

	go func() {
		if err := sessionService.Run(ctx, cfg.Colony.DriverInterval); err != nil {
			log.Error("Colony driver stopped with error", "error", err)
		}
	}()

	routes := server.NewRoutes(cfg, db, rdb, sessionService, historyService, issuer, hub, slog.Default())
	mux := routes.Setup()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	go rateLimiter.Cleanup(ctx, time.Minute, 10*time.Minute)
	cors := middleware.NewCORS(cfg)
	handler := cors.Middleware(rateLimiter.Middleware(mux))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr, "url", cfg.Server.URL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
