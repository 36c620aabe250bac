package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aura/backend/internal/models"
	"aura/backend/pkg/config"
	"aura/backend/pkg/di"
	"aura/backend/pkg/health"
	"aura/backend/pkg/logger"
	"aura/backend/pkg/router"
)

func main() {
	cfg := config.New()

	log := logger.New(logger.ConfigFrom(cfg.Logging.Level, cfg.Logging.Format))
	logger.SetGlobal(log)

	log.Info("Starting application",
		"version", os.Getenv("APP_VERSION"),
		"env", cfg.Server.Env,
		"db_driver", cfg.Database.Driver,
	)

	// Initialize database
	db, err := config.NewDB(cfg)
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := di.New(ctx, cfg, db, log)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}
	container.Start(ctx)

	r := router.New(container)
	r.SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogError(err, "Server failed to start")
			stop()
		}
	}()

	if cfg.Server.GRPCPort != "" {
		grpcHealth := health.NewGRPCServer(container.Health)
		go func() {
			log.Info("gRPC health server starting", "port", cfg.Server.GRPCPort)
			if err := grpcHealth.Serve(ctx, ":"+cfg.Server.GRPCPort); err != nil {
				log.LogError(err, "gRPC health server stopped")
			}
		}()
	}

	// Block until we receive a signal
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}
	if err := container.Close(shutdownCtx); err != nil {
		log.LogError(err, "Failed to release resources")
	}

	log.Info("Server exited gracefully")
}
