package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/neocdt/cdt-bank-api/internal/api"
	"github.com/neocdt/cdt-bank-api/internal/core/service"
	"github.com/neocdt/cdt-bank-api/internal/infrastructure/config"
	mongodb "github.com/neocdt/cdt-bank-api/internal/infrastructure/db/mongo"
	redisdb "github.com/neocdt/cdt-bank-api/internal/infrastructure/db/redis"
	"github.com/neocdt/cdt-bank-api/internal/infrastructure/scheduler"
	"github.com/neocdt/cdt-bank-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title NeoCDT Bank API
// @version 1.0
// @description REST backend for fixed-term deposit (CDT) requests: creation,
// @description lifecycle management and agent review.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close failed")
		}
	}()

	// --- Repositories ---
	solicitudeRepo := mongodb.NewSolicitudeRepository(db)
	userRepo := mongodb.NewUserRepository(db)

	if err := solicitudeRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("solicitude indexes failed")
	}
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user indexes failed")
	}

	// --- Services ---
	solicitudeService := service.NewSolicitudeService(solicitudeRepo, log)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL(), log)

	// --- Background draft sweep ---
	sweeper := scheduler.NewSweeper(
		solicitudeService,
		redisdb.NewSweepLock(rdb),
		cfg.SweepInterval,
		log,
	)
	sweeper.Start(ctx)

	// --- HTTP server ---
	e := api.NewRouter(api.RouterDeps{
		Solicitudes: solicitudeService,
		Auth:        authService,
		DB:          db,
		Redis:       rdb,
		JWTSecret:   cfg.JWTSecret,
		Logger:      log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("server stopped")
}
