package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/blog-api/internal/api"
	"github.com/isdelr/blog-api/internal/auth"
	"github.com/isdelr/blog-api/internal/config"
	"github.com/isdelr/blog-api/internal/database"
	"github.com/isdelr/blog-api/internal/logger"
	"github.com/isdelr/blog-api/internal/monitoring"
	"github.com/isdelr/blog-api/internal/repositories/repomanager"
	"github.com/isdelr/blog-api/internal/services"
	"github.com/isdelr/blog-api/internal/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, !cfg.IsProduction())
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := websocket.NewHub()
	go hub.Run(hubCtx)

	// Set up services
	repos := repomanager.NewSQLiteRepositoryManager()
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)

	eventService := services.NewEventService(db, repos)
	authService := services.NewAuthService(db, repos, hasher, tokens, eventService)
	userService := services.NewUserService(db, repos, hasher, eventService)
	postService := services.NewPostService(db, repos, eventService, hub)

	// Set up and run the background scheduler
	scheduler, err := monitoring.NewScheduler(eventService, cfg.MaintenanceSchedule, cfg.EventRetention)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	if cfg.BackupSchedule != "" {
		backupService := services.NewBackupService(db, eventService, cfg.BackupPath)
		if err := scheduler.AddBackupJob(backupService, cfg.BackupSchedule, cfg.BackupKeep); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule database backups")
		}
	}
	go scheduler.Run()

	// Set up router
	router := api.NewRouter(hub, tokens, cfg.AllowedOrigins, authService, userService, postService, eventService)

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.Environment).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	scheduler.Stop() // Stop the scheduler

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	stopHub()

	log.Info().Msg("Server exiting")
}
