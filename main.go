package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jfelder/gatekeep-be/internal/api"
	"github.com/jfelder/gatekeep-be/internal/auth"
	"github.com/jfelder/gatekeep-be/internal/config"
	"github.com/jfelder/gatekeep-be/internal/database"
	"github.com/jfelder/gatekeep-be/internal/logger"
	"github.com/jfelder/gatekeep-be/internal/monitoring"
	"github.com/jfelder/gatekeep-be/internal/services"
	"github.com/jfelder/gatekeep-be/internal/userstore"
	"github.com/jfelder/gatekeep-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// The config root must already exist; the user directory lives there.
	store, err := userstore.New(cfg.ConfigRoot)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open user directory")
	}

	// Ensure the base directory for backups exists
	if err := os.MkdirAll(cfg.BackupPath, 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create backup directory")
	}

	// Set up database for audit events and backup metadata
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	tokens, err := auth.NewManager(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token manager")
	}

	// Set up WebSocket Hub for the live event feed
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	userService := services.NewUserService(store)
	eventService := services.NewEventService(db, hub)
	backupService := services.NewBackupService(db, eventService, cfg.ConfigRoot, cfg.BackupPath)

	// Set up and run the background system monitor
	monitor := monitoring.NewSystemMonitor()
	go monitor.Run()

	// Set up and run the background backup scheduler
	scheduler, err := monitoring.NewScheduler(backupService, cfg.BackupSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize backup scheduler")
	}
	go scheduler.Run()

	// Set up router
	router := api.NewRouter(cfg, tokens, hub, userService, eventService, backupService, monitor)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	monitor.Stop()
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
