package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/gcOssi/spark6/internal/api"
	"github.com/gcOssi/spark6/internal/config"
	"github.com/gcOssi/spark6/internal/database"
	"github.com/gcOssi/spark6/internal/logger"
	"github.com/gcOssi/spark6/internal/monitoring"
	"github.com/gcOssi/spark6/internal/services"
)

func main() {
	// A .env file is optional; real environment variables take precedence.
	_ = godotenv.Load()

	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	startedAt := time.Now()

	// Set up the in-memory database
	db, err := database.New(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	if cfg.SeedDemoData {
		if err := database.Seed(db); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed demo data")
		}
	}

	// Set up services
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, eventService)
	taskService := services.NewTaskService(db, eventService)

	// Set up and run the background usage reporter
	reporter, err := monitoring.NewReporter(cfg.ReportSchedule, userService, taskService, eventService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure usage reporter")
	}
	go reporter.Run()

	// Set up router
	router := api.NewRouter(cfg, userService, taskService, eventService, startedAt)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.Env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	reporter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
