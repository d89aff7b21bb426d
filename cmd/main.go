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

	"github.com/Yernar11/sportmate/config"
	"github.com/Yernar11/sportmate/db"
	"github.com/Yernar11/sportmate/handlers"
	"github.com/Yernar11/sportmate/matchmaking"
	"github.com/Yernar11/sportmate/middleware"
	"github.com/Yernar11/sportmate/repositories"
	api "github.com/Yernar11/sportmate/routes"
	"github.com/Yernar11/sportmate/services"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Репозитории
	txRunner := repositories.NewTxRunner(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	sportRepo := repositories.NewPostgresSportRepository(dbConn)
	ratingRepo := repositories.NewPostgresRatingRepository(dbConn)
	historyRepo := repositories.NewPostgresMatchHistoryRepository(dbConn)
	creditLogRepo := repositories.NewPostgresCreditLogRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)
	proposedRepo := repositories.NewPostgresProposedMatchRepository(dbConn)
	logger.Info("repositories initialized")

	// Сервисы
	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey)
	sportService := services.NewSportService(sportRepo)
	ratingService := services.NewRatingService(ratingRepo)
	creditService := services.NewCreditService(txRunner, userRepo, creditLogRepo, cfg.Credit, logger)
	matchService := services.NewMatchService(txRunner, eventRepo, historyRepo, ratingRepo, ratingService, cfg.Matchmaking)
	matchmakingService := services.NewMatchmakingService(
		txRunner,
		eventRepo,
		participantRepo,
		proposedRepo,
		courtRepo,
		ratingService,
		matchmaking.NewAdjacentPairer(),
		logger,
	)
	eventService := services.NewEventService(
		txRunner,
		eventRepo,
		participantRepo,
		sportRepo,
		creditService,
		matchmakingService,
		logger,
	)
	logger.Info("services initialized")

	// HTTP-обработчики
	h := api.Handlers{
		Auth:        handlers.NewAuthHandler(authService),
		Sport:       handlers.NewSportHandler(sportService),
		Rating:      handlers.NewRatingHandler(ratingService),
		Event:       handlers.NewEventHandler(eventService),
		Match:       handlers.NewMatchHandler(matchService, eventService, matchmakingService, logger),
		Matchmaking: handlers.NewMatchmakingHandler(matchmakingService, eventService),
		Credit:      handlers.NewCreditHandler(creditService),
	}

	authenticator := middleware.NewAuthenticator(cfg.JWTSecretKey)
	router := api.InitRoutes(h, authenticator)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shut down gracefully")
	}
}
