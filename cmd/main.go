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

	"github.com/Dosada05/chess-tournament/config"
	"github.com/Dosada05/chess-tournament/db"
	"github.com/Dosada05/chess-tournament/handlers"
	"github.com/Dosada05/chess-tournament/metrics"
	"github.com/Dosada05/chess-tournament/realtime"
	"github.com/Dosada05/chess-tournament/repositories"
	api "github.com/Dosada05/chess-tournament/routes"
	"github.com/Dosada05/chess-tournament/services"
	"github.com/Dosada05/chess-tournament/storage"
	"github.com/go-chi/chi/v5"
)

//go:generate swag init -g cmd/main.go -o docs --parseDependency

// @title Chess Tournament API
// @version 1.0
// @description Клубы, шахматисты, турниры, партии и таблицы.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
		if version, dirty, err := db.SchemaVersion(cfg.DatabaseURL); err == nil {
			logger.Info("database schema is up to date", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
		}
	}

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, db.DefaultPool)
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

	// Архив партий в Cloudflare R2 подключается только при заданных настройках.
	var uploader storage.FileUploader
	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Config.Empty() {
		logger.Warn("Cloudflare R2 is not configured, PGN archiving disabled")
	} else {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, r2Config)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	}

	// Инициализация WebSocket Hub
	wsHub := realtime.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	tx := repositories.NewPostgresTransactor(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	clubRepo := repositories.NewPostgresClubRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	membershipRepo := repositories.NewPostgresMembershipRepository(dbConn)
	rankingRepo := repositories.NewPostgresRankingRepository(dbConn)
	sponsorRepo := repositories.NewPostgresSponsorRepository(dbConn)
	sponsorshipRepo := repositories.NewPostgresTournamentSponsorRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	viewRepo := repositories.NewPostgresViewRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey, cfg.TokenTTL, nil)
	userService := services.NewUserService(userRepo, tx, nil)
	clubService := services.NewClubService(clubRepo, tournamentRepo, tx, nil)
	playerService := services.NewPlayerService(playerRepo, tx, nil)
	sponsorService := services.NewSponsorService(sponsorRepo, tx, nil)
	membershipService := services.NewMembershipService(membershipRepo, playerRepo, clubRepo, tx, nil)
	rankingService := services.NewRankingService(rankingRepo, playerRepo, tournamentRepo, tx, nil)
	tournamentService := services.NewTournamentService(
		tournamentRepo,
		clubRepo,
		sponsorRepo,
		sponsorshipRepo,
		participantRepo,
		matchRepo,
		rankingRepo,
		tx,
		nil,
		logger,
	)
	participantService := services.NewParticipantService(participantRepo, tournamentRepo, playerRepo, tx, nil)
	standingService := services.NewStandingService(standingRepo, tournamentRepo, participantRepo, matchRepo, tx, nil)
	matchService := services.NewMatchService(
		matchRepo,
		tournamentRepo,
		playerRepo,
		participantRepo,
		standingRepo,
		tx,
		wsHub,
		nil,
		logger,
	)
	viewService := services.NewViewService(viewRepo)
	dashboardService := services.NewDashboardService(clubRepo, playerRepo, tournamentRepo, matchRepo, membershipRepo)
	archiveService := services.NewArchiveService(tournamentRepo, viewRepo, uploader, logger)
	logger.Info("Services initialized")

	if cfg.AdminEmail != "" {
		admin, created, err := userService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			logger.Error("failed to bootstrap admin account", slog.Any("error", err))
			os.Exit(1)
		}
		if created {
			logger.Info("admin account created", slog.Int64("user_id", admin.ID), slog.String("email", admin.Email))
		}
	}

	// Планировщик автоматического обновления статусов турниров
	if cfg.StatusSchedulerInterval > 0 {
		scheduler, err := services.StartStatusScheduler(tournamentService, cfg.StatusSchedulerInterval, logger)
		if err != nil {
			logger.Error("failed to start status scheduler", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				logger.Error("failed to stop status scheduler", slog.Any("error", err))
			}
		}()
		logger.Info("Tournament status scheduler started", slog.Duration("interval", cfg.StatusSchedulerInterval))
	}

	// Инициализация обработчиков HTTP
	appMetrics := metrics.New()
	errs := handlers.NewErrorResponder(logger, appMetrics)
	h := api.Handlers{
		Auth:        handlers.NewAuthHandler(authService, errs),
		User:        handlers.NewUserHandler(userService, errs),
		Club:        handlers.NewClubHandler(clubService, membershipService, errs),
		Player:      handlers.NewPlayerHandler(playerService, membershipService, rankingService, matchService, errs),
		Membership:  handlers.NewMembershipHandler(membershipService, errs),
		Ranking:     handlers.NewRankingHandler(rankingService, errs),
		Sponsor:     handlers.NewSponsorHandler(sponsorService, errs),
		Tournament:  handlers.NewTournamentHandler(tournamentService, archiveService, errs),
		Participant: handlers.NewParticipantHandler(participantService, errs),
		Match:       handlers.NewMatchHandler(matchService, errs),
		Standing:    handlers.NewStandingHandler(standingService, errs),
		View:        handlers.NewViewHandler(viewService, errs),
		Dashboard:   handlers.NewDashboardHandler(dashboardService, errs),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins, errs, logger),
	}
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, h, api.Options{
		Tokens:         authService,
		Metrics:        appMetrics,
		Logger:         logger,
		DB:             dbConn,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
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

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stop()
			return
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
