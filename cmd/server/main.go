package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/riskwatch-backend/internal/config"
	"github.com/stemsi/riskwatch-backend/internal/database"
	"github.com/stemsi/riskwatch-backend/internal/handler"
	"github.com/stemsi/riskwatch-backend/internal/logger"
	"github.com/stemsi/riskwatch-backend/internal/middleware"
	"github.com/stemsi/riskwatch-backend/internal/notify"
	"github.com/stemsi/riskwatch-backend/internal/predictor"
	"github.com/stemsi/riskwatch-backend/internal/repository"
	"github.com/stemsi/riskwatch-backend/internal/router"
	"github.com/stemsi/riskwatch-backend/internal/service"
	"github.com/stemsi/riskwatch-backend/internal/validator"
	"github.com/stemsi/riskwatch-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "riskwatch-server")
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("mail_driver", cfg.MailDriver).
		Msg("Starting RiskWatch Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	studentRepo := repository.NewStudentRepository(pool)
	riskRepo := repository.NewRiskRepository(pool)
	advisorRepo := repository.NewAdvisorRepository(pool)
	predictionRepo := repository.NewPredictionRepository(pool)
	alertRepo := repository.NewAlertRepository(pool)
	sessionRepo := repository.NewSessionRepository(rdb)
	alertQueue := repository.NewAlertQueue(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	predictorClient := predictor.NewClient(cfg.PredictorURL, cfg.PredictorTimeout, log)
	notificationService := service.NewNotificationService(rdb)

	authService := service.NewAuthService(cfg, advisorRepo, sessionRepo)
	advisorService := service.NewAdvisorService(advisorRepo, sessionRepo, authService, log)
	viewService := service.NewStudentViewService(studentRepo, riskRepo, advisorRepo, predictionRepo)
	importService := service.NewImportService(studentRepo, riskRepo, log)
	predictionService := service.NewPredictionService(predictorClient, predictionRepo, notificationService, log)
	alertService := service.NewAlertService(viewService, advisorRepo, alertRepo, alertQueue, log)
	dashboardService := service.NewDashboardService(viewService)

	// ─── Initialize Handlers ──────────────────────────────────────────
	redisPing := handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })

	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService, advisorService),
		Student:     handler.NewStudentHandler(viewService, log),
		StudentMgmt: handler.NewStudentManagementHandler(viewService, importService, cfg.MaxUploadBytes, log),
		Advisor:     handler.NewAdvisorHandler(advisorService, alertService, log),
		Prediction:  handler.NewPredictionHandler(predictionService),
		Alert:       handler.NewAlertHandler(alertService, log),
		Dashboard:   handler.NewDashboardHandler(dashboardService),
		WS:          handler.NewWSHandler(authService, notificationService, log, cfg.AllowedOrigins),
		System:      handler.NewSystemHandler(pool, redisPing, alertQueue, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	alertWorker := worker.NewAlertWorker(alertQueue, newMailer(cfg, log), alertRepo, notificationService, log)
	go func() {
		defer close(workerDone)
		alertWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer loginLimiter.Stop()

	r := router.SetupRouter(authService, handlers, loginLimiter, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the alert worker and let it drain what is already queued.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Alert worker did not drain in time")
	}

	log.Info().Msg("Shutdown complete")
}

// newMailer picks the delivery backend named by MAIL_DRIVER.
func newMailer(cfg *config.Config, log zerolog.Logger) notify.Mailer {
	switch cfg.MailDriver {
	case config.MailDriverSendgrid:
		if cfg.SendgridAPIKey == "" {
			log.Fatal().Msg("MAIL_DRIVER=sendgrid requires SENDGRID_API_KEY")
		}
		return notify.NewSendgridMailer(cfg.SendgridAPIKey, cfg.MailFromName, cfg.MailFromAddress, log)
	case config.MailDriverConsole:
		return notify.NewConsoleMailer(log)
	default:
		log.Warn().Str("driver", cfg.MailDriver).Msg("Unknown mail driver, falling back to console")
		return notify.NewConsoleMailer(log)
	}
}
