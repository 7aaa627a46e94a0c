package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nec-exams/examportal-backend/internal/broadcast"
	"github.com/nec-exams/examportal-backend/internal/config"
	"github.com/nec-exams/examportal-backend/internal/database"
	"github.com/nec-exams/examportal-backend/internal/handler"
	"github.com/nec-exams/examportal-backend/internal/logger"
	"github.com/nec-exams/examportal-backend/internal/repository"
	"github.com/nec-exams/examportal-backend/internal/router"
	"github.com/nec-exams/examportal-backend/internal/service"
	"github.com/nec-exams/examportal-backend/internal/session"
	"github.com/nec-exams/examportal-backend/internal/validator"
	"github.com/nec-exams/examportal-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Exam Portal Backend")

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
	adminRepo := repository.NewAdminRepository(pool)
	configRepo := repository.NewExamConfigRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	integrityRepo := repository.NewIntegrityRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	// ─── Initialize Broadcast Hub ──────────────────────────────────────
	hub := broadcast.NewHub()

	// ─── Initialize Services ──────────────────────────────────────────
	sessionStore := session.NewRedisStore(rdb)

	authService := service.NewAuthService(cfg, studentRepo, adminRepo)
	studentService := service.NewStudentService(studentRepo, authService, log)
	configService := service.NewExamConfigService(configRepo, hub, log)
	questionService := service.NewQuestionService(questionRepo, configRepo, hub, log)
	sessionService := service.NewExamSessionService(cfg, configRepo, questionRepo, resultRepo, sessionStore, rdb, hub, log)
	portalService := service.NewPortalService(configRepo, resultRepo)
	resultService := service.NewResultService(resultRepo, hub, log)
	statsService := service.NewStatsService(statsRepo, studentRepo, resultRepo)
	mediaService := service.NewMediaService(cfg)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService, studentService),
		StudentPortal: handler.NewStudentPortalHandler(portalService, sessionService, studentService),
		StudentMgmt:   handler.NewStudentManagementHandler(studentService),
		ExamConfig:    handler.NewExamConfigHandler(configService),
		Question:      handler.NewQuestionHandler(questionService),
		Result:        handler.NewResultHandler(resultService),
		Dashboard:     handler.NewDashboardHandler(statsService, integrityRepo),
		Media:         handler.NewMediaHandler(mediaService),
		WS:            handler.NewWSHandler(sessionService, studentService, hub, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	integrityWorker := worker.NewIntegrityWorker(pool, rdb, log)
	go integrityWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	// 2. Stop the integrity worker and let it flush its final batch.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
