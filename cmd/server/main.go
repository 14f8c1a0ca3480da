package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/carebridge/portal-api/internal/config"
	"github.com/carebridge/portal-api/internal/database"
	"github.com/carebridge/portal-api/internal/handlers"
	"github.com/carebridge/portal-api/internal/logging"
	"github.com/carebridge/portal-api/internal/metrics"
	"github.com/carebridge/portal-api/internal/middleware"
	"github.com/carebridge/portal-api/internal/repository"
	"github.com/carebridge/portal-api/internal/routes"
	"github.com/carebridge/portal-api/internal/services"
	"github.com/carebridge/portal-api/internal/token"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdout := logging.Setup(cfg.AppEnv)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Database log handler (ERROR+ async batch)
	dbLogHandler := logging.NewDBHandler(db)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, dbLogHandler)))

	background := make(chan struct{})
	logging.StartCleanup(db, cfg.LogRetentionDays, background)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// Repositories and services
	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	records := repository.NewMedicalRecordRepo(db)
	codec := token.NewCodec(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)

	throttle := services.NewLoginThrottle(cfg.LoginRatePerMinute, 10*time.Minute)
	authService := services.NewAuthService(services.AuthDeps{
		Users:    users,
		Sessions: sessions,
		Codec:    codec,
		Throttle: throttle,
		Metrics:  collector,
	})
	profileService := services.NewProfileService(users)
	userService := services.NewUserService(users)
	reportService := services.NewReportService(records, collector)

	services.NewSessionSweeper(sessions, collector).Start(cfg.SessionSweepInterval, background)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := routes.NewApp()
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	routes.Setup(app, cfg, middleware.RequireAuth(authService, codec, collector), routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		Profile: handlers.NewProfileHandler(profileService),
		User:    handlers.NewUserHandler(userService),
		Report:  handlers.NewReportHandler(reportService),
		Health:  handlers.NewHealthHandler(db),
		Metrics: metrics.Handler(registry),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(background)
	throttle.Stop()
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
