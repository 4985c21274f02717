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

	"github.com/cmlabs-hris/staff-hours-go/internal/config"
	appHTTP "github.com/cmlabs-hris/staff-hours-go/internal/handler/http"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/cron"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/database"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/sse"
	"github.com/cmlabs-hris/staff-hours-go/internal/repository/postgresql"
	hoursService "github.com/cmlabs-hris/staff-hours-go/internal/service/hours"
	notificationService "github.com/cmlabs-hris/staff-hours-go/internal/service/notification"
	"github.com/go-chi/httplog/v3"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "staff-hours"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	applied, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	slog.Info("Database ready", "migrations_applied", applied)

	// Repositories
	txManager := postgresql.NewTxManager(db)
	ledgerRepo := postgresql.NewLedgerRepository(db)
	detailRepo := postgresql.NewDetailRepository(db)
	extraHoursRepo := postgresql.NewExtraHoursRepository(db)
	scheduleSourceRepo := postgresql.NewScheduleSourceRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)
	profileRepo := postgresql.NewProfileRepository(db)

	// Services
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	hub := sse.NewHub()

	notifSvc := notificationService.NewNotificationService(notificationRepo, hub, notificationService.Config{
		BatchSize:     cfg.Notification.BatchSize,
		FlushInterval: cfg.Notification.FlushInterval,
		WorkerCount:   cfg.Notification.WorkerCount,
		QueueSize:     cfg.Notification.QueueSize,
	})
	defer notifSvc.Stop()

	aggregator := hoursService.NewAggregator(
		txManager,
		ledgerRepo,
		detailRepo,
		extraHoursRepo,
		scheduleSourceRepo,
		cfg.Hours.RecomputeWorkers,
	)
	hoursSvc := hoursService.NewService(
		txManager,
		ledgerRepo,
		detailRepo,
		extraHoursRepo,
		profileRepo,
		aggregator,
		notifSvc,
		hub,
	)

	// Background jobs
	scheduler := cron.NewScheduler()
	cron.NewHoursJobs(aggregator, hub, cfg.Hours.RecomputeInterval, cfg.Hours.ReconcileInterval).RegisterJobs(scheduler)
	cron.NewNotificationJobs(notifSvc, cfg.Notification.Retention).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP
	hoursHandler := appHTTP.NewHoursHandler(hoursSvc)
	notificationHandler := appHTTP.NewNotificationHandler(notifSvc, JWTService)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			Logger:         logger,
		},
		JWTService,
		hoursHandler,
		notificationHandler,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
