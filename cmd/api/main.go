package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/config"
	appHTTP "github.com/cmlabs-hris/geo-attendance/internal/handler/http"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/cron"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/database"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/jwt"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/sse"
	badgerRepo "github.com/cmlabs-hris/geo-attendance/internal/repository/badger"
	"github.com/cmlabs-hris/geo-attendance/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/geo-attendance/internal/service/attendance"
	locationService "github.com/cmlabs-hris/geo-attendance/internal/service/location"
	notificationService "github.com/cmlabs-hris/geo-attendance/internal/service/notification"
	scheduleService "github.com/cmlabs-hris/geo-attendance/internal/service/schedule"
	"github.com/go-chi/httplog/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.App)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), cfg.Database.MaxConns)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	kv, err := database.NewBadgerDB(database.BadgerConfig{
		Path:       cfg.Badger.Path,
		InMemory:   cfg.Badger.InMemory,
		SyncWrites: true,
		GCInterval: cfg.Badger.GCInterval,
		Logger:     logger.With(slog.String("component", "badger")),
	})
	if err != nil {
		return fmt.Errorf("open attendance store: %w", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			slog.Error("Failed to close attendance store", "error", err)
		}
	}()

	// Repositories
	workScheduleRepo := postgresql.NewWorkScheduleRepository(db)
	zoneRepo := postgresql.NewZoneRepository(db)
	entryRepo := badgerRepo.NewEntryRepository(kv)
	activityRepo := badgerRepo.NewActivityRepository(kv)
	notificationRepo := badgerRepo.NewNotificationRepository(kv, cfg.Notification.Retention)

	// Services
	hub := sse.NewHub()
	notifSvc := notificationService.NewNotificationService(notificationRepo, hub, notificationService.Config{})
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	devices := locationService.NewReportedDevices(cfg.Location.HighAccuracyMeters)
	providers := locationService.ReportedProviderFactory(devices, locationService.Config{
		HighAccuracyTimeout: cfg.Location.HighAccuracyTimeout,
		HighAccuracyMaxAge:  cfg.Location.HighAccuracyMaxAge,
		LowAccuracyTimeout:  cfg.Location.LowAccuracyTimeout,
		LowAccuracyMaxAge:   cfg.Location.LowAccuracyMaxAge,
		DevHosts:            cfg.Location.DevHosts,
	})

	evaluator := scheduleService.NewEvaluator()
	machine := attendanceService.NewMachine(entryRepo, activityRepo, notifSvc)
	monitors := attendanceService.NewMonitorManager(workScheduleRepo, zoneRepo, providers, attendanceService.MonitorDeps{
		Builder:    attendanceService.NewObservationBuilder(evaluator),
		Machine:    machine,
		Activities: activityRepo,
		Interval:   cfg.Monitor.Interval,
	})
	defer monitors.StopAll()

	attendanceSvc := attendanceService.NewAttendanceService(
		entryRepo,
		activityRepo,
		workScheduleRepo,
		zoneRepo,
		devices,
		providers,
		evaluator,
		machine,
		monitors,
	)

	// Background jobs
	scheduler := cron.NewScheduler(ctx)
	cron.NewActivityJobs(activityRepo, time.Duration(cfg.Retention.ActivityDays)*24*time.Hour).RegisterJobs(scheduler)

	// HTTP
	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	notificationHandler := appHTTP.NewNotificationHandler(notifSvc, JWTService)
	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Logger:         logger,
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
		PunchTimeout:   cfg.ManualPunchTimeout() + 5*time.Second,
	}, JWTService, attendanceHandler, notificationHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		// No WriteTimeout: notification streams stay open and a manual punch
		// may wait on both acquisition tiers.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		scheduler.Start()
		<-gCtx.Done()
		scheduler.Stop()
		return nil
	})

	g.Go(func() error {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(app config.AppConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(app.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	logFormat := httplog.SchemaECS.Concise(app.Env != "production")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "geo-attendance"),
		slog.String("env", app.Env),
	)
}
