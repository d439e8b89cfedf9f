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

	"github.com/cmlabs-hris/site-attendance-go/internal/config"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/tenant"
	appHTTP "github.com/cmlabs-hris/site-attendance-go/internal/handler/http"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/float"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/site-attendance-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/site-attendance-go/internal/service/attendance"
	geofenceService "github.com/cmlabs-hris/site-attendance-go/internal/service/geofence"
	reconciliationService "github.com/cmlabs-hris/site-attendance-go/internal/service/reconciliation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.App.LogLevel),
	})))

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	defaults := tenant.Defaults{
		Timezone:             cfg.Attendance.Timezone,
		GeofenceRadiusMeters: cfg.Attendance.GeofenceRadiusMeters,
		NoiseThresholdMeters: cfg.Attendance.NoiseThresholdMeters,
		ExpectedHoursPerDay:  cfg.Attendance.ExpectedHoursPerDay,
	}

	transactor := postgresql.NewTransactor(db)
	eventRepo := postgresql.NewPresenceEventRepository(db)
	summaryRepo := postgresql.NewDailySummaryRepository(db)
	siteRepo := postgresql.NewSiteRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	spaRepo := postgresql.NewSpaRepository(db)
	settingsRepo := postgresql.NewTenantSettingsRepository(db, defaults)

	floatClient := float.NewClient(cfg.Float)
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	attendanceSvc := attendanceService.NewAttendanceService(transactor, eventRepo, summaryRepo, settingsRepo)
	geofenceSvc := geofenceService.NewGeofenceService(transactor, siteRepo, eventRepo, settingsRepo)
	reconciliationSvc := reconciliationService.NewReconciliationService(
		employeeRepo,
		siteRepo,
		floatClient,
		eventRepo,
		spaRepo,
		settingsRepo,
	)

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	reconciliationHandler := appHTTP.NewReconciliationHandler(reconciliationSvc)
	geofenceHandler := appHTTP.NewGeofenceHandler(geofenceSvc)

	router := appHTTP.NewRouter(
		cfg.App,
		JWTService,
		attendanceHandler,
		reconciliationHandler,
		geofenceHandler,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := cron.NewScheduler(ctx)
	cron.NewAttendanceJobs(settingsRepo, attendanceSvc, cfg.Attendance.JobInterval).RegisterJobs(scheduler)
	scheduler.Start()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	scheduler.Stop()
}

func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
