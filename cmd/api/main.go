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

	"github.com/cmlabs-hris/presence-payroll-go/internal/config"
	appHTTP "github.com/cmlabs-hris/presence-payroll-go/internal/handler/http"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/cron"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/jobs"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/lock"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/presence-payroll-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/presence-payroll-go/internal/service/attendance"
	payrollService "github.com/cmlabs-hris/presence-payroll-go/internal/service/payroll"
	"github.com/hibiken/asynq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.App)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zone, err := cfg.Zone()
	if err != nil {
		logger.Error("Invalid payroll zone", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		logger.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	m := metrics.New()

	// The lock only reduces contention; commits run without it when Redis is down.
	var locker lock.Locker
	if cfg.Redis.LockEnabled {
		redisClient, err := lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("Redis unavailable, commit lock disabled", "error", err)
		} else {
			defer redisClient.Close()
			locker = lock.NewRedisLocker(redisClient, "")
		}
	}

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	transactor := postgresql.NewTransactor(db)

	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, zone, cfg.Attendance.MaxRangeDays)
	payrollSvc := payrollService.NewPayrollService(payrollRepo, attendanceRepo, transactor, locker, m, payrollService.Config{
		Zone:         zone,
		MaxAttempts:  cfg.Payroll.CommitMaxAttempts,
		RetryBackoff: cfg.Payroll.CommitBackoff,
		LockTTL:      cfg.Payroll.LockTTL,
	})

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	scheduler := cron.NewScheduler(m)
	if cfg.Payroll.AutoDraftEnabled {
		jobClient := jobs.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer jobClient.Close()
		cron.NewPayrollJobs(payrollSvc, jobClient).RegisterJobs(scheduler, cfg.Payroll.AutoDraftInterval)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Logger:          logger,
		AllowedOrigins:  cfg.App.AllowedOrigins,
		Production:      cfg.IsProduction(),
		CommitRateLimit: cfg.Payroll.CommitRateLimit,
		Metrics:         m,
	},
		JWTService,
		appHTTP.NewPayrollHandler(payrollSvc),
		appHTTP.NewAttendanceHandler(attendanceSvc),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", "addr", server.Addr, "zone", zone.Name())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
