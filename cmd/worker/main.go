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
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/jobs"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/lock"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/presence-payroll-go/internal/repository/postgresql"
	payrollService "github.com/cmlabs-hris/presence-payroll-go/internal/service/payroll"
	"github.com/hibiken/asynq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.App).With(slog.String("process", "worker"))
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

	payrollSvc := payrollService.NewPayrollService(
		postgresql.NewPayrollRepository(db),
		postgresql.NewAttendanceRepository(db),
		postgresql.NewTransactor(db),
		locker,
		m,
		payrollService.Config{
			Zone:         zone,
			MaxAttempts:  cfg.Payroll.CommitMaxAttempts,
			RetryBackoff: cfg.Payroll.CommitBackoff,
			LockTTL:      cfg.Payroll.LockTTL,
		},
	)

	commitJob := jobs.NewPayrollCommitJob(payrollSvc, m, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		Logger:      logger,
		Concurrency: cfg.Payroll.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPayrollCommit, Handler: commitJob.Handle},
		},
	})
	if err != nil {
		logger.Error("Failed to build worker", "error", err)
		os.Exit(1)
	}

	// Worker metrics are served on the API port + 1.
	metricsServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.App.Port+1), Handler: m.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Metrics server stopped", "error", err)
		}
	}()
	defer metricsServer.Close()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
}
