package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/validator"
	"github.com/hibiken/asynq"
)

// PayrollCommitJob drafts slips through the same Commit path the API uses.
type PayrollCommitJob struct {
	service payroll.PayrollService
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewPayrollCommitJob(service payroll.PayrollService, m *metrics.Metrics, logger *slog.Logger) *PayrollCommitJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PayrollCommitJob{service: service, metrics: m, logger: logger}
}

// Handle processes TaskPayrollCommit tasks.
func (j *PayrollCommitJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	var payload PayrollCommitPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payroll commit payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.EmployeeID == "" || payload.PeriodEnd == "" {
		return fmt.Errorf("payroll commit payload incomplete: %w", asynq.SkipRetry)
	}

	tracker := j.metrics.Track(TaskPayrollCommit)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger.With(slog.String("employee_id", payload.EmployeeID), slog.String("period_end", payload.PeriodEnd))

	periodEnd := payload.PeriodEnd
	slip, err := j.service.Commit(ctx, payroll.CommitRequest{
		EmployeeID:        payload.EmployeeID,
		ExpectedPeriodEnd: &periodEnd,
	})

	var validationErrs validator.ValidationErrors
	switch {
	case err == nil:
		logger.Info("Drafted payroll slip", slog.String("slip_id", slip.ID), slog.String("net_pay", slip.NetPay.String()))
		return nil
	case errors.Is(err, payroll.ErrPeriodMismatch):
		// Already committed by someone else, or the profile moved on.
		logger.Info("Payroll period no longer pending, skipping", slog.Any("reason", err))
		return nil
	case errors.Is(err, payroll.ErrProfileNotFound),
		errors.Is(err, payroll.ErrInvalidPeriod),
		errors.Is(err, payroll.ErrInvariantViolation),
		errors.As(err, &validationErrs):
		logger.Warn("Payroll commit task rejected", slog.Any("error", err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		// Conflicts, a held lock and infrastructure errors are retried by asynq.
		logger.Warn("Payroll commit task failed", slog.Any("error", err))
		return err
	}
}
