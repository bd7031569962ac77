package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/jobs"
)

// CommitEnqueuer hands a drafting task to the background worker.
type CommitEnqueuer interface {
	EnqueuePayrollCommit(ctx context.Context, payload jobs.PayrollCommitPayload) (bool, error)
}

// PayrollJobs contains payroll-related cron jobs
type PayrollJobs struct {
	payrollService payroll.PayrollService
	enqueuer       CommitEnqueuer
}

func NewPayrollJobs(payrollService payroll.PayrollService, enqueuer CommitEnqueuer) *PayrollJobs {
	return &PayrollJobs{
		payrollService: payrollService,
		enqueuer:       enqueuer,
	}
}

// RegisterJobs registers the auto-draft job at the given interval.
func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("payroll_auto_draft", interval, j.EnqueueDueCommits)
}

// EnqueueDueCommits queues a draft commit for every employee whose next
// period has fully elapsed. Tasks already queued for the same period are
// skipped by the queue itself.
func (j *PayrollJobs) EnqueueDueCommits(ctx context.Context) error {
	due, err := j.payrollService.DueCommits(ctx)
	if err != nil {
		return fmt.Errorf("failed to list due payroll commits: %w", err)
	}

	if len(due) == 0 {
		slog.Debug("Cron: No payroll periods due")
		return nil
	}

	enqueued, failed := 0, 0
	for _, d := range due {
		ok, err := j.enqueuer.EnqueuePayrollCommit(ctx, jobs.PayrollCommitPayload{
			EmployeeID: d.EmployeeID,
			PeriodEnd:  d.PeriodEnd,
		})
		if err != nil {
			slog.Error("Cron: Failed to enqueue payroll commit",
				"employee_id", d.EmployeeID,
				"period_end", d.PeriodEnd,
				"error", err)
			failed++
			continue
		}
		if ok {
			enqueued++
		}
	}

	slog.Info("Cron: Payroll auto-draft", "due", len(due), "enqueued", enqueued, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("failed to enqueue %d of %d payroll commits", failed, len(due))
	}
	return nil
}
