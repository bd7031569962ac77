package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueuePayroll is the queue payroll background work runs on.
	QueuePayroll = "payroll"
	// TaskPayrollCommit drafts the slip for one elapsed payroll period.
	TaskPayrollCommit = "payroll:commit"
)

// PayrollCommitPayload names the employee and the period end the task was
// scheduled for. The worker refuses to commit any other period.
type PayrollCommitPayload struct {
	EmployeeID string `json:"employee_id"`
	PeriodEnd  string `json:"period_end"`
}

// PayrollCommitTaskID is unique per employee and period, so the scheduler can
// enqueue on every tick without producing duplicates.
func PayrollCommitTaskID(payload PayrollCommitPayload) string {
	return "commit:" + payload.EmployeeID + ":" + payload.PeriodEnd
}

// NewPayrollCommitTask constructs an Asynq task.
func NewPayrollCommitTask(payload PayrollCommitPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPayrollCommit, data,
		asynq.TaskID(PayrollCommitTaskID(payload)),
		asynq.Queue(QueuePayroll),
		asynq.MaxRetry(5),
		asynq.Timeout(2*time.Minute),
		asynq.Retention(24*time.Hour),
	), nil
}
