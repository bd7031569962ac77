package jobs

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
)

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueuePayrollCommit enqueues a payroll commit task. It reports false
// without error when a task for the same employee and period already exists.
func (c *Client) EnqueuePayrollCommit(ctx context.Context, payload PayrollCommitPayload) (bool, error) {
	task, err := NewPayrollCommitTask(payload)
	if err != nil {
		return false, err
	}
	_, err = c.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
