package payroll

import "context"

type PayrollService interface {
	// Preview computes the next period for an employee without writing anything.
	Preview(ctx context.Context, employeeID string) (PreviewResponse, error)
	// Commit persists a slip for the next period, settles consumed advances
	// and moves the paid-through cursor, all in one transaction.
	Commit(ctx context.Context, req CommitRequest) (SlipResponse, error)
	// DueCommits lists employees whose next period has fully elapsed.
	DueCommits(ctx context.Context) ([]DueCommit, error)

	// Profiles
	UpsertProfile(ctx context.Context, req UpsertProfileRequest) (ProfileResponse, error)
	GetProfile(ctx context.Context, employeeID string) (ProfileResponse, error)

	// Advances
	CreateAdvance(ctx context.Context, req CreateAdvanceRequest) (AdvanceResponse, error)
	ListAdvances(ctx context.Context, filter AdvanceFilter) ([]AdvanceResponse, error)
	SettleAdvance(ctx context.Context, id string) (AdvanceResponse, error)
	ReopenAdvance(ctx context.Context, id string) (AdvanceResponse, error)

	// Slips
	GetSlip(ctx context.Context, id string) (SlipResponse, error)
	ListSlips(ctx context.Context, filter SlipFilter) (ListSlipResponse, error)
	MarkSlipPaid(ctx context.Context, id string) (SlipResponse, error)
}
