package payroll

import (
	"context"
	"time"
)

// PayrollRepository defines data access methods for payroll state.
// Methods honour a transaction carried in ctx by Transactor.
type PayrollRepository interface {
	// Profiles
	GetProfile(ctx context.Context, employeeID string) (PayrollProfile, error)
	// GetProfileForUpdate locks the profile row until the surrounding transaction ends.
	GetProfileForUpdate(ctx context.Context, employeeID string) (PayrollProfile, error)
	UpsertProfile(ctx context.Context, profile PayrollProfile) (PayrollProfile, error)
	ListProfiles(ctx context.Context) ([]PayrollProfile, error)
	// AdvanceCursor moves lastPaidThrough from prev to next. It fails with a
	// retryable conflict if the stored cursor is no longer prev.
	AdvanceCursor(ctx context.Context, employeeID string, prev *time.Time, next time.Time) error

	// Advances
	CreateAdvance(ctx context.Context, advance PayrollAdvance) (PayrollAdvance, error)
	GetAdvanceByID(ctx context.Context, id string) (PayrollAdvance, error)
	// ListOpenAdvances returns open advances oldest first (created_at, id).
	ListOpenAdvances(ctx context.Context, employeeID string) ([]PayrollAdvance, error)
	ListAdvances(ctx context.Context, filter AdvanceFilter) ([]PayrollAdvance, error)
	UpdateAdvanceBalance(ctx context.Context, advance PayrollAdvance) error

	// Slips
	CreateSlip(ctx context.Context, slip PayrollSlip) (PayrollSlip, error)
	GetSlipByID(ctx context.Context, id string) (PayrollSlip, error)
	ListSlips(ctx context.Context, filter SlipFilter) ([]PayrollSlip, int64, error)
	// MarkSlipPaid moves a draft slip to paid. A slip that is already paid
	// yields ErrSlipAlreadyPaid.
	MarkSlipPaid(ctx context.Context, id string, paidAt time.Time) (PayrollSlip, error)
}

// Transactor runs fn inside one serializable transaction. Repository calls
// made with the ctx passed to fn join that transaction.
type Transactor interface {
	RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}
