package payroll

import "errors"

var (
	ErrProfileNotFound       = errors.New("payroll profile not found")
	ErrAdvanceNotFound       = errors.New("payroll advance not found")
	ErrAdvanceAlreadySettled = errors.New("payroll advance already settled")
	ErrAdvanceAlreadyOpen    = errors.New("payroll advance is already open")
	ErrSlipNotFound          = errors.New("payroll slip not found")
	ErrSlipAlreadyPaid       = errors.New("payroll slip already paid")
	ErrCommitConflict        = errors.New("payroll commit conflicted with a concurrent update, retry later")
	ErrCommitInProgress      = errors.New("another payroll commit for this employee is in progress")
	ErrConcurrentUpdate      = errors.New("payroll data changed concurrently, retry later")
	ErrInvariantViolation    = errors.New("payroll invariant violated")
	ErrInvalidPeriod         = errors.New("invalid payroll period")
	ErrPeriodMismatch        = errors.New("next payroll period does not match the expected period")
)
