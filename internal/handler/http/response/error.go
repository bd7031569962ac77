package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrInvalidDateRange):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrRangeTooLarge):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrEmployeeRequired):
		BadRequest(w, err.Error(), nil)

	// Payroll domain errors
	case errors.Is(err, payroll.ErrProfileNotFound):
		NotFound(w, "Payroll profile not found")
	case errors.Is(err, payroll.ErrAdvanceNotFound):
		NotFound(w, "Advance not found")
	case errors.Is(err, payroll.ErrSlipNotFound):
		NotFound(w, "Payroll slip not found")
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrCommitConflict):
		Conflict(w, "Payroll commit conflicted with a concurrent update, please retry")
	case errors.Is(err, payroll.ErrCommitInProgress):
		Conflict(w, "A payroll commit for this employee is already in progress")
	case errors.Is(err, payroll.ErrSlipAlreadyPaid):
		Conflict(w, "Payroll slip already paid")
	case errors.Is(err, payroll.ErrAdvanceAlreadySettled):
		Conflict(w, "Advance already settled")
	case errors.Is(err, payroll.ErrAdvanceAlreadyOpen):
		Conflict(w, "Advance already open")
	case errors.Is(err, payroll.ErrPeriodMismatch):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrConcurrentUpdate):
		Conflict(w, "Record was modified concurrently, please retry")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
