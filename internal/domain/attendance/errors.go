package attendance

import "errors"

// Attendance domain errors
var (
	ErrInvalidDateRange = errors.New("end date must not be before start date")
	ErrRangeTooLarge    = errors.New("date range exceeds the allowed window")
	ErrEmployeeRequired = errors.New("employee id is required")
)
