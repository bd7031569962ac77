package attendance

import (
	"context"
)

// AttendanceService exposes per-day aggregates to report and export generators.
type AttendanceService interface {
	// GetDayAggregates computes day aggregates with lunch applied for one employee.
	GetDayAggregates(ctx context.Context, filter DayAggregateFilter) (EmployeeDaysResponse, error)

	// ListDayAggregates does the same for several employees concurrently.
	ListDayAggregates(ctx context.Context, filter BulkDayAggregateFilter) ([]EmployeeDaysResponse, error)
}
