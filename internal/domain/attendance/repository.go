package attendance

import (
	"context"
	"time"
)

// AttendanceRepository reads the externally produced event streams.
// Every query is bounded by a half-open [start, end) UTC window.
type AttendanceRepository interface {
	// ListEvents returns check-in/checkout events ordered by timestamp.
	ListEvents(ctx context.Context, employeeID string, start, end time.Time) ([]AttendanceEvent, error)

	// ListLunchEvents returns lunch-start/lunch-end events ordered by timestamp.
	ListLunchEvents(ctx context.Context, employeeID string, start, end time.Time) ([]LunchEvent, error)
}
