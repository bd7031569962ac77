package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// ListEvents implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListEvents(ctx context.Context, employeeID string, start, end time.Time) ([]attendance.AttendanceEvent, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, employee_id, event_type, occurred_at
		FROM attendance_events
		WHERE employee_id = $1
		  AND occurred_at >= $2
		  AND occurred_at < $3
		ORDER BY occurred_at, id
	`

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance events: %w", err)
	}
	defer rows.Close()

	var events []attendance.AttendanceEvent
	for rows.Next() {
		var ev attendance.AttendanceEvent
		if err := rows.Scan(&ev.ID, &ev.EmployeeID, &ev.Type, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan attendance event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance events: %w", err)
	}

	return events, nil
}

// ListLunchEvents implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListLunchEvents(ctx context.Context, employeeID string, start, end time.Time) ([]attendance.LunchEvent, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, employee_id, event_type, occurred_at
		FROM lunch_events
		WHERE employee_id = $1
		  AND occurred_at >= $2
		  AND occurred_at < $3
		ORDER BY occurred_at, id
	`

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query lunch events: %w", err)
	}
	defer rows.Close()

	var events []attendance.LunchEvent
	for rows.Next() {
		var ev attendance.LunchEvent
		if err := rows.Scan(&ev.ID, &ev.EmployeeID, &ev.Type, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan lunch event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lunch events: %w", err)
	}

	return events, nil
}
