package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/calendar"
	"golang.org/x/sync/errgroup"
)

const bulkConcurrency = 8

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	zone         calendar.Zone
	maxRangeDays int
	now          func() time.Time
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	zone calendar.Zone,
	maxRangeDays int,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		zone:                 zone,
		maxRangeDays:         maxRangeDays,
		now:                  time.Now,
	}
}

// GetDayAggregates implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetDayAggregates(ctx context.Context, filter attendance.DayAggregateFilter) (attendance.EmployeeDaysResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.EmployeeDaysResponse{}, err
	}
	from, to, err := s.checkedRange(filter.Range())
	if err != nil {
		return attendance.EmployeeDaysResponse{}, err
	}
	return s.buildEmployeeDays(ctx, filter.EmployeeID, from, to)
}

// ListDayAggregates implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListDayAggregates(ctx context.Context, filter attendance.BulkDayAggregateFilter) ([]attendance.EmployeeDaysResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	from, to, err := s.checkedRange(filter.Range())
	if err != nil {
		return nil, err
	}

	results := make([]attendance.EmployeeDaysResponse, len(filter.EmployeeIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkConcurrency)
	for i, employeeID := range filter.EmployeeIDs {
		i, employeeID := i, employeeID
		g.Go(func() error {
			res, err := s.buildEmployeeDays(gctx, employeeID, from, to)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *AttendanceServiceImpl) checkedRange(from, to time.Time, err error) (time.Time, time.Time, error) {
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if s.maxRangeDays > 0 && calendar.DaysBetween(from, to)+1 > s.maxRangeDays {
		return time.Time{}, time.Time{}, attendance.ErrRangeTooLarge
	}
	return from, to, nil
}

// LoadDays fetches both event streams for the window and returns day
// aggregates with lunch applied. The payroll service reads cycle presence
// through it as well.
func LoadDays(ctx context.Context, repo attendance.AttendanceRepository, zone calendar.Zone, employeeID string, from, to time.Time, opts AggregateOptions) ([]attendance.DayAggregate, error) {
	start, end := zone.Window(from, to)

	events, err := repo.ListEvents(ctx, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance events: %w", err)
	}
	lunchEvents, err := repo.ListLunchEvents(ctx, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list lunch events: %w", err)
	}

	days := AggregateDays(events, zone, opts)
	return ApplyLunch(days, PairLunches(lunchEvents, zone)), nil
}

func (s *AttendanceServiceImpl) buildEmployeeDays(ctx context.Context, employeeID string, from, to time.Time) (attendance.EmployeeDaysResponse, error) {
	now := s.now()
	days, err := LoadDays(ctx, s.AttendanceRepository, s.zone, employeeID, from, to, AggregateOptions{Now: &now})
	if err != nil {
		return attendance.EmployeeDaysResponse{}, err
	}

	totals := Summarize(days)
	return attendance.EmployeeDaysResponse{
		EmployeeID: employeeID,
		StartDate:  calendar.FormatDate(from),
		EndDate:    calendar.FormatDate(to),
		Timezone:   s.zone.Name(),
		Days:       mapToDayResponses(days, s.zone),
		Totals: attendance.DayTotalsResponse{
			Days:        totals.Days,
			ValidDays:   totals.ValidDays,
			InvalidDays: totals.InvalidDays,
			GrossMs:     totals.GrossMs,
			LunchMs:     totals.LunchMs,
			NetMs:       totals.NetMs,
		},
	}, nil
}

// ========== HELPERS ==========

// timePtrToString formats an instant in the payroll zone.
func timePtrToString(t *time.Time, zone calendar.Zone) *string {
	if t == nil {
		return nil
	}
	format := t.In(zone.Location()).Format(time.RFC3339)
	return &format
}

func mapToDayResponses(days []attendance.DayAggregate, zone calendar.Zone) []attendance.DayAggregateResponse {
	result := make([]attendance.DayAggregateResponse, 0, len(days))
	for _, d := range days {
		reasons := make([]string, 0, len(d.Reasons))
		for _, r := range d.Reasons {
			reasons = append(reasons, string(r))
		}
		result = append(result, attendance.DayAggregateResponse{
			DayKey:              d.DayKey,
			FirstIn:             timePtrToString(d.FirstIn, zone),
			LastOut:             timePtrToString(d.LastOut, zone),
			CheckInCount:        d.CheckInCount,
			CheckOutCount:       d.CheckOutCount,
			PairsCount:          d.PairsCount,
			PairedMs:            d.PairedMs,
			OrphanCheckoutCount: d.OrphanCheckoutCount,
			HasOpenCheckin:      d.HasOpenCheckin,
			Status:              string(d.Status),
			Reasons:             reasons,
			GrossMs:             d.GrossMs,
			PreviewGrossMs:      d.PreviewGrossMs,
			LunchMs:             d.LunchMs,
			NetMs:               d.NetMs,
		})
	}
	return result
}
