package attendance

import (
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/validator"
)

// ========================================
// DAY AGGREGATE DTOs
// ========================================

type DayAggregateFilter struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

func (f *DayAggregateFilter) Validate() error {
	if errs := validator.Struct(f); len(errs) > 0 {
		return errs
	}
	return nil
}

// Range parses the filter dates. Call after Validate.
func (f *DayAggregateFilter) Range() (from, to time.Time, err error) {
	return parseRange(f.StartDate, f.EndDate)
}

type BulkDayAggregateFilter struct {
	EmployeeIDs []string `json:"employee_ids" validate:"required,min=1,max=200,dive,required"`
	StartDate   string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string   `json:"end_date" validate:"required,datetime=2006-01-02"`
}

func (f *BulkDayAggregateFilter) Validate() error {
	if errs := validator.Struct(f); len(errs) > 0 {
		return errs
	}
	return nil
}

func (f *BulkDayAggregateFilter) Range() (from, to time.Time, err error) {
	return parseRange(f.StartDate, f.EndDate)
}

func parseRange(start, end string) (from, to time.Time, err error) {
	from, err = calendar.ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	to, err = calendar.ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return from, to, nil
}

type DayAggregateResponse struct {
	DayKey              string   `json:"day_key"`
	FirstIn             *string  `json:"first_in,omitempty"`
	LastOut             *string  `json:"last_out,omitempty"`
	CheckInCount        int      `json:"checkin_count"`
	CheckOutCount       int      `json:"checkout_count"`
	PairsCount          int      `json:"pairs_count"`
	PairedMs            int64    `json:"paired_ms"`
	OrphanCheckoutCount int      `json:"orphan_checkout_count"`
	HasOpenCheckin      bool     `json:"has_open_checkin"`
	Status              string   `json:"status"`
	Reasons             []string `json:"reasons"`
	GrossMs             int64    `json:"gross_ms"`
	PreviewGrossMs      *int64   `json:"preview_gross_ms,omitempty"`
	LunchMs             int64    `json:"lunch_ms"`
	NetMs               int64    `json:"net_ms"`
}

type DayTotalsResponse struct {
	Days        int   `json:"days"`
	ValidDays   int   `json:"valid_days"`
	InvalidDays int   `json:"invalid_days"`
	GrossMs     int64 `json:"gross_ms"`
	LunchMs     int64 `json:"lunch_ms"`
	NetMs       int64 `json:"net_ms"`
}

type EmployeeDaysResponse struct {
	EmployeeID string                 `json:"employee_id"`
	StartDate  string                 `json:"start_date"`
	EndDate    string                 `json:"end_date"`
	Timezone   string                 `json:"timezone"`
	Days       []DayAggregateResponse `json:"days"`
	Totals     DayTotalsResponse      `json:"totals"`
}
