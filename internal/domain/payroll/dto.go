package payroll

import (
	"sort"

	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== PROFILE DTOs ==========

type UpsertProfileRequest struct {
	EmployeeID      string          `json:"employee_id" validate:"required"`
	BaseSalary      decimal.Decimal `json:"base_salary"`
	CycleDays       int             `json:"cycle_days" validate:"gte=1,lte=365"`
	PerDayRounding  string          `json:"per_day_rounding" validate:"required,oneof=none floor round ceil"`
	ExcludeWeekdays []int           `json:"exclude_weekdays" validate:"dive,gte=0,lte=6"`
	EffectiveFrom   string          `json:"effective_from" validate:"required,datetime=2006-01-02"`
}

func (r *UpsertProfileRequest) Validate() error {
	errs := validator.Struct(r)

	if r.BaseSalary.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "base_salary", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Weekdays returns ExcludeWeekdays deduplicated and sorted.
func (r *UpsertProfileRequest) Weekdays() []int {
	seen := make(map[int]bool, len(r.ExcludeWeekdays))
	out := make([]int, 0, len(r.ExcludeWeekdays))
	for _, w := range r.ExcludeWeekdays {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	sort.Ints(out)
	return out
}

type ProfileResponse struct {
	EmployeeID      string          `json:"employee_id"`
	BaseSalary      decimal.Decimal `json:"base_salary"`
	CycleDays       int             `json:"cycle_days"`
	PerDayRounding  string          `json:"per_day_rounding"`
	ExcludeWeekdays []int           `json:"exclude_weekdays"`
	EffectiveFrom   string          `json:"effective_from"`
	LastPaidThrough *string         `json:"last_paid_through"`
	NextPeriodStart string          `json:"next_period_start"`
	NextPeriodEnd   string          `json:"next_period_end"`
}

// ========== ADVANCE DTOs ==========

type CreateAdvanceRequest struct {
	EmployeeID string          `json:"employee_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Note       *string         `json:"note,omitempty" validate:"omitempty,max=255"`
}

func (r *CreateAdvanceRequest) Validate() error {
	errs := validator.Struct(r)

	if !r.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be greater than 0"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AdvanceFilter struct {
	EmployeeID string  `json:"employee_id" validate:"required"`
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=open settled"`
}

func (f *AdvanceFilter) Validate() error {
	if errs := validator.Struct(f); len(errs) > 0 {
		return errs
	}
	return nil
}

type AdvanceResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	Amount          decimal.Decimal `json:"amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          string          `json:"status"`
	Note            *string         `json:"note,omitempty"`
	CreatedAt       string          `json:"created_at"`
	SettledAt       *string         `json:"settled_at,omitempty"`
}

// ========== PREVIEW / COMMIT DTOs ==========

type PreviewResponse struct {
	EmployeeID              string           `json:"employee_id"`
	PeriodStart             string           `json:"period_start"`
	PeriodEnd               string           `json:"period_end"`
	PeriodComplete          bool             `json:"period_complete"`
	Timezone                string           `json:"timezone"`
	BaseSalary              decimal.Decimal  `json:"base_salary"`
	CycleDays               int              `json:"cycle_days"`
	PerDayRounding          string           `json:"per_day_rounding"`
	PerDay                  decimal.Decimal  `json:"per_day"`
	WorkingDaysCount        int              `json:"working_days_count"`
	AbsentDays              int              `json:"absent_days"`
	AbsentDates             []string         `json:"absent_dates"`
	AbsentDeduction         decimal.Decimal  `json:"absent_deduction"`
	AvailableBeforeAdvance  decimal.Decimal  `json:"available_before_advance"`
	OpenAdvancesCount       int              `json:"open_advances_count"`
	OpenAdvanceTotal        decimal.Decimal  `json:"open_advance_total"`
	RecommendedAdvanceApply decimal.Decimal  `json:"recommended_advance_apply"`
	AdvancesToApply         []AppliedAdvance `json:"advances_to_apply"`
	NetPay                  decimal.Decimal  `json:"net_pay"`
}

type CommitRequest struct {
	EmployeeID      string           `json:"employee_id" validate:"required"`
	OtherAdjustment *decimal.Decimal `json:"other_adjustment,omitempty"`
	MarkPaid        bool             `json:"mark_paid"`
	// ExpectedPeriodEnd, when set, makes the commit fail with ErrPeriodMismatch
	// unless the next period ends on that date.
	ExpectedPeriodEnd *string `json:"expected_period_end,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (r *CommitRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

// Adjustment returns OtherAdjustment or zero.
func (r *CommitRequest) Adjustment() decimal.Decimal {
	if r.OtherAdjustment == nil {
		return decimal.Zero
	}
	return *r.OtherAdjustment
}

// DueCommit names an employee whose next period has elapsed.
type DueCommit struct {
	EmployeeID  string `json:"employee_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

// ========== SLIP DTOs ==========

type SlipFilter struct {
	EmployeeID string  `json:"employee_id" validate:"required"`
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=draft paid"`
	Page       int     `json:"page" validate:"gte=0"`
	Limit      int     `json:"limit" validate:"gte=0,lte=100"`
}

func (f *SlipFilter) Validate() error {
	if errs := validator.Struct(f); len(errs) > 0 {
		return errs
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	return nil
}

func (f SlipFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type SlipResponse struct {
	ID               string           `json:"id"`
	EmployeeID       string           `json:"employee_id"`
	PeriodStart      string           `json:"period_start"`
	PeriodEnd        string           `json:"period_end"`
	BaseSalary       decimal.Decimal  `json:"base_salary"`
	CycleDays        int              `json:"cycle_days"`
	PerDay           decimal.Decimal  `json:"per_day"`
	WorkingDaysCount int              `json:"working_days_count"`
	AbsentDays       int              `json:"absent_days"`
	AbsentDeduction  decimal.Decimal  `json:"absent_deduction"`
	AdvancesApplied  []AppliedAdvance `json:"advances_applied"`
	AdvancesTotal    decimal.Decimal  `json:"advances_total"`
	OtherAdjustment  decimal.Decimal  `json:"other_adjustment"`
	NetPay           decimal.Decimal  `json:"net_pay"`
	Status           string           `json:"status"`
	PaidAt           *string          `json:"paid_at,omitempty"`
	CreatedAt        string           `json:"created_at"`
}

type ListSlipResponse struct {
	Data       []SlipResponse `json:"data"`
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
}
