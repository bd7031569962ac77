package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rounding enum applied to baseSalary / cycleDays.
type Rounding string

const (
	RoundingNone  Rounding = "none"
	RoundingFloor Rounding = "floor"
	RoundingRound Rounding = "round"
	RoundingCeil  Rounding = "ceil"
)

// PayrollProfile - Per-employee pay configuration.
// LastPaidThrough is only ever moved by a slip commit.
type PayrollProfile struct {
	EmployeeID      string
	BaseSalary      decimal.Decimal
	CycleDays       int
	PerDayRounding  Rounding
	ExcludeWeekdays []int // 0 = Sunday
	EffectiveFrom   time.Time
	LastPaidThrough *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsExcluded reports whether the weekday is never a working day.
func (p PayrollProfile) IsExcluded(weekday int) bool {
	for _, w := range p.ExcludeWeekdays {
		if w == weekday {
			return true
		}
	}
	return false
}

// AdvanceStatus enum
type AdvanceStatus string

const (
	AdvanceStatusOpen    AdvanceStatus = "open"
	AdvanceStatusSettled AdvanceStatus = "settled"
)

// PayrollAdvance - Cash advance repaid out of future slips.
type PayrollAdvance struct {
	ID              string
	EmployeeID      string
	Amount          decimal.Decimal
	RemainingAmount decimal.Decimal
	Status          AdvanceStatus
	Note            *string
	CreatedAt       time.Time
	SettledAt       *time.Time
	UpdatedAt       time.Time
}

func (a PayrollAdvance) IsOpen() bool {
	return a.Status == AdvanceStatusOpen
}

// SlipStatus enum
type SlipStatus string

const (
	SlipStatusDraft SlipStatus = "draft"
	SlipStatusPaid  SlipStatus = "paid"
)

type AppliedAdvance struct {
	AdvanceID string          `json:"advance_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// PayrollSlip - Committed payroll result for one period.
// Immutable except for the draft -> paid transition.
type PayrollSlip struct {
	ID               string
	EmployeeID       string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	BaseSalary       decimal.Decimal
	CycleDays        int
	PerDay           decimal.Decimal
	WorkingDaysCount int
	AbsentDays       int
	AbsentDeduction  decimal.Decimal
	AdvancesApplied  []AppliedAdvance
	AdvancesTotal    decimal.Decimal
	OtherAdjustment  decimal.Decimal
	NetPay           decimal.Decimal
	Status           SlipStatus
	PaidAt           *time.Time
	CreatedAt        time.Time
}

// Period is an inclusive range of calendar dates.
type Period struct {
	Start time.Time
	End   time.Time
}
