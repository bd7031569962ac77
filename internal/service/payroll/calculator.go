package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
)

// Cycle is the attendance-driven part of one pay period, before advances.
type Cycle struct {
	Period                 payroll.Period
	BaseSalary             decimal.Decimal
	CycleDays              int
	PerDay                 decimal.Decimal
	WorkingDays            []time.Time
	AbsentDates            []time.Time
	AbsentDeduction        decimal.Decimal
	AvailableBeforeAdvance decimal.Decimal
}

func (c Cycle) AbsentDays() int {
	return len(c.AbsentDates)
}

// PeriodFor returns the next unpaid period of a profile: the day after
// lastPaidThrough (or effectiveFrom) through cycleDays-1 days later.
func PeriodFor(profile payroll.PayrollProfile) payroll.Period {
	start := calendar.Truncate(profile.EffectiveFrom)
	if profile.LastPaidThrough != nil {
		start = calendar.AddDays(*profile.LastPaidThrough, 1)
	}
	return payroll.Period{
		Start: start,
		End:   calendar.AddDays(start, profile.CycleDays-1),
	}
}

// PerDayRate divides baseSalary by cycleDays and applies the rounding policy.
// "round" rounds half away from zero.
func PerDayRate(baseSalary decimal.Decimal, cycleDays int, rounding payroll.Rounding) decimal.Decimal {
	rate := baseSalary.Div(decimal.NewFromInt(int64(cycleDays)))
	switch rounding {
	case payroll.RoundingFloor:
		return rate.Floor()
	case payroll.RoundingRound:
		return rate.Round(0)
	case payroll.RoundingCeil:
		return rate.Ceil()
	default:
		return rate
	}
}

// ComputeCycle walks every day of period. Excluded weekdays are skipped;
// any other day without an attendance event in present is an absence.
func ComputeCycle(profile payroll.PayrollProfile, period payroll.Period, present map[string]bool) (Cycle, error) {
	if profile.CycleDays < 1 {
		return Cycle{}, fmt.Errorf("%w: cycle days %d", payroll.ErrInvalidPeriod, profile.CycleDays)
	}
	if period.End.Before(period.Start) {
		return Cycle{}, fmt.Errorf("%w: period end %s before start %s", payroll.ErrInvariantViolation,
			calendar.FormatDate(period.End), calendar.FormatDate(period.Start))
	}

	c := Cycle{
		Period:      period,
		BaseSalary:  profile.BaseSalary,
		CycleDays:   profile.CycleDays,
		PerDay:      PerDayRate(profile.BaseSalary, profile.CycleDays, profile.PerDayRounding),
		WorkingDays: []time.Time{},
		AbsentDates: []time.Time{},
	}

	for _, day := range calendar.Days(period.Start, period.End) {
		if profile.IsExcluded(calendar.Weekday(day)) {
			continue
		}
		c.WorkingDays = append(c.WorkingDays, day)
		if !present[calendar.FormatDate(day)] {
			c.AbsentDates = append(c.AbsentDates, day)
		}
	}

	c.AbsentDeduction = absentDeduction(profile, c.PerDay, len(c.AbsentDates))
	c.AvailableBeforeAdvance = decimal.Max(decimal.Zero, c.BaseSalary.Sub(c.AbsentDeduction))
	return c, nil
}

// absentDeduction is perDay × absent. Without rounding the division is done
// last so that absence on every day of the cycle deducts exactly baseSalary.
func absentDeduction(profile payroll.PayrollProfile, perDay decimal.Decimal, absent int) decimal.Decimal {
	n := decimal.NewFromInt(int64(absent))
	if profile.PerDayRounding == payroll.RoundingNone {
		return profile.BaseSalary.Mul(n).Div(decimal.NewFromInt(int64(profile.CycleDays)))
	}
	return perDay.Mul(n)
}
