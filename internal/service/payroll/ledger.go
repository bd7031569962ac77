package payroll

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// Selection is the outcome of walking open advances against a budget.
type Selection struct {
	OpenCount int
	OpenTotal decimal.Decimal
	Applied   []payroll.AppliedAdvance
	Total     decimal.Decimal
	// Updated holds the touched advances with their new balance. Fully
	// consumed ones are settled at the given time.
	Updated []payroll.PayrollAdvance
}

// SelectAdvances consumes open advances oldest first (createdAt, then id),
// applying min(outstanding, remaining budget) to each until the budget is
// spent. It does not modify its input.
func SelectAdvances(open []payroll.PayrollAdvance, available decimal.Decimal, now time.Time) Selection {
	sorted := make([]payroll.PayrollAdvance, 0, len(open))
	for _, a := range open {
		if a.IsOpen() && a.RemainingAmount.IsPositive() {
			sorted = append(sorted, a)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	sel := Selection{
		OpenTotal: decimal.Zero,
		Applied:   []payroll.AppliedAdvance{},
		Total:     decimal.Zero,
		Updated:   []payroll.PayrollAdvance{},
	}
	budget := decimal.Max(decimal.Zero, available)

	for _, a := range sorted {
		sel.OpenCount++
		sel.OpenTotal = sel.OpenTotal.Add(a.RemainingAmount)

		if !budget.IsPositive() {
			continue
		}
		apply := decimal.Min(a.RemainingAmount, budget)
		budget = budget.Sub(apply)
		sel.Total = sel.Total.Add(apply)
		sel.Applied = append(sel.Applied, payroll.AppliedAdvance{AdvanceID: a.ID, Amount: apply})

		a.RemainingAmount = a.RemainingAmount.Sub(apply)
		if a.RemainingAmount.IsZero() {
			settledAt := now
			a.Status = payroll.AdvanceStatusSettled
			a.SettledAt = &settledAt
		}
		sel.Updated = append(sel.Updated, a)
	}
	return sel
}
