package payroll

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAdvance(id string, amount int64, createdAt time.Time) payroll.PayrollAdvance {
	return payroll.PayrollAdvance{
		ID:              id,
		EmployeeID:      "emp-1",
		Amount:          decimal.NewFromInt(amount),
		RemainingAmount: decimal.NewFromInt(amount),
		Status:          payroll.AdvanceStatusOpen,
		CreatedAt:       createdAt,
	}
}

var ledgerNow = time.Date(2024, 4, 1, 5, 0, 0, 0, time.UTC)

func TestSelectAdvances_SingleAdvanceFullyApplied(t *testing.T) {
	sel := SelectAdvances([]payroll.PayrollAdvance{
		openAdvance("a1", 5000, ledgerNow.Add(-48*time.Hour)),
	}, decimal.NewFromInt(20000), ledgerNow)

	assert.Equal(t, 1, sel.OpenCount)
	assert.True(t, sel.OpenTotal.Equal(decimal.NewFromInt(5000)))
	assert.True(t, sel.Total.Equal(decimal.NewFromInt(5000)))
	require.Len(t, sel.Updated, 1)
	assert.Equal(t, payroll.AdvanceStatusSettled, sel.Updated[0].Status)
	assert.True(t, sel.Updated[0].RemainingAmount.IsZero())
	require.NotNil(t, sel.Updated[0].SettledAt)
	assert.Equal(t, ledgerNow, *sel.Updated[0].SettledAt)
}

func TestSelectAdvances_OldestFirstWithPartial(t *testing.T) {
	older := openAdvance("b-older", 3000, ledgerNow.Add(-72*time.Hour))
	newer := openAdvance("a-newer", 4000, ledgerNow.Add(-24*time.Hour))
	input := []payroll.PayrollAdvance{newer, older}

	sel := SelectAdvances(input, decimal.NewFromInt(5000), ledgerNow)

	require.Len(t, sel.Applied, 2)
	assert.Equal(t, "b-older", sel.Applied[0].AdvanceID)
	assert.True(t, sel.Applied[0].Amount.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, "a-newer", sel.Applied[1].AdvanceID)
	assert.True(t, sel.Applied[1].Amount.Equal(decimal.NewFromInt(2000)))
	assert.True(t, sel.Total.Equal(decimal.NewFromInt(5000)))
	assert.True(t, sel.OpenTotal.Equal(decimal.NewFromInt(7000)))

	require.Len(t, sel.Updated, 2)
	assert.Equal(t, payroll.AdvanceStatusSettled, sel.Updated[0].Status)
	assert.Equal(t, payroll.AdvanceStatusOpen, sel.Updated[1].Status)
	assert.True(t, sel.Updated[1].RemainingAmount.Equal(decimal.NewFromInt(2000)))
	assert.Nil(t, sel.Updated[1].SettledAt)

	// Input untouched.
	assert.Equal(t, "a-newer", input[0].ID)
	assert.True(t, input[0].RemainingAmount.Equal(decimal.NewFromInt(4000)))
}

func TestSelectAdvances_TieBreaksOnID(t *testing.T) {
	sameTime := ledgerNow.Add(-time.Hour)
	sel := SelectAdvances([]payroll.PayrollAdvance{
		openAdvance("z", 100, sameTime),
		openAdvance("a", 100, sameTime),
	}, decimal.NewFromInt(100), ledgerNow)

	require.Len(t, sel.Applied, 1)
	assert.Equal(t, "a", sel.Applied[0].AdvanceID)
}

func TestSelectAdvances_UsesRemainingBalance(t *testing.T) {
	partial := openAdvance("a1", 4000, ledgerNow.Add(-time.Hour))
	partial.RemainingAmount = decimal.NewFromInt(1500)
	settled := openAdvance("a2", 900, ledgerNow.Add(-2*time.Hour))
	settled.Status = payroll.AdvanceStatusSettled

	sel := SelectAdvances([]payroll.PayrollAdvance{partial, settled}, decimal.NewFromInt(10000), ledgerNow)

	assert.Equal(t, 1, sel.OpenCount)
	assert.True(t, sel.Total.Equal(decimal.NewFromInt(1500)))
	require.Len(t, sel.Updated, 1)
	assert.Equal(t, payroll.AdvanceStatusSettled, sel.Updated[0].Status)
}

func TestSelectAdvances_NoBudget(t *testing.T) {
	sel := SelectAdvances([]payroll.PayrollAdvance{
		openAdvance("a1", 500, ledgerNow.Add(-time.Hour)),
	}, decimal.Zero, ledgerNow)

	assert.Equal(t, 1, sel.OpenCount)
	assert.True(t, sel.OpenTotal.Equal(decimal.NewFromInt(500)))
	assert.True(t, sel.Total.IsZero())
	assert.Empty(t, sel.Applied)
	assert.Empty(t, sel.Updated)
}

func TestSelectAdvances_SumNeverExceedsBudgetOrBalance(t *testing.T) {
	advances := []payroll.PayrollAdvance{
		openAdvance("a1", 1200, ledgerNow.Add(-3*time.Hour)),
		openAdvance("a2", 800, ledgerNow.Add(-2*time.Hour)),
		openAdvance("a3", 450, ledgerNow.Add(-1*time.Hour)),
	}
	for _, budget := range []int64{0, 1, 799, 1200, 1999, 2000, 2449, 2450, 99999} {
		sel := SelectAdvances(advances, decimal.NewFromInt(budget), ledgerNow)

		sum := decimal.Zero
		for i, applied := range sel.Applied {
			assert.True(t, applied.Amount.LessThanOrEqual(advances[i].RemainingAmount))
			sum = sum.Add(applied.Amount)
		}
		assert.True(t, sum.Equal(sel.Total))
		assert.True(t, sel.Total.LessThanOrEqual(decimal.NewFromInt(budget)))
		assert.True(t, sel.Total.LessThanOrEqual(sel.OpenTotal))
	}
}
