package postgresql_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/presence-payroll-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL and applies the schema. Tests are
// skipped when the variable is unset.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, postgresql.Migrate(context.Background(), db))
	return db
}

func newEmployeeID() string {
	return "emp-" + uuid.NewString()
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, postgresql.Migrate(context.Background(), db))
}

func TestProfileUpsertAndCursor(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(db)
	emp := newEmployeeID()

	_, err := repo.GetProfile(ctx, emp)
	assert.ErrorIs(t, err, payroll.ErrProfileNotFound)

	saved, err := repo.UpsertProfile(ctx, payroll.PayrollProfile{
		EmployeeID:      emp,
		BaseSalary:      decimal.NewFromInt(3000000),
		CycleDays:       30,
		PerDayRounding:  payroll.RoundingFloor,
		ExcludeWeekdays: []int{0, 6},
		EffectiveFrom:   date("2024-01-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 6}, saved.ExcludeWeekdays)
	assert.Nil(t, saved.LastPaidThrough)

	// Cursor guard: the previous value must match.
	require.NoError(t, repo.AdvanceCursor(ctx, emp, nil, date("2024-01-30")))
	err = repo.AdvanceCursor(ctx, emp, nil, date("2024-02-28"))
	assert.ErrorIs(t, err, database.ErrSerializationConflict)

	prev := date("2024-01-30")
	require.NoError(t, repo.AdvanceCursor(ctx, emp, &prev, date("2024-02-28")))

	// Updating the profile keeps the cursor.
	updated, err := repo.UpsertProfile(ctx, payroll.PayrollProfile{
		EmployeeID:     emp,
		BaseSalary:     decimal.NewFromInt(3500000),
		CycleDays:      30,
		PerDayRounding: payroll.RoundingNone,
		EffectiveFrom:  date("2024-01-01"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.LastPaidThrough)
	assert.Equal(t, "2024-02-28", updated.LastPaidThrough.Format("2006-01-02"))
	assert.True(t, updated.BaseSalary.Equal(decimal.NewFromInt(3500000)))
	assert.Empty(t, updated.ExcludeWeekdays)
}

func TestAdvancesOrderedOldestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(db)
	emp := newEmployeeID()

	base := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	var ids []string
	for i, amount := range []int64{300, 100, 200} {
		a, err := repo.CreateAdvance(ctx, payroll.PayrollAdvance{
			ID:              uuid.NewString(),
			EmployeeID:      emp,
			Amount:          decimal.NewFromInt(amount),
			RemainingAmount: decimal.NewFromInt(amount),
			Status:          payroll.AdvanceStatusOpen,
			CreatedAt:       base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}

	settled, err := repo.GetAdvanceByID(ctx, ids[1])
	require.NoError(t, err)
	settledAt := base.Add(48 * time.Hour)
	settled.RemainingAmount = decimal.Zero
	settled.Status = payroll.AdvanceStatusSettled
	settled.SettledAt = &settledAt
	require.NoError(t, repo.UpdateAdvanceBalance(ctx, settled))

	open, err := repo.ListOpenAdvances(ctx, emp)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, ids[0], open[0].ID)
	assert.Equal(t, ids[2], open[1].ID)

	all, err := repo.ListAdvances(ctx, payroll.AdvanceFilter{EmployeeID: emp})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = repo.GetAdvanceByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, payroll.ErrAdvanceNotFound)

	missing := settled
	missing.ID = uuid.NewString()
	assert.ErrorIs(t, repo.UpdateAdvanceBalance(ctx, missing), payroll.ErrAdvanceNotFound)
}

func TestSlipLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(db)
	emp := newEmployeeID()

	newSlip := func(start, end string) payroll.PayrollSlip {
		return payroll.PayrollSlip{
			ID:               uuid.NewString(),
			EmployeeID:       emp,
			PeriodStart:      date(start),
			PeriodEnd:        date(end),
			BaseSalary:       decimal.NewFromInt(3000000),
			CycleDays:        30,
			PerDay:           decimal.NewFromInt(100000),
			WorkingDaysCount: 22,
			AbsentDays:       1,
			AbsentDeduction:  decimal.NewFromInt(100000),
			AdvancesApplied:  []payroll.AppliedAdvance{{AdvanceID: uuid.NewString(), Amount: decimal.NewFromInt(50000)}},
			AdvancesTotal:    decimal.NewFromInt(50000),
			OtherAdjustment:  decimal.Zero,
			NetPay:           decimal.NewFromInt(2850000),
			Status:           payroll.SlipStatusDraft,
			CreatedAt:        time.Now().UTC(),
		}
	}

	first, err := repo.CreateSlip(ctx, newSlip("2024-01-01", "2024-01-30"))
	require.NoError(t, err)
	require.Len(t, first.AdvancesApplied, 1)
	assert.True(t, first.AdvancesApplied[0].Amount.Equal(decimal.NewFromInt(50000)))

	_, err = repo.CreateSlip(ctx, newSlip("2024-01-31", "2024-02-29"))
	require.NoError(t, err)

	// Same period end is rejected as a retryable conflict.
	_, err = repo.CreateSlip(ctx, newSlip("2024-01-01", "2024-01-30"))
	assert.ErrorIs(t, err, database.ErrSerializationConflict)

	slips, total, err := repo.ListSlips(ctx, payroll.SlipFilter{EmployeeID: emp, Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, slips, 1)
	assert.Equal(t, "2024-02-29", slips[0].PeriodEnd.Format("2006-01-02"))

	paid, err := repo.MarkSlipPaid(ctx, first.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, payroll.SlipStatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)

	_, err = repo.MarkSlipPaid(ctx, first.ID, time.Now().UTC())
	assert.ErrorIs(t, err, payroll.ErrSlipAlreadyPaid)

	_, err = repo.MarkSlipPaid(ctx, uuid.NewString(), time.Now().UTC())
	assert.ErrorIs(t, err, payroll.ErrSlipNotFound)

	status := string(payroll.SlipStatusDraft)
	drafts, total, err := repo.ListSlips(ctx, payroll.SlipFilter{EmployeeID: emp, Status: &status, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, drafts, 1)
}

func TestTransactorRollsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(db)
	tx := postgresql.NewTransactor(db)
	emp := newEmployeeID()

	err := tx.RunSerializable(ctx, func(ctx context.Context) error {
		if _, err := repo.UpsertProfile(ctx, payroll.PayrollProfile{
			EmployeeID:     emp,
			BaseSalary:     decimal.NewFromInt(1000),
			CycleDays:      7,
			PerDayRounding: payroll.RoundingNone,
			EffectiveFrom:  date("2024-01-01"),
		}); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	_, err = repo.GetProfile(ctx, emp)
	assert.ErrorIs(t, err, payroll.ErrProfileNotFound)
}

func TestAttendanceEventsWindow(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(db)
	emp := newEmployeeID()

	base := time.Date(2024, 3, 4, 1, 0, 0, 0, time.UTC)
	_, err := db.Exec(ctx, `
		INSERT INTO attendance_events (employee_id, event_type, occurred_at) VALUES
			($1, 'checkout', $2), ($1, 'checkin', $3), ($1, 'checkin', $4)
	`, emp, base.Add(9*time.Hour), base, base.Add(24*time.Hour))
	require.NoError(t, err)

	_, err = db.Exec(ctx, `
		INSERT INTO lunch_events (employee_id, event_type, occurred_at) VALUES
			($1, 'lunch-start', $2), ($1, 'lunch-end', $3)
	`, emp, base.Add(4*time.Hour), base.Add(5*time.Hour))
	require.NoError(t, err)

	events, err := repo.ListEvents(ctx, emp, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, attendance.EventCheckIn, events[0].Type)
	assert.Equal(t, attendance.EventCheckOut, events[1].Type)

	lunch, err := repo.ListLunchEvents(ctx, emp, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, lunch, 2)
	assert.Equal(t, attendance.LunchStart, lunch[0].Type)
}
