package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// ========== PROFILES ==========

const profileColumns = `
	employee_id, base_salary, cycle_days, per_day_rounding, exclude_weekdays,
	effective_from, last_paid_through, created_at, updated_at
`

func scanProfile(row pgx.Row) (payroll.PayrollProfile, error) {
	var p payroll.PayrollProfile
	var weekdays []int32
	err := row.Scan(
		&p.EmployeeID, &p.BaseSalary, &p.CycleDays, &p.PerDayRounding, &weekdays,
		&p.EffectiveFrom, &p.LastPaidThrough, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return payroll.PayrollProfile{}, err
	}
	p.ExcludeWeekdays = make([]int, 0, len(weekdays))
	for _, w := range weekdays {
		p.ExcludeWeekdays = append(p.ExcludeWeekdays, int(w))
	}
	return p, nil
}

func (r *payrollRepository) GetProfile(ctx context.Context, employeeID string) (payroll.PayrollProfile, error) {
	return r.getProfile(ctx, employeeID, "")
}

func (r *payrollRepository) GetProfileForUpdate(ctx context.Context, employeeID string) (payroll.PayrollProfile, error) {
	return r.getProfile(ctx, employeeID, " FOR UPDATE")
}

func (r *payrollRepository) getProfile(ctx context.Context, employeeID string, suffix string) (payroll.PayrollProfile, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + profileColumns + ` FROM payroll_profiles WHERE employee_id = $1` + suffix

	p, err := scanProfile(q.QueryRow(ctx, query, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollProfile{}, payroll.ErrProfileNotFound
		}
		return payroll.PayrollProfile{}, fmt.Errorf("failed to get payroll profile: %w", err)
	}
	return p, nil
}

// UpsertProfile leaves last_paid_through untouched on update.
func (r *payrollRepository) UpsertProfile(ctx context.Context, profile payroll.PayrollProfile) (payroll.PayrollProfile, error) {
	q := GetQuerier(ctx, r.db)

	weekdays := make([]int32, 0, len(profile.ExcludeWeekdays))
	for _, w := range profile.ExcludeWeekdays {
		weekdays = append(weekdays, int32(w))
	}

	query := `
		INSERT INTO payroll_profiles (
			employee_id, base_salary, cycle_days, per_day_rounding, exclude_weekdays, effective_from
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (employee_id) DO UPDATE SET
			base_salary = EXCLUDED.base_salary,
			cycle_days = EXCLUDED.cycle_days,
			per_day_rounding = EXCLUDED.per_day_rounding,
			exclude_weekdays = EXCLUDED.exclude_weekdays,
			effective_from = EXCLUDED.effective_from,
			updated_at = NOW()
		RETURNING ` + profileColumns

	p, err := scanProfile(q.QueryRow(ctx, query,
		profile.EmployeeID, profile.BaseSalary, profile.CycleDays, profile.PerDayRounding, weekdays, profile.EffectiveFrom,
	))
	if err != nil {
		return payroll.PayrollProfile{}, fmt.Errorf("failed to upsert payroll profile: %w", err)
	}
	return p, nil
}

func (r *payrollRepository) ListProfiles(ctx context.Context) ([]payroll.PayrollProfile, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + profileColumns + ` FROM payroll_profiles ORDER BY employee_id`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll profiles: %w", err)
	}
	defer rows.Close()

	var profiles []payroll.PayrollProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll profiles: %w", err)
	}
	return profiles, nil
}

func (r *payrollRepository) AdvanceCursor(ctx context.Context, employeeID string, prev *time.Time, next time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_profiles
		SET last_paid_through = $3, updated_at = NOW()
		WHERE employee_id = $1
		  AND last_paid_through IS NOT DISTINCT FROM $2::date
	`

	tag, err := q.Exec(ctx, query, employeeID, prev, next)
	if err != nil {
		return fmt.Errorf("failed to advance paid-through cursor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("paid-through cursor moved concurrently: %w", database.ErrSerializationConflict)
	}
	return nil
}

// ========== ADVANCES ==========

const advanceColumns = `
	id, employee_id, amount, remaining_amount, status, note, created_at, settled_at, updated_at
`

func scanAdvance(row pgx.Row) (payroll.PayrollAdvance, error) {
	var a payroll.PayrollAdvance
	err := row.Scan(
		&a.ID, &a.EmployeeID, &a.Amount, &a.RemainingAmount, &a.Status, &a.Note,
		&a.CreatedAt, &a.SettledAt, &a.UpdatedAt,
	)
	return a, err
}

func (r *payrollRepository) CreateAdvance(ctx context.Context, advance payroll.PayrollAdvance) (payroll.PayrollAdvance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_advances (id, employee_id, amount, remaining_amount, status, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + advanceColumns

	a, err := scanAdvance(q.QueryRow(ctx, query,
		advance.ID, advance.EmployeeID, advance.Amount, advance.RemainingAmount, advance.Status, advance.Note, advance.CreatedAt,
	))
	if err != nil {
		return payroll.PayrollAdvance{}, fmt.Errorf("failed to create payroll advance: %w", err)
	}
	return a, nil
}

func (r *payrollRepository) GetAdvanceByID(ctx context.Context, id string) (payroll.PayrollAdvance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + advanceColumns + ` FROM payroll_advances WHERE id = $1`

	a, err := scanAdvance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollAdvance{}, payroll.ErrAdvanceNotFound
		}
		return payroll.PayrollAdvance{}, fmt.Errorf("failed to get payroll advance: %w", err)
	}
	return a, nil
}

func (r *payrollRepository) ListOpenAdvances(ctx context.Context, employeeID string) ([]payroll.PayrollAdvance, error) {
	status := string(payroll.AdvanceStatusOpen)
	return r.ListAdvances(ctx, payroll.AdvanceFilter{EmployeeID: employeeID, Status: &status})
}

// ListAdvances returns advances oldest first.
func (r *payrollRepository) ListAdvances(ctx context.Context, filter payroll.AdvanceFilter) ([]payroll.PayrollAdvance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + advanceColumns + ` FROM payroll_advances WHERE employee_id = $1`
	args := []interface{}{filter.EmployeeID}
	if filter.Status != nil {
		query += " AND status = $2"
		args = append(args, *filter.Status)
	}
	query += " ORDER BY created_at, id"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll advances: %w", err)
	}
	defer rows.Close()

	var advances []payroll.PayrollAdvance
	for rows.Next() {
		a, err := scanAdvance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll advance: %w", err)
		}
		advances = append(advances, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll advances: %w", err)
	}
	return advances, nil
}

func (r *payrollRepository) UpdateAdvanceBalance(ctx context.Context, advance payroll.PayrollAdvance) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_advances
		SET remaining_amount = $2, status = $3, settled_at = $4, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, advance.ID, advance.RemainingAmount, advance.Status, advance.SettledAt)
	if err != nil {
		return fmt.Errorf("failed to update payroll advance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrAdvanceNotFound
	}
	return nil
}

// ========== SLIPS ==========

const slipColumns = `
	id, employee_id, period_start, period_end, base_salary, cycle_days, per_day,
	working_days_count, absent_days, absent_deduction, advances_applied, advances_total,
	other_adjustment, net_pay, status, paid_at, created_at
`

func scanSlip(row pgx.Row) (payroll.PayrollSlip, error) {
	var s payroll.PayrollSlip
	var appliedBytes []byte
	err := row.Scan(
		&s.ID, &s.EmployeeID, &s.PeriodStart, &s.PeriodEnd, &s.BaseSalary, &s.CycleDays, &s.PerDay,
		&s.WorkingDaysCount, &s.AbsentDays, &s.AbsentDeduction, &appliedBytes, &s.AdvancesTotal,
		&s.OtherAdjustment, &s.NetPay, &s.Status, &s.PaidAt, &s.CreatedAt,
	)
	if err != nil {
		return payroll.PayrollSlip{}, err
	}
	if err := json.Unmarshal(appliedBytes, &s.AdvancesApplied); err != nil {
		return payroll.PayrollSlip{}, fmt.Errorf("failed to decode advances_applied: %w", err)
	}
	return s, nil
}

func (r *payrollRepository) CreateSlip(ctx context.Context, slip payroll.PayrollSlip) (payroll.PayrollSlip, error) {
	q := GetQuerier(ctx, r.db)

	applied := slip.AdvancesApplied
	if applied == nil {
		applied = []payroll.AppliedAdvance{}
	}
	appliedJSON, err := json.Marshal(applied)
	if err != nil {
		return payroll.PayrollSlip{}, fmt.Errorf("failed to encode advances_applied: %w", err)
	}

	query := `
		INSERT INTO payroll_slips (
			id, employee_id, period_start, period_end, base_salary, cycle_days, per_day,
			working_days_count, absent_days, absent_deduction, advances_applied, advances_total,
			other_adjustment, net_pay, status, paid_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING ` + slipColumns

	s, err := scanSlip(q.QueryRow(ctx, query,
		slip.ID, slip.EmployeeID, slip.PeriodStart, slip.PeriodEnd, slip.BaseSalary, slip.CycleDays, slip.PerDay,
		slip.WorkingDaysCount, slip.AbsentDays, slip.AbsentDeduction, appliedJSON, slip.AdvancesTotal,
		slip.OtherAdjustment, slip.NetPay, slip.Status, slip.PaidAt, slip.CreatedAt,
	))
	if err != nil {
		// A duplicate (employee_id, period_end) surfaces as a retryable conflict.
		return payroll.PayrollSlip{}, fmt.Errorf("failed to create payroll slip: %w", database.MapError(err))
	}
	return s, nil
}

func (r *payrollRepository) GetSlipByID(ctx context.Context, id string) (payroll.PayrollSlip, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + slipColumns + ` FROM payroll_slips WHERE id = $1`

	s, err := scanSlip(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollSlip{}, payroll.ErrSlipNotFound
		}
		return payroll.PayrollSlip{}, fmt.Errorf("failed to get payroll slip: %w", err)
	}
	return s, nil
}

// ListSlips returns slips newest first with the total count for pagination.
func (r *payrollRepository) ListSlips(ctx context.Context, filter payroll.SlipFilter) ([]payroll.PayrollSlip, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := " WHERE employee_id = $1"
	args := []interface{}{filter.EmployeeID}
	if filter.Status != nil {
		where += " AND status = $2"
		args = append(args, *filter.Status)
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM payroll_slips`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll slips: %w", err)
	}

	query := `SELECT ` + slipColumns + ` FROM payroll_slips` + where +
		fmt.Sprintf(" ORDER BY period_end DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll slips: %w", err)
	}
	defer rows.Close()

	var slips []payroll.PayrollSlip
	for rows.Next() {
		s, err := scanSlip(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll slip: %w", err)
		}
		slips = append(slips, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate payroll slips: %w", err)
	}
	return slips, total, nil
}

func (r *payrollRepository) MarkSlipPaid(ctx context.Context, id string, paidAt time.Time) (payroll.PayrollSlip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_slips
		SET status = 'paid', paid_at = $2
		WHERE id = $1 AND status = 'draft'
		RETURNING ` + slipColumns

	s, err := scanSlip(q.QueryRow(ctx, query, id, paidAt))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return payroll.PayrollSlip{}, fmt.Errorf("failed to mark payroll slip paid: %w", err)
	}

	// Nothing updated: either the slip is missing or it is already paid.
	if _, getErr := r.GetSlipByID(ctx, id); getErr != nil {
		return payroll.PayrollSlip{}, getErr
	}
	return payroll.PayrollSlip{}, payroll.ErrSlipAlreadyPaid
}
