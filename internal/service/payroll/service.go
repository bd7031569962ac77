package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/lock"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/validator"
	attendancesvc "github.com/cmlabs-hris/presence-payroll-go/internal/service/attendance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config tunes commit behaviour.
type Config struct {
	Zone         calendar.Zone
	MaxAttempts  int
	RetryBackoff time.Duration
	LockTTL      time.Duration
}

type PayrollServiceImpl struct {
	payrollRepo    payroll.PayrollRepository
	attendanceRepo attendance.AttendanceRepository
	transactor     payroll.Transactor
	locker         lock.Locker
	metrics        *metrics.Metrics
	cfg            Config
	now            func() time.Time
	newID          func() string
}

// NewPayrollService wires the payroll service. locker and m may be nil.
func NewPayrollService(
	payrollRepo payroll.PayrollRepository,
	attendanceRepo attendance.AttendanceRepository,
	transactor payroll.Transactor,
	locker lock.Locker,
	m *metrics.Metrics,
	cfg Config,
) payroll.PayrollService {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &PayrollServiceImpl{
		payrollRepo:    payrollRepo,
		attendanceRepo: attendanceRepo,
		transactor:     transactor,
		locker:         locker,
		metrics:        m,
		cfg:            cfg,
		now:            time.Now,
		newID:          func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

func commitLockKey(employeeID string) string {
	return "payroll:employee:" + employeeID + ":commit"
}

func requireID(field, value string) error {
	if validator.IsEmpty(value) {
		return validator.ValidationErrors{{Field: field, Message: "is required"}}
	}
	return nil
}

// today is the current calendar date in the payroll zone.
func (s *PayrollServiceImpl) today() time.Time {
	return s.cfg.Zone.Date(s.now())
}

// ========== PREVIEW ==========

// loadCycle reads attendance for the profile's next period and computes it.
// Presence is any check-in or checkout on the day, valid or not.
func (s *PayrollServiceImpl) loadCycle(ctx context.Context, profile payroll.PayrollProfile) (Cycle, error) {
	if profile.CycleDays < 1 {
		return Cycle{}, fmt.Errorf("%w: cycle days %d", payroll.ErrInvalidPeriod, profile.CycleDays)
	}
	period := PeriodFor(profile)

	days, err := attendancesvc.LoadDays(ctx, s.attendanceRepo, s.cfg.Zone, profile.EmployeeID, period.Start, period.End, attendancesvc.AggregateOptions{})
	if err != nil {
		return Cycle{}, err
	}

	return ComputeCycle(profile, period, attendancesvc.PresentDays(days))
}

func (s *PayrollServiceImpl) Preview(ctx context.Context, employeeID string) (payroll.PreviewResponse, error) {
	if err := requireID("employee_id", employeeID); err != nil {
		return payroll.PreviewResponse{}, err
	}

	profile, err := s.payrollRepo.GetProfile(ctx, employeeID)
	if err != nil {
		return payroll.PreviewResponse{}, err
	}

	cycle, err := s.loadCycle(ctx, profile)
	if err != nil {
		return payroll.PreviewResponse{}, err
	}

	open, err := s.payrollRepo.ListOpenAdvances(ctx, employeeID)
	if err != nil {
		return payroll.PreviewResponse{}, err
	}
	sel := SelectAdvances(open, cycle.AvailableBeforeAdvance, s.now())

	netPay := decimal.Max(decimal.Zero, cycle.BaseSalary.Sub(cycle.AbsentDeduction).Sub(sel.Total))

	absentDates := make([]string, 0, len(cycle.AbsentDates))
	for _, d := range cycle.AbsentDates {
		absentDates = append(absentDates, calendar.FormatDate(d))
	}

	return payroll.PreviewResponse{
		EmployeeID:              employeeID,
		PeriodStart:             calendar.FormatDate(cycle.Period.Start),
		PeriodEnd:               calendar.FormatDate(cycle.Period.End),
		PeriodComplete:          cycle.Period.End.Before(s.today()),
		Timezone:                s.cfg.Zone.Name(),
		BaseSalary:              cycle.BaseSalary,
		CycleDays:               cycle.CycleDays,
		PerDayRounding:          string(profile.PerDayRounding),
		PerDay:                  cycle.PerDay,
		WorkingDaysCount:        len(cycle.WorkingDays),
		AbsentDays:              cycle.AbsentDays(),
		AbsentDates:             absentDates,
		AbsentDeduction:         cycle.AbsentDeduction,
		AvailableBeforeAdvance:  cycle.AvailableBeforeAdvance,
		OpenAdvancesCount:       sel.OpenCount,
		OpenAdvanceTotal:        sel.OpenTotal,
		RecommendedAdvanceApply: sel.Total,
		AdvancesToApply:         sel.Applied,
		NetPay:                  netPay,
	}, nil
}

// ========== COMMIT ==========

func (s *PayrollServiceImpl) Commit(ctx context.Context, req payroll.CommitRequest) (payroll.SlipResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.SlipResponse{}, err
	}

	if _, err := s.payrollRepo.GetProfile(ctx, req.EmployeeID); err != nil {
		return payroll.SlipResponse{}, err
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, commitLockKey(req.EmployeeID), s.cfg.LockTTL)
		switch {
		case errors.Is(err, lock.ErrNotAcquired):
			s.metrics.ObserveCommit(metrics.OutcomeInProgress, 0)
			return payroll.SlipResponse{}, payroll.ErrCommitInProgress
		case err != nil:
			// The transaction still serializes commits without the lock.
			slog.Warn("Commit lock unavailable, continuing without it", "employee_id", req.EmployeeID, "error", err)
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					slog.Warn("Failed to release commit lock", "employee_id", req.EmployeeID, "error", err)
				}
			}()
		}
	}

	var slip payroll.PayrollSlip
	attempts, err := s.retry(ctx, func() error {
		var err error
		slip, err = s.commitOnce(ctx, req)
		return err
	})
	if err != nil {
		if errors.Is(err, database.ErrSerializationConflict) {
			s.metrics.ObserveCommit(metrics.OutcomeConflict, attempts)
			slog.Warn("Payroll commit gave up after conflicts", "employee_id", req.EmployeeID, "attempts", attempts, "error", err)
			return payroll.SlipResponse{}, payroll.ErrCommitConflict
		}
		s.metrics.ObserveCommit(metrics.OutcomeError, attempts)
		if errors.Is(err, payroll.ErrInvariantViolation) {
			slog.Error("Payroll invariant violated during commit", "employee_id", req.EmployeeID, "error", err)
		}
		return payroll.SlipResponse{}, err
	}

	s.metrics.ObserveCommit(metrics.OutcomeCommitted, attempts)
	slog.Info("Committed payroll slip",
		"employee_id", slip.EmployeeID,
		"slip_id", slip.ID,
		"period_start", calendar.FormatDate(slip.PeriodStart),
		"period_end", calendar.FormatDate(slip.PeriodEnd),
		"net_pay", slip.NetPay.String(),
		"attempts", attempts,
	)
	return s.toSlipResponse(slip), nil
}

// retry runs fn until it succeeds, fails with a non-conflict error, or
// MaxAttempts is reached. It returns the number of attempts made.
func (s *PayrollServiceImpl) retry(ctx context.Context, fn func() error) (int, error) {
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, database.ErrSerializationConflict) || attempt >= s.cfg.MaxAttempts {
			return attempt, err
		}
		s.metrics.IncCommitRetry()

		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-time.After(s.cfg.RetryBackoff * time.Duration(attempt)):
		}
	}
}

// commitOnce recomputes the period inside one serializable transaction and
// writes the slip, the advance balances and the new cursor.
func (s *PayrollServiceImpl) commitOnce(ctx context.Context, req payroll.CommitRequest) (payroll.PayrollSlip, error) {
	var created payroll.PayrollSlip

	err := s.transactor.RunSerializable(ctx, func(txCtx context.Context) error {
		profile, err := s.payrollRepo.GetProfileForUpdate(txCtx, req.EmployeeID)
		if err != nil {
			return err
		}

		cycle, err := s.loadCycle(txCtx, profile)
		if err != nil {
			return err
		}
		periodEnd := calendar.FormatDate(cycle.Period.End)
		if req.ExpectedPeriodEnd != nil && *req.ExpectedPeriodEnd != periodEnd {
			return fmt.Errorf("%w: next period ends %s", payroll.ErrPeriodMismatch, periodEnd)
		}

		open, err := s.payrollRepo.ListOpenAdvances(txCtx, req.EmployeeID)
		if err != nil {
			return err
		}

		now := s.now()
		sel := SelectAdvances(open, cycle.AvailableBeforeAdvance, now)

		adjustment := req.Adjustment()
		rawNet := cycle.BaseSalary.Sub(cycle.AbsentDeduction).Sub(sel.Total).Add(adjustment)
		if rawNet.IsNegative() {
			slog.Warn("Payroll net pay negative before clamp",
				"employee_id", req.EmployeeID,
				"period_end", periodEnd,
				"net_pay", rawNet.String(),
			)
		}

		slip := payroll.PayrollSlip{
			ID:               s.newID(),
			EmployeeID:       req.EmployeeID,
			PeriodStart:      cycle.Period.Start,
			PeriodEnd:        cycle.Period.End,
			BaseSalary:       cycle.BaseSalary,
			CycleDays:        cycle.CycleDays,
			PerDay:           cycle.PerDay,
			WorkingDaysCount: len(cycle.WorkingDays),
			AbsentDays:       cycle.AbsentDays(),
			AbsentDeduction:  cycle.AbsentDeduction,
			AdvancesApplied:  sel.Applied,
			AdvancesTotal:    sel.Total,
			OtherAdjustment:  adjustment,
			NetPay:           decimal.Max(decimal.Zero, rawNet),
			Status:           payroll.SlipStatusDraft,
			CreatedAt:        now,
		}
		if req.MarkPaid {
			slip.Status = payroll.SlipStatusPaid
			slip.PaidAt = &now
		}

		created, err = s.payrollRepo.CreateSlip(txCtx, slip)
		if err != nil {
			return err
		}

		for _, adv := range sel.Updated {
			if err := s.payrollRepo.UpdateAdvanceBalance(txCtx, adv); err != nil {
				return err
			}
		}

		return s.payrollRepo.AdvanceCursor(txCtx, req.EmployeeID, profile.LastPaidThrough, cycle.Period.End)
	})

	return created, err
}

// DueCommits lists profiles whose next period ended before today.
func (s *PayrollServiceImpl) DueCommits(ctx context.Context) ([]payroll.DueCommit, error) {
	profiles, err := s.payrollRepo.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	today := s.today()
	due := []payroll.DueCommit{}
	for _, p := range profiles {
		if p.CycleDays < 1 {
			continue
		}
		period := PeriodFor(p)
		if period.End.Before(today) {
			due = append(due, payroll.DueCommit{
				EmployeeID:  p.EmployeeID,
				PeriodStart: calendar.FormatDate(period.Start),
				PeriodEnd:   calendar.FormatDate(period.End),
			})
		}
	}
	return due, nil
}

// ========== PROFILES ==========

func (s *PayrollServiceImpl) UpsertProfile(ctx context.Context, req payroll.UpsertProfileRequest) (payroll.ProfileResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.ProfileResponse{}, err
	}

	effectiveFrom, err := calendar.ParseDate(req.EffectiveFrom)
	if err != nil {
		return payroll.ProfileResponse{}, validator.ValidationErrors{{Field: "effective_from", Message: "must be a date in YYYY-MM-DD format"}}
	}

	saved, err := s.payrollRepo.UpsertProfile(ctx, payroll.PayrollProfile{
		EmployeeID:      req.EmployeeID,
		BaseSalary:      req.BaseSalary,
		CycleDays:       req.CycleDays,
		PerDayRounding:  payroll.Rounding(req.PerDayRounding),
		ExcludeWeekdays: req.Weekdays(),
		EffectiveFrom:   effectiveFrom,
	})
	if err != nil {
		return payroll.ProfileResponse{}, err
	}

	slog.Info("Saved payroll profile", "employee_id", saved.EmployeeID)
	return toProfileResponse(saved), nil
}

func (s *PayrollServiceImpl) GetProfile(ctx context.Context, employeeID string) (payroll.ProfileResponse, error) {
	if err := requireID("employee_id", employeeID); err != nil {
		return payroll.ProfileResponse{}, err
	}

	profile, err := s.payrollRepo.GetProfile(ctx, employeeID)
	if err != nil {
		return payroll.ProfileResponse{}, err
	}
	return toProfileResponse(profile), nil
}

// ========== ADVANCES ==========

func (s *PayrollServiceImpl) CreateAdvance(ctx context.Context, req payroll.CreateAdvanceRequest) (payroll.AdvanceResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.AdvanceResponse{}, err
	}

	created, err := s.payrollRepo.CreateAdvance(ctx, payroll.PayrollAdvance{
		ID:              s.newID(),
		EmployeeID:      req.EmployeeID,
		Amount:          req.Amount,
		RemainingAmount: req.Amount,
		Status:          payroll.AdvanceStatusOpen,
		Note:            req.Note,
		CreatedAt:       s.now(),
	})
	if err != nil {
		return payroll.AdvanceResponse{}, err
	}
	return s.toAdvanceResponse(created), nil
}

func (s *PayrollServiceImpl) ListAdvances(ctx context.Context, filter payroll.AdvanceFilter) ([]payroll.AdvanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	advances, err := s.payrollRepo.ListAdvances(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.AdvanceResponse, 0, len(advances))
	for _, a := range advances {
		result = append(result, s.toAdvanceResponse(a))
	}
	return result, nil
}

// SettleAdvance closes an open advance by hand, writing off its balance.
func (s *PayrollServiceImpl) SettleAdvance(ctx context.Context, id string) (payroll.AdvanceResponse, error) {
	return s.updateAdvance(ctx, id, func(a *payroll.PayrollAdvance) error {
		if !a.IsOpen() {
			return payroll.ErrAdvanceAlreadySettled
		}
		now := s.now()
		a.RemainingAmount = decimal.Zero
		a.Status = payroll.AdvanceStatusSettled
		a.SettledAt = &now
		return nil
	})
}

// ReopenAdvance restores a settled advance to its full amount.
func (s *PayrollServiceImpl) ReopenAdvance(ctx context.Context, id string) (payroll.AdvanceResponse, error) {
	return s.updateAdvance(ctx, id, func(a *payroll.PayrollAdvance) error {
		if a.IsOpen() {
			return payroll.ErrAdvanceAlreadyOpen
		}
		a.RemainingAmount = a.Amount
		a.Status = payroll.AdvanceStatusOpen
		a.SettledAt = nil
		return nil
	})
}

func (s *PayrollServiceImpl) updateAdvance(ctx context.Context, id string, mutate func(a *payroll.PayrollAdvance) error) (payroll.AdvanceResponse, error) {
	if err := requireID("id", id); err != nil {
		return payroll.AdvanceResponse{}, err
	}

	var updated payroll.PayrollAdvance
	_, err := s.retry(ctx, func() error {
		return s.transactor.RunSerializable(ctx, func(txCtx context.Context) error {
			adv, err := s.payrollRepo.GetAdvanceByID(txCtx, id)
			if err != nil {
				return err
			}
			if err := mutate(&adv); err != nil {
				return err
			}
			if err := s.payrollRepo.UpdateAdvanceBalance(txCtx, adv); err != nil {
				return err
			}
			updated = adv
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, database.ErrSerializationConflict) {
			return payroll.AdvanceResponse{}, payroll.ErrConcurrentUpdate
		}
		return payroll.AdvanceResponse{}, err
	}

	slog.Info("Updated payroll advance", "advance_id", updated.ID, "status", string(updated.Status))
	return s.toAdvanceResponse(updated), nil
}

// ========== SLIPS ==========

func (s *PayrollServiceImpl) GetSlip(ctx context.Context, id string) (payroll.SlipResponse, error) {
	if err := requireID("id", id); err != nil {
		return payroll.SlipResponse{}, err
	}

	slip, err := s.payrollRepo.GetSlipByID(ctx, id)
	if err != nil {
		return payroll.SlipResponse{}, err
	}
	return s.toSlipResponse(slip), nil
}

func (s *PayrollServiceImpl) ListSlips(ctx context.Context, filter payroll.SlipFilter) (payroll.ListSlipResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListSlipResponse{}, err
	}

	slips, total, err := s.payrollRepo.ListSlips(ctx, filter)
	if err != nil {
		return payroll.ListSlipResponse{}, err
	}

	data := make([]payroll.SlipResponse, 0, len(slips))
	for _, slip := range slips {
		data = append(data, s.toSlipResponse(slip))
	}
	return payroll.ListSlipResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *PayrollServiceImpl) MarkSlipPaid(ctx context.Context, id string) (payroll.SlipResponse, error) {
	if err := requireID("id", id); err != nil {
		return payroll.SlipResponse{}, err
	}

	slip, err := s.payrollRepo.MarkSlipPaid(ctx, id, s.now())
	if err != nil {
		return payroll.SlipResponse{}, err
	}

	slog.Info("Marked payroll slip paid", "slip_id", slip.ID, "employee_id", slip.EmployeeID)
	return s.toSlipResponse(slip), nil
}

// ========== HELPERS ==========

func (s *PayrollServiceImpl) formatTime(t time.Time) string {
	return t.In(s.cfg.Zone.Location()).Format(time.RFC3339)
}

func (s *PayrollServiceImpl) formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := s.formatTime(*t)
	return &formatted
}

func toProfileResponse(p payroll.PayrollProfile) payroll.ProfileResponse {
	var lastPaid *string
	if p.LastPaidThrough != nil {
		formatted := calendar.FormatDate(*p.LastPaidThrough)
		lastPaid = &formatted
	}
	weekdays := p.ExcludeWeekdays
	if weekdays == nil {
		weekdays = []int{}
	}
	next := PeriodFor(p)
	return payroll.ProfileResponse{
		EmployeeID:      p.EmployeeID,
		BaseSalary:      p.BaseSalary,
		CycleDays:       p.CycleDays,
		PerDayRounding:  string(p.PerDayRounding),
		ExcludeWeekdays: weekdays,
		EffectiveFrom:   calendar.FormatDate(p.EffectiveFrom),
		LastPaidThrough: lastPaid,
		NextPeriodStart: calendar.FormatDate(next.Start),
		NextPeriodEnd:   calendar.FormatDate(next.End),
	}
}

func (s *PayrollServiceImpl) toAdvanceResponse(a payroll.PayrollAdvance) payroll.AdvanceResponse {
	return payroll.AdvanceResponse{
		ID:              a.ID,
		EmployeeID:      a.EmployeeID,
		Amount:          a.Amount,
		RemainingAmount: a.RemainingAmount,
		Status:          string(a.Status),
		Note:            a.Note,
		CreatedAt:       s.formatTime(a.CreatedAt),
		SettledAt:       s.formatTimePtr(a.SettledAt),
	}
}

func (s *PayrollServiceImpl) toSlipResponse(slip payroll.PayrollSlip) payroll.SlipResponse {
	applied := slip.AdvancesApplied
	if applied == nil {
		applied = []payroll.AppliedAdvance{}
	}
	return payroll.SlipResponse{
		ID:               slip.ID,
		EmployeeID:       slip.EmployeeID,
		PeriodStart:      calendar.FormatDate(slip.PeriodStart),
		PeriodEnd:        calendar.FormatDate(slip.PeriodEnd),
		BaseSalary:       slip.BaseSalary,
		CycleDays:        slip.CycleDays,
		PerDay:           slip.PerDay,
		WorkingDaysCount: slip.WorkingDaysCount,
		AbsentDays:       slip.AbsentDays,
		AbsentDeduction:  slip.AbsentDeduction,
		AdvancesApplied:  applied,
		AdvancesTotal:    slip.AdvancesTotal,
		OtherAdjustment:  slip.OtherAdjustment,
		NetPay:           slip.NetPay,
		Status:           string(slip.Status),
		PaidAt:           s.formatTimePtr(slip.PaidAt),
		CreatedAt:        s.formatTime(slip.CreatedAt),
	}
}
