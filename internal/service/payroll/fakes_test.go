package payroll

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/database"
)

// memStore is an in-memory payroll.PayrollRepository. Every method holds mu,
// so the fake transactor can snapshot and restore it around a transaction.
type memStore struct {
	mu       sync.Mutex
	profiles map[string]payroll.PayrollProfile
	advances map[string]payroll.PayrollAdvance
	slips    map[string]payroll.PayrollSlip

	failAdvanceUpdate error
}

func newMemStore() *memStore {
	return &memStore{
		profiles: map[string]payroll.PayrollProfile{},
		advances: map[string]payroll.PayrollAdvance{},
		slips:    map[string]payroll.PayrollSlip{},
	}
}

type memSnapshot struct {
	profiles map[string]payroll.PayrollProfile
	advances map[string]payroll.PayrollAdvance
	slips    map[string]payroll.PayrollSlip
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := memSnapshot{
		profiles: make(map[string]payroll.PayrollProfile, len(m.profiles)),
		advances: make(map[string]payroll.PayrollAdvance, len(m.advances)),
		slips:    make(map[string]payroll.PayrollSlip, len(m.slips)),
	}
	for k, v := range m.profiles {
		snap.profiles[k] = v
	}
	for k, v := range m.advances {
		snap.advances[k] = v
	}
	for k, v := range m.slips {
		snap.slips[k] = v
	}
	return snap
}

func (m *memStore) restore(snap memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = snap.profiles
	m.advances = snap.advances
	m.slips = snap.slips
}

func (m *memStore) GetProfile(ctx context.Context, employeeID string) (payroll.PayrollProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[employeeID]
	if !ok {
		return payroll.PayrollProfile{}, payroll.ErrProfileNotFound
	}
	return p, nil
}

func (m *memStore) GetProfileForUpdate(ctx context.Context, employeeID string) (payroll.PayrollProfile, error) {
	return m.GetProfile(ctx, employeeID)
}

func (m *memStore) UpsertProfile(ctx context.Context, profile payroll.PayrollProfile) (payroll.PayrollProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.profiles[profile.EmployeeID]; ok {
		profile.LastPaidThrough = existing.LastPaidThrough
		profile.CreatedAt = existing.CreatedAt
	}
	m.profiles[profile.EmployeeID] = profile
	return profile, nil
}

func (m *memStore) ListProfiles(ctx context.Context) ([]payroll.PayrollProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]payroll.PayrollProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func (m *memStore) AdvanceCursor(ctx context.Context, employeeID string, prev *time.Time, next time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[employeeID]
	if !ok || !sameDate(p.LastPaidThrough, prev) {
		return database.ErrSerializationConflict
	}
	p.LastPaidThrough = &next
	m.profiles[employeeID] = p
	return nil
}

func (m *memStore) CreateAdvance(ctx context.Context, advance payroll.PayrollAdvance) (payroll.PayrollAdvance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advances[advance.ID] = advance
	return advance, nil
}

func (m *memStore) GetAdvanceByID(ctx context.Context, id string) (payroll.PayrollAdvance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.advances[id]
	if !ok {
		return payroll.PayrollAdvance{}, payroll.ErrAdvanceNotFound
	}
	return a, nil
}

func (m *memStore) ListOpenAdvances(ctx context.Context, employeeID string) ([]payroll.PayrollAdvance, error) {
	status := string(payroll.AdvanceStatusOpen)
	return m.ListAdvances(ctx, payroll.AdvanceFilter{EmployeeID: employeeID, Status: &status})
}

func (m *memStore) ListAdvances(ctx context.Context, filter payroll.AdvanceFilter) ([]payroll.PayrollAdvance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []payroll.PayrollAdvance
	for _, a := range m.advances {
		if a.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(a.Status) != *filter.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) UpdateAdvanceBalance(ctx context.Context, advance payroll.PayrollAdvance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAdvanceUpdate != nil {
		return m.failAdvanceUpdate
	}
	if _, ok := m.advances[advance.ID]; !ok {
		return payroll.ErrAdvanceNotFound
	}
	m.advances[advance.ID] = advance
	return nil
}

func (m *memStore) CreateSlip(ctx context.Context, slip payroll.PayrollSlip) (payroll.PayrollSlip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.slips {
		if existing.EmployeeID == slip.EmployeeID && existing.PeriodEnd.Equal(slip.PeriodEnd) {
			return payroll.PayrollSlip{}, database.ErrSerializationConflict
		}
	}
	m.slips[slip.ID] = slip
	return slip, nil
}

func (m *memStore) GetSlipByID(ctx context.Context, id string) (payroll.PayrollSlip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slips[id]
	if !ok {
		return payroll.PayrollSlip{}, payroll.ErrSlipNotFound
	}
	return s, nil
}

func (m *memStore) ListSlips(ctx context.Context, filter payroll.SlipFilter) ([]payroll.PayrollSlip, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []payroll.PayrollSlip
	for _, s := range m.slips {
		if s.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(s.Status) != *filter.Status {
			continue
		}
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].PeriodEnd.Equal(all[j].PeriodEnd) {
			return all[i].PeriodEnd.After(all[j].PeriodEnd)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := int64(len(all))
	start := filter.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (m *memStore) MarkSlipPaid(ctx context.Context, id string, paidAt time.Time) (payroll.PayrollSlip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slips[id]
	if !ok {
		return payroll.PayrollSlip{}, payroll.ErrSlipNotFound
	}
	if s.Status == payroll.SlipStatusPaid {
		return payroll.PayrollSlip{}, payroll.ErrSlipAlreadyPaid
	}
	s.Status = payroll.SlipStatusPaid
	s.PaidAt = &paidAt
	m.slips[id] = s
	return s, nil
}

// fakeTransactor runs transactions one at a time and rolls the store back
// when fn fails. conflicts makes the next N transactions fail up front.
type fakeTransactor struct {
	store *memStore
	txMu  sync.Mutex

	mu        sync.Mutex
	conflicts int
	runs      int
}

func (f *fakeTransactor) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	f.runs++
	if f.conflicts > 0 {
		f.conflicts--
		f.mu.Unlock()
		return database.ErrSerializationConflict
	}
	f.mu.Unlock()

	snap := f.store.snapshot()
	if err := fn(ctx); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

type fakeAttendanceRepo struct {
	events   []attendance.AttendanceEvent
	lunchErr error
}

func (f *fakeAttendanceRepo) ListEvents(ctx context.Context, employeeID string, start, end time.Time) ([]attendance.AttendanceEvent, error) {
	var out []attendance.AttendanceEvent
	for _, e := range f.events {
		if e.EmployeeID == employeeID && !e.Timestamp.Before(start) && e.Timestamp.Before(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) ListLunchEvents(ctx context.Context, employeeID string, start, end time.Time) ([]attendance.LunchEvent, error) {
	return nil, f.lunchErr
}
