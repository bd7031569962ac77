package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/calendar"
)

// AggregateOptions tunes display-only output of AggregateDays.
type AggregateOptions struct {
	// Now enables PreviewGrossMs on days that end with an open check-in.
	Now *time.Time
}

type dayState struct {
	agg    attendance.DayAggregate
	openIn *time.Time
}

// AggregateDays buckets an employee's check-in/checkout events into calendar
// days of zone and derives one DayAggregate per day that has events.
// The input slice is not modified and the result is ordered by day.
func AggregateDays(events []attendance.AttendanceEvent, zone calendar.Zone, opts AggregateOptions) []attendance.DayAggregate {
	if len(events) == 0 {
		return []attendance.DayAggregate{}
	}

	sorted := make([]attendance.AttendanceEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	days := make(map[string]*dayState)
	var keys []string

	for _, ev := range sorted {
		key := zone.Key(ev.Timestamp)
		st, ok := days[key]
		if !ok {
			st = &dayState{agg: attendance.DayAggregate{
				EmployeeID: ev.EmployeeID,
				DayKey:     key,
				Date:       zone.Date(ev.Timestamp),
			}}
			days[key] = st
			keys = append(keys, key)
		}

		ts := ev.Timestamp.UTC()
		switch ev.Type {
		case attendance.EventCheckIn:
			st.agg.CheckInCount++
			if st.agg.FirstIn == nil || ts.Before(*st.agg.FirstIn) {
				st.agg.FirstIn = &ts
			}
			if st.openIn == nil {
				st.openIn = &ts
			}
		case attendance.EventCheckOut:
			st.agg.CheckOutCount++
			if st.agg.LastOut == nil || ts.After(*st.agg.LastOut) {
				st.agg.LastOut = &ts
			}
			if st.openIn != nil {
				st.agg.PairedMs += ts.Sub(*st.openIn).Milliseconds()
				st.agg.PairsCount++
				st.openIn = nil
			} else {
				st.agg.OrphanCheckoutCount++
			}
		}
	}

	sort.Strings(keys)
	out := make([]attendance.DayAggregate, 0, len(keys))
	for _, key := range keys {
		st := days[key]
		st.agg.HasOpenCheckin = st.openIn != nil
		finalizeDay(&st.agg, opts)
		out = append(out, st.agg)
	}
	return out
}

func finalizeDay(d *attendance.DayAggregate, opts AggregateOptions) {
	d.Reasons = []attendance.Reason{}
	if d.FirstIn == nil {
		d.Reasons = append(d.Reasons, attendance.ReasonMissingCheckIn)
	}
	if d.LastOut == nil {
		d.Reasons = append(d.Reasons, attendance.ReasonMissingCheckOut)
	}
	if d.FirstIn != nil && d.LastOut != nil && !d.LastOut.After(*d.FirstIn) {
		d.Reasons = append(d.Reasons, attendance.ReasonCheckoutBeforeCheckIn)
	}

	if len(d.Reasons) == 0 {
		d.Status = attendance.DayValid
		d.GrossMs = d.LastOut.Sub(*d.FirstIn).Milliseconds()
	} else {
		d.Status = attendance.DayInvalid
		d.GrossMs = 0
	}
	d.NetMs = d.GrossMs

	if d.HasOpenCheckin && opts.Now != nil && d.FirstIn != nil && opts.Now.After(*d.FirstIn) {
		provisional := opts.Now.Sub(*d.FirstIn).Milliseconds()
		d.PreviewGrossMs = &provisional
	}
}

// PresentDays returns the day keys on which at least one attendance event
// was recorded, regardless of validity.
func PresentDays(days []attendance.DayAggregate) map[string]bool {
	present := make(map[string]bool, len(days))
	for _, d := range days {
		if d.HasEvents() {
			present[d.DayKey] = true
		}
	}
	return present
}

// Summarize totals a set of day aggregates. Lunch only counts where
// ApplyLunch attributed it, i.e. on valid days.
func Summarize(days []attendance.DayAggregate) attendance.DayTotals {
	var t attendance.DayTotals
	for _, d := range days {
		t.Days++
		if d.IsValid() {
			t.ValidDays++
		} else {
			t.InvalidDays++
		}
		t.GrossMs += d.GrossMs
		t.LunchMs += d.LunchMs
		t.NetMs += d.NetMs
	}
	return t
}
