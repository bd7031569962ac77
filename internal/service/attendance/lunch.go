package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/calendar"
)

// PairLunches pairs lunch-start/lunch-end events per calendar day. A start
// opens a lunch and the next same-day end closes it. A trailing start is in
// progress and a leading end without a start is an orphan; neither adds time.
func PairLunches(events []attendance.LunchEvent, zone calendar.Zone) []attendance.LunchDay {
	if len(events) == 0 {
		return []attendance.LunchDay{}
	}

	sorted := make([]attendance.LunchEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	days := make(map[string]*attendance.LunchDay)
	open := make(map[string]time.Time)
	var keys []string

	for _, ev := range sorted {
		key := zone.Key(ev.Timestamp)
		day, ok := days[key]
		if !ok {
			day = &attendance.LunchDay{
				EmployeeID: ev.EmployeeID,
				DayKey:     key,
				Date:       zone.Date(ev.Timestamp),
			}
			days[key] = day
			keys = append(keys, key)
		}

		switch ev.Type {
		case attendance.LunchStart:
			day.StartCount++
			if _, isOpen := open[key]; !isOpen {
				open[key] = ev.Timestamp
			}
		case attendance.LunchEnd:
			day.EndCount++
			start, isOpen := open[key]
			if !isOpen {
				day.OrphanEndCount++
				continue
			}
			day.LunchMs += ev.Timestamp.Sub(start).Milliseconds()
			day.PairsCount++
			delete(open, key)
		}
	}

	sort.Strings(keys)
	out := make([]attendance.LunchDay, 0, len(keys))
	for _, key := range keys {
		day := days[key]
		_, day.InProgress = open[key]
		out = append(out, *day)
	}
	return out
}

// ApplyLunch returns a copy of days with LunchMs and NetMs filled in. Lunch
// is subtracted only on valid days; on invalid days gross time is unknown so
// lunch is ignored as well.
func ApplyLunch(days []attendance.DayAggregate, lunches []attendance.LunchDay) []attendance.DayAggregate {
	byKey := make(map[string]int64, len(lunches))
	for _, l := range lunches {
		byKey[l.DayKey] += l.LunchMs
	}

	out := make([]attendance.DayAggregate, len(days))
	copy(out, days)
	for i := range out {
		if !out[i].IsValid() {
			out[i].LunchMs = 0
			out[i].NetMs = 0
			continue
		}
		lunch := byKey[out[i].DayKey]
		out[i].LunchMs = lunch
		net := out[i].GrossMs - lunch
		if net < 0 {
			net = 0
		}
		out[i].NetMs = net
	}
	return out
}
