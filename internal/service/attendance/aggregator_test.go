package attendance

import (
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wib = calendar.MustZone(7 * time.Hour)

// at builds an instant from a wall-clock time in +07:00.
func at(day string, clock string) time.Time {
	t, err := time.Parse("2006-01-02 15:04 -0700", day+" "+clock+" +0700")
	if err != nil {
		panic(err)
	}
	return t
}

func checkIn(day, clock string) attendance.AttendanceEvent {
	return attendance.AttendanceEvent{EmployeeID: "emp-1", Type: attendance.EventCheckIn, Timestamp: at(day, clock)}
}

func checkOut(day, clock string) attendance.AttendanceEvent {
	return attendance.AttendanceEvent{EmployeeID: "emp-1", Type: attendance.EventCheckOut, Timestamp: at(day, clock)}
}

func TestAggregateDays_SplitShiftUsesBoundingSpan(t *testing.T) {
	events := []attendance.AttendanceEvent{
		checkIn("2024-03-04", "09:00"),
		checkOut("2024-03-04", "12:00"),
		checkIn("2024-03-04", "13:00"),
		checkOut("2024-03-04", "18:00"),
	}

	days := AggregateDays(events, wib, AggregateOptions{})
	require.Len(t, days, 1)
	d := days[0]

	assert.Equal(t, "2024-03-04", d.DayKey)
	assert.Equal(t, attendance.DayValid, d.Status)
	assert.Empty(t, d.Reasons)
	assert.True(t, d.FirstIn.Equal(at("2024-03-04", "09:00")))
	assert.True(t, d.LastOut.Equal(at("2024-03-04", "18:00")))
	assert.Equal(t, (9 * time.Hour).Milliseconds(), d.GrossMs)
	assert.Equal(t, (8 * time.Hour).Milliseconds(), d.PairedMs)
	assert.Equal(t, 2, d.PairsCount)
	assert.Equal(t, 0, d.OrphanCheckoutCount)
	assert.False(t, d.HasOpenCheckin)
}

func TestAggregateDays_Reasons(t *testing.T) {
	tests := []struct {
		name    string
		events  []attendance.AttendanceEvent
		reasons []attendance.Reason
	}{
		{
			name:    "only checkin",
			events:  []attendance.AttendanceEvent{checkIn("2024-03-04", "09:00")},
			reasons: []attendance.Reason{attendance.ReasonMissingCheckOut},
		},
		{
			name:    "only checkout",
			events:  []attendance.AttendanceEvent{checkOut("2024-03-04", "17:00")},
			reasons: []attendance.Reason{attendance.ReasonMissingCheckIn},
		},
		{
			name: "checkout before checkin",
			events: []attendance.AttendanceEvent{
				checkOut("2024-03-04", "08:00"),
				checkIn("2024-03-04", "09:00"),
			},
			reasons: []attendance.Reason{attendance.ReasonCheckoutBeforeCheckIn},
		},
		{
			name: "checkout equal to checkin",
			events: []attendance.AttendanceEvent{
				checkIn("2024-03-04", "09:00"),
				checkOut("2024-03-04", "09:00"),
			},
			reasons: []attendance.Reason{attendance.ReasonCheckoutBeforeCheckIn},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := AggregateDays(tt.events, wib, AggregateOptions{})
			require.Len(t, days, 1)
			assert.Equal(t, attendance.DayInvalid, days[0].Status)
			assert.Equal(t, tt.reasons, days[0].Reasons)
			assert.Zero(t, days[0].GrossMs)
		})
	}
}

func TestAggregateDays_OrphanAndOpenCheckin(t *testing.T) {
	events := []attendance.AttendanceEvent{
		checkOut("2024-03-04", "07:00"),
		checkIn("2024-03-04", "08:00"),
		checkIn("2024-03-04", "08:30"),
		checkOut("2024-03-04", "12:00"),
		checkIn("2024-03-04", "13:00"),
	}

	days := AggregateDays(events, wib, AggregateOptions{})
	require.Len(t, days, 1)
	d := days[0]

	assert.Equal(t, 3, d.CheckInCount)
	assert.Equal(t, 2, d.CheckOutCount)
	assert.Equal(t, 1, d.OrphanCheckoutCount)
	assert.Equal(t, 1, d.PairsCount)
	// The pair opens at the first check-in; a second check-in does not move it.
	assert.Equal(t, (4 * time.Hour).Milliseconds(), d.PairedMs)
	assert.True(t, d.HasOpenCheckin)
	assert.Equal(t, attendance.DayValid, d.Status)
	assert.Equal(t, (4 * time.Hour).Milliseconds(), d.GrossMs)
}

func TestAggregateDays_PreviewGrossIsDisplayOnly(t *testing.T) {
	now := at("2024-03-04", "15:00")
	events := []attendance.AttendanceEvent{checkIn("2024-03-04", "09:00")}

	days := AggregateDays(events, wib, AggregateOptions{Now: &now})
	require.Len(t, days, 1)
	d := days[0]

	require.NotNil(t, d.PreviewGrossMs)
	assert.Equal(t, (6 * time.Hour).Milliseconds(), *d.PreviewGrossMs)
	assert.Zero(t, d.GrossMs)
	assert.Equal(t, attendance.DayInvalid, d.Status)

	withoutNow := AggregateDays(events, wib, AggregateOptions{})
	assert.Nil(t, withoutNow[0].PreviewGrossMs)
}

func TestAggregateDays_FixedOffsetBucketing(t *testing.T) {
	// 23:30 and 00:30 local fall on different +07:00 days even though both
	// are on the same UTC day.
	events := []attendance.AttendanceEvent{
		checkIn("2024-03-04", "23:30"),
		checkOut("2024-03-05", "00:30"),
	}

	days := AggregateDays(events, wib, AggregateOptions{})
	require.Len(t, days, 2)
	assert.Equal(t, "2024-03-04", days[0].DayKey)
	assert.Equal(t, []attendance.Reason{attendance.ReasonMissingCheckOut}, days[0].Reasons)
	assert.Equal(t, "2024-03-05", days[1].DayKey)
	assert.Equal(t, []attendance.Reason{attendance.ReasonMissingCheckIn}, days[1].Reasons)
	assert.Equal(t, 1, days[1].OrphanCheckoutCount)

	utcDays := AggregateDays(events, calendar.Zone{}, AggregateOptions{})
	require.Len(t, utcDays, 1)
	assert.Equal(t, "2024-03-04", utcDays[0].DayKey)
	assert.Equal(t, attendance.DayValid, utcDays[0].Status)
}

func TestAggregateDays_UnorderedInputIsNotMutated(t *testing.T) {
	events := []attendance.AttendanceEvent{
		checkOut("2024-03-04", "18:00"),
		checkIn("2024-03-04", "09:00"),
	}
	original := make([]attendance.AttendanceEvent, len(events))
	copy(original, events)

	days := AggregateDays(events, wib, AggregateOptions{})

	assert.Equal(t, original, events)
	require.Len(t, days, 1)
	assert.Equal(t, attendance.DayValid, days[0].Status)
	assert.Equal(t, (9 * time.Hour).Milliseconds(), days[0].GrossMs)
}

func TestAggregateDays_Idempotent(t *testing.T) {
	events := []attendance.AttendanceEvent{
		checkIn("2024-03-04", "09:00"),
		checkOut("2024-03-04", "17:00"),
		checkIn("2024-03-05", "09:10"),
		checkOut("2024-03-06", "07:00"),
	}

	first := AggregateDays(events, wib, AggregateOptions{})

	var wg sync.WaitGroup
	results := make([][]attendance.DayAggregate, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = AggregateDays(events, wib, AggregateOptions{})
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, first, r)
	}
}

func TestAggregateDays_Empty(t *testing.T) {
	days := AggregateDays(nil, wib, AggregateOptions{})
	assert.NotNil(t, days)
	assert.Empty(t, days)
}

func TestPresentDaysAndSummarize(t *testing.T) {
	events := []attendance.AttendanceEvent{
		checkIn("2024-03-04", "09:00"),
		checkOut("2024-03-04", "17:00"),
		checkIn("2024-03-05", "09:00"),
	}
	days := AggregateDays(events, wib, AggregateOptions{})

	present := PresentDays(days)
	assert.Equal(t, map[string]bool{"2024-03-04": true, "2024-03-05": true}, present)

	totals := Summarize(days)
	assert.Equal(t, 2, totals.Days)
	assert.Equal(t, 1, totals.ValidDays)
	assert.Equal(t, 1, totals.InvalidDays)
	assert.Equal(t, (8 * time.Hour).Milliseconds(), totals.GrossMs)
	assert.Equal(t, (8 * time.Hour).Milliseconds(), totals.NetMs)
}
