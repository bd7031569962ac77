package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewZone(t *testing.T) {
	cases := []struct {
		offset  time.Duration
		wantErr bool
	}{
		{0, false},
		{7 * time.Hour, false},
		{-5*time.Hour - 30*time.Minute, false},
		{14 * time.Hour, false},
		{15 * time.Hour, true},
		{-15 * time.Hour, true},
		{7*time.Hour + 30*time.Second, true},
	}
	for _, c := range cases {
		_, err := NewZone(c.offset)
		if c.wantErr {
			assert.ErrorIs(t, err, ErrInvalidOffset, "offset %s", c.offset)
		} else {
			assert.NoError(t, err, "offset %s", c.offset)
		}
	}
}

func TestZone_Key(t *testing.T) {
	wib := MustZone(7 * time.Hour)
	ts := time.Date(2024, 3, 4, 18, 30, 0, 0, time.UTC) // 01:30 next day in +07:00

	assert.Equal(t, "2024-03-05", wib.Key(ts))
	assert.Equal(t, "2024-03-04", Zone{}.Key(ts))

	// Same instant expressed in another location buckets identically.
	ny := time.FixedZone("EST", -5*3600)
	assert.Equal(t, "2024-03-05", wib.Key(ts.In(ny)))
}

func TestZone_Window(t *testing.T) {
	wib := MustZone(7 * time.Hour)
	from, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	to, err := ParseDate("2024-03-02")
	require.NoError(t, err)

	start, end := wib.Window(from, to)
	assert.Equal(t, time.Date(2024, 2, 29, 17, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 2, 17, 0, 0, 0, time.UTC), end)
}

func TestZone_Name(t *testing.T) {
	assert.Equal(t, "UTC+07:00", MustZone(7*time.Hour).Name())
	assert.Equal(t, "UTC-03:30", MustZone(-3*time.Hour-30*time.Minute).Name())
	assert.Equal(t, "UTC+00:00", Zone{}.Name())
}

func TestDays(t *testing.T) {
	from, _ := ParseDate("2024-02-27")
	to, _ := ParseDate("2024-03-02")

	days := Days(from, to)
	require.Len(t, days, 5)
	assert.Equal(t, "2024-02-29", FormatDate(days[2]))
	assert.Equal(t, "2024-03-02", FormatDate(days[4]))

	assert.Nil(t, Days(to, from))
	assert.Equal(t, 4, DaysBetween(from, to))
}

func TestWeekday(t *testing.T) {
	sat, _ := ParseDate("2024-03-02")
	assert.Equal(t, 6, Weekday(sat))
	assert.Equal(t, 0, Weekday(AddDays(sat, 1)))
}
