package calendar

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the day-key format used across the payroll engine.
const DateLayout = "2006-01-02"

const maxOffset = 14 * time.Hour

var ErrInvalidOffset = errors.New("utc offset must be within ±14h and a whole number of minutes")

// Zone maps instants onto calendar days using a fixed UTC offset.
// DST is never applied and the host's local timezone is never consulted.
// The zero value is UTC.
type Zone struct {
	offset time.Duration
}

// NewZone returns a Zone for the given offset east of UTC.
func NewZone(offset time.Duration) (Zone, error) {
	if offset < -maxOffset || offset > maxOffset || offset%time.Minute != 0 {
		return Zone{}, ErrInvalidOffset
	}
	return Zone{offset: offset}, nil
}

// MustZone is NewZone for package-level defaults and tests.
func MustZone(offset time.Duration) Zone {
	z, err := NewZone(offset)
	if err != nil {
		panic(err)
	}
	return z
}

func (z Zone) Offset() time.Duration {
	return z.offset
}

// Name renders the offset as UTC+07:00.
func (z Zone) Name() string {
	sign := "+"
	off := z.offset
	if off < 0 {
		sign = "-"
		off = -off
	}
	h := int(off / time.Hour)
	m := int((off % time.Hour) / time.Minute)
	return fmt.Sprintf("UTC%s%02d:%02d", sign, h, m)
}

// Location returns a fixed *time.Location for display formatting.
func (z Zone) Location() *time.Location {
	return time.FixedZone(z.Name(), int(z.offset/time.Second))
}

// Date returns the calendar day containing ts, as midnight UTC of that day.
func (z Zone) Date(ts time.Time) time.Time {
	local := ts.UTC().Add(z.offset)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Key returns the YYYY-MM-DD day key for ts.
func (z Zone) Key(ts time.Time) string {
	return z.Date(ts).Format(DateLayout)
}

// StartOf returns the UTC instant at which the given calendar day begins.
func (z Zone) StartOf(date time.Time) time.Time {
	return Truncate(date).Add(-z.offset)
}

// Window returns the half-open UTC interval [start, end) covering the
// calendar days from..to inclusive.
func (z Zone) Window(from, to time.Time) (start, end time.Time) {
	return z.StartOf(from), z.StartOf(AddDays(to, 1))
}

// Truncate normalises a date value to midnight UTC, keeping its Y-M-D.
func Truncate(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return d, nil
}

func FormatDate(d time.Time) string {
	return Truncate(d).Format(DateLayout)
}

func AddDays(d time.Time, n int) time.Time {
	return Truncate(d).AddDate(0, 0, n)
}

// DaysBetween returns the number of whole days from `from` to `to`.
func DaysBetween(from, to time.Time) int {
	return int(Truncate(to).Sub(Truncate(from)) / (24 * time.Hour))
}

// Weekday returns 0 (Sunday) through 6 (Saturday).
func Weekday(d time.Time) int {
	return int(Truncate(d).Weekday())
}

// Days lists every calendar day from..to inclusive. An inverted range yields nil.
func Days(from, to time.Time) []time.Time {
	n := DaysBetween(from, to)
	if n < 0 {
		return nil
	}
	out := make([]time.Time, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, AddDays(from, i))
	}
	return out
}
