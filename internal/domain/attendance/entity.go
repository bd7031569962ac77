package attendance

import (
	"time"
)

type EventType string

const (
	EventCheckIn  EventType = "checkin"
	EventCheckOut EventType = "checkout"
)

type LunchEventType string

const (
	LunchStart LunchEventType = "lunch-start"
	LunchEnd   LunchEventType = "lunch-end"
)

// AttendanceEvent is produced by the check-in capture subsystem and never
// modified here.
type AttendanceEvent struct {
	ID         string
	EmployeeID string
	Type       EventType
	Timestamp  time.Time
}

type LunchEvent struct {
	ID         string
	EmployeeID string
	Type       LunchEventType
	Timestamp  time.Time
}

type DayStatus string

const (
	DayValid   DayStatus = "valid"
	DayInvalid DayStatus = "invalid"
)

type Reason string

const (
	ReasonMissingCheckIn        Reason = "missing_checkin"
	ReasonMissingCheckOut       Reason = "missing_checkout"
	ReasonCheckoutBeforeCheckIn Reason = "checkout_before_checkin"
)

// DayAggregate is the derived presence summary of one employee on one
// calendar day. It is recomputed from raw events on every request and never
// persisted.
type DayAggregate struct {
	EmployeeID          string
	DayKey              string
	Date                time.Time
	FirstIn             *time.Time
	LastOut             *time.Time
	CheckInCount        int
	CheckOutCount       int
	PairsCount          int
	PairedMs            int64
	OrphanCheckoutCount int
	HasOpenCheckin      bool
	Status              DayStatus
	Reasons             []Reason

	// GrossMs is lastOut - firstIn on valid days, zero otherwise.
	GrossMs int64
	// PreviewGrossMs uses the request time as a provisional end for a day
	// with an open check-in. Display only; payroll never reads it.
	PreviewGrossMs *int64

	// LunchMs and NetMs are filled by ApplyLunch.
	LunchMs int64
	NetMs   int64
}

func (d DayAggregate) IsValid() bool {
	return d.Status == DayValid
}

// HasEvents reports whether any check-in or checkout was recorded that day.
func (d DayAggregate) HasEvents() bool {
	return d.CheckInCount+d.CheckOutCount > 0
}

// LunchDay is the per-day lunch pairing result.
type LunchDay struct {
	EmployeeID     string
	DayKey         string
	Date           time.Time
	StartCount     int
	EndCount       int
	PairsCount     int
	OrphanEndCount int
	InProgress     bool
	LunchMs        int64
}

type DayTotals struct {
	Days        int
	ValidDays   int
	InvalidDays int
	GrossMs     int64
	LunchMs     int64
	NetMs       int64
}
