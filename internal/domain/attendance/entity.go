package attendance

import (
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/location"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an employee's working day.
// StatusNotClockedIn is derived from the absence of an entry and is never persisted.
type Status string

const (
	StatusNotClockedIn Status = "not_clocked_in"
	StatusWorking      Status = "working"
	StatusClockedOut   Status = "clocked_out"
)

type PunchType string

const (
	PunchTypeNormal      PunchType = "normal"
	PunchTypeRemoteWork  PunchType = "remote_work"
	PunchTypeOutOfHours  PunchType = "out_of_hours"
	PunchTypeWeekendWork PunchType = "weekend_work"
)

type Punch string

const (
	PunchClockIn  Punch = "clock_in"
	PunchClockOut Punch = "clock_out"
)

type Trigger string

const (
	TriggerAutomatic      Trigger = "automatic"
	TriggerManualClockIn  Trigger = "manual_clock_in"
	TriggerManualClockOut Trigger = "manual_clock_out"
)

func (t Trigger) IsManual() bool {
	return t == TriggerManualClockIn || t == TriggerManualClockOut
}

// StandardWorkdayHours is the threshold above which weekday hours count as overtime.
var StandardWorkdayHours = decimal.NewFromInt(8)

// Entry is one employee's attendance for one working day. Date is the
// schedule-local calendar day of the clock-in (YYYY-MM-DD).
type Entry struct {
	ID            string
	EmployeeID    string
	Date          string
	ClockIn       *time.Time
	ClockOut      *time.Time
	TotalHours    decimal.Decimal
	OvertimeHours decimal.Decimal
	LocationIn    *location.Location
	LocationOut   *location.Location
	LastLocation  *location.Location
	LastSeenAt    *time.Time
	IsInGeofence  bool
	IsAutomatic   bool
	IsWeekend     bool
	NeedsApproval bool
	PunchType     PunchType
	ZoneID        string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PolicyInput is the context a punch is classified in.
type PolicyInput struct {
	InGeofence     bool
	WithinSchedule bool
	IsWeekend      bool
}

type Classification struct {
	Type          PunchType
	NeedsApproval bool
}

// Observation is everything the state machine needs to decide one transition.
// Location is nil when acquisition failed; LocationErr then carries the cause.
type Observation struct {
	EmployeeID      string
	Date            string
	At              time.Time
	Location        *location.Location
	InGeofence      bool
	WithinSchedule  bool
	IsWeekend       bool
	NearestDistance float64
	ZoneID          string
	LocationErr     error
	// ContinuesShift is set in the after-midnight part of the previous day's
	// overnight window, when that day's open entry is still the live one.
	ContinuesShift bool
}

func (o Observation) Policy() PolicyInput {
	return PolicyInput{
		InGeofence:     o.InGeofence,
		WithinSchedule: o.WithinSchedule,
		IsWeekend:      o.IsWeekend,
	}
}

// Transition describes the outcome of applying one observation.
// Emitted is false for refreshes and no-ops.
type Transition struct {
	From           Status
	To             Status
	Entry          *Entry
	Classification Classification
	Emitted        bool
}
