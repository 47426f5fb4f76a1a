package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/notification"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Notifier receives one notification per punch.
type Notifier interface {
	Publish(ctx context.Context, n notification.PunchNotification) error
}

// Machine owns every change to attendance entries. Manual punches and monitor
// ticks go through Apply, serialized per employee.
type Machine struct {
	entries    attendance.EntryRepository
	activities attendance.ActivityRepository
	notifier   Notifier
	locks      *keyedMutex
	now        func() time.Time
}

func NewMachine(entries attendance.EntryRepository, activities attendance.ActivityRepository, notifier Notifier) *Machine {
	return &Machine{
		entries:    entries,
		activities: activities,
		notifier:   notifier,
		locks:      newKeyedMutex(),
		now:        time.Now,
	}
}

// Apply moves the employee's live entry according to obs and trigger.
func (m *Machine) Apply(ctx context.Context, obs attendance.Observation, trigger attendance.Trigger) (attendance.Transition, error) {
	unlock := m.locks.Lock(obs.EmployeeID)
	defer unlock()

	entry, err := m.liveEntry(ctx, obs.EmployeeID, obs.Date, obs.ContinuesShift)
	if err != nil {
		return attendance.Transition{}, err
	}

	if entry == nil {
		return m.fromNotClockedIn(ctx, obs, trigger)
	}

	switch entry.Status {
	case attendance.StatusWorking:
		return m.fromWorking(ctx, *entry, obs, trigger)
	case attendance.StatusClockedOut:
		return m.fromClockedOut(*entry, trigger)
	default:
		return attendance.Transition{}, fmt.Errorf("entry %s has unexpected status %q", entry.ID, entry.Status)
	}
}

// Current returns the live entry of an employee for date, or nil. continuesShift has
// the meaning of Observation.ContinuesShift.
func (m *Machine) Current(ctx context.Context, employeeID, date string, continuesShift bool) (*attendance.Entry, error) {
	unlock := m.locks.Lock(employeeID)
	defer unlock()
	return m.liveEntry(ctx, employeeID, date, continuesShift)
}

// liveEntry returns the entry of date. Inside the tail of an overnight window it falls
// back to the previous day's entry while that one is still open, so night shifts can
// clock out after midnight. Any other open entry from an earlier day is left behind.
func (m *Machine) liveEntry(ctx context.Context, employeeID, date string, continuesShift bool) (*attendance.Entry, error) {
	entry, err := m.entries.Load(ctx, employeeID, date)
	if err == nil {
		return &entry, nil
	}
	if !errors.Is(err, attendance.ErrEntryNotFound) {
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}
	if !continuesShift {
		return nil, nil
	}

	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("invalid observation date %q: %w", date, err)
	}
	previous, err := m.entries.Load(ctx, employeeID, day.AddDate(0, 0, -1).Format("2006-01-02"))
	if err != nil {
		if errors.Is(err, attendance.ErrEntryNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load previous entry: %w", err)
	}
	if previous.Status != attendance.StatusWorking {
		return nil, nil
	}
	return &previous, nil
}

func (m *Machine) fromNotClockedIn(ctx context.Context, obs attendance.Observation, trigger attendance.Trigger) (attendance.Transition, error) {
	noop := attendance.Transition{From: attendance.StatusNotClockedIn, To: attendance.StatusNotClockedIn}

	switch trigger {
	case attendance.TriggerManualClockOut:
		return attendance.Transition{}, attendance.ErrNotClockedIn
	case attendance.TriggerAutomatic:
		if obs.Location == nil || !obs.InGeofence || !obs.WithinSchedule {
			return noop, nil
		}
	}

	cls := Classify(obs.Policy())
	now := m.now()
	at := obs.At

	entry := attendance.Entry{
		ID:            uuid.Must(uuid.NewV7()).String(),
		EmployeeID:    obs.EmployeeID,
		Date:          obs.Date,
		ClockIn:       &at,
		LocationIn:    obs.Location,
		IsInGeofence:  obs.InGeofence,
		IsAutomatic:   trigger == attendance.TriggerAutomatic,
		IsWeekend:     obs.IsWeekend,
		NeedsApproval: cls.NeedsApproval,
		PunchType:     cls.Type,
		ZoneID:        obs.ZoneID,
		Status:        attendance.StatusWorking,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if obs.Location != nil {
		entry.LastLocation = obs.Location
		entry.LastSeenAt = &at
	}

	if err := m.entries.Save(ctx, entry); err != nil {
		return attendance.Transition{}, fmt.Errorf("failed to save clock-in: %w", err)
	}

	payload := attendance.ClockInPayload{
		EntryID:        entry.ID,
		Type:           cls.Type,
		Trigger:        trigger,
		InGeofence:     obs.InGeofence,
		WithinSchedule: obs.WithinSchedule,
		IsWeekend:      obs.IsWeekend,
		NeedsApproval:  cls.NeedsApproval,
		ZoneID:         obs.ZoneID,
	}
	if obs.Location != nil && !math.IsInf(obs.NearestDistance, 0) {
		d := obs.NearestDistance
		payload.NearestDistance = &d
	}

	m.emit(ctx, entry, attendance.PunchClockIn, trigger, cls, obs, payload)

	return attendance.Transition{
		From:           attendance.StatusNotClockedIn,
		To:             attendance.StatusWorking,
		Entry:          &entry,
		Classification: cls,
		Emitted:        true,
	}, nil
}

func (m *Machine) fromWorking(ctx context.Context, entry attendance.Entry, obs attendance.Observation, trigger attendance.Trigger) (attendance.Transition, error) {
	switch trigger {
	case attendance.TriggerManualClockIn:
		return attendance.Transition{}, attendance.ErrAlreadyClockedIn
	case attendance.TriggerAutomatic:
		exited := obs.Location != nil && entry.IsInGeofence && !obs.InGeofence
		if !exited {
			return m.refresh(ctx, entry, obs)
		}
	}

	return m.clockOut(ctx, entry, obs, trigger)
}

// refresh records the latest position of a working employee without emitting anything.
func (m *Machine) refresh(ctx context.Context, entry attendance.Entry, obs attendance.Observation) (attendance.Transition, error) {
	t := attendance.Transition{
		From:           attendance.StatusWorking,
		To:             attendance.StatusWorking,
		Entry:          &entry,
		Classification: attendance.Classification{Type: entry.PunchType, NeedsApproval: entry.NeedsApproval},
	}
	if obs.Location == nil {
		return t, nil
	}

	at := obs.At
	entry.LastLocation = obs.Location
	entry.LastSeenAt = &at
	entry.UpdatedAt = m.now()

	if err := m.entries.Save(ctx, entry); err != nil {
		return attendance.Transition{}, fmt.Errorf("failed to save location refresh: %w", err)
	}
	return t, nil
}

func (m *Machine) clockOut(ctx context.Context, entry attendance.Entry, obs attendance.Observation, trigger attendance.Trigger) (attendance.Transition, error) {
	cls := attendance.Classification{Type: entry.PunchType, NeedsApproval: entry.NeedsApproval}
	if trigger.IsManual() {
		manual := Classify(obs.Policy())
		cls.Type = manual.Type
		cls.NeedsApproval = entry.NeedsApproval || manual.NeedsApproval
	}

	at := obs.At
	total, overtime := WorkedHours(*entry.ClockIn, at, entry.IsWeekend)

	entry.ClockOut = &at
	entry.TotalHours = total
	entry.OvertimeHours = overtime
	entry.LocationOut = obs.Location
	if obs.Location != nil {
		entry.LastLocation = obs.Location
		entry.LastSeenAt = &at
	}
	entry.NeedsApproval = cls.NeedsApproval
	entry.Status = attendance.StatusClockedOut
	entry.UpdatedAt = m.now()

	if err := m.entries.Save(ctx, entry); err != nil {
		return attendance.Transition{}, fmt.Errorf("failed to save clock-out: %w", err)
	}

	m.emit(ctx, entry, attendance.PunchClockOut, trigger, cls, obs, attendance.ClockOutPayload{
		EntryID:       entry.ID,
		Type:          cls.Type,
		Trigger:       trigger,
		TotalHours:    total,
		OvertimeHours: overtime,
		NeedsApproval: cls.NeedsApproval,
	})

	return attendance.Transition{
		From:           attendance.StatusWorking,
		To:             attendance.StatusClockedOut,
		Entry:          &entry,
		Classification: cls,
		Emitted:        true,
	}, nil
}

func (m *Machine) fromClockedOut(entry attendance.Entry, trigger attendance.Trigger) (attendance.Transition, error) {
	switch trigger {
	case attendance.TriggerManualClockIn:
		return attendance.Transition{}, attendance.ErrDayClosed
	case attendance.TriggerManualClockOut:
		return attendance.Transition{}, attendance.ErrAlreadyClockedOut
	}
	return attendance.Transition{
		From:           attendance.StatusClockedOut,
		To:             attendance.StatusClockedOut,
		Entry:          &entry,
		Classification: attendance.Classification{Type: entry.PunchType, NeedsApproval: entry.NeedsApproval},
	}, nil
}

// emit sends the notification and the activity record of a saved transition.
// Neither failure undoes the transition.
func (m *Machine) emit(ctx context.Context, entry attendance.Entry, punch attendance.Punch, trigger attendance.Trigger, cls attendance.Classification, obs attendance.Observation, payload attendance.Payload) {
	metrics.Transitions.WithLabelValues(string(punch), string(trigger), string(cls.Type)).Inc()

	message := punchMessage(punch, trigger, cls)

	err := m.notifier.Publish(ctx, notification.PunchNotification{
		ID:         uuid.Must(uuid.NewV7()).String(),
		EmployeeID: entry.EmployeeID,
		EntryID:    entry.ID,
		Type:       cls.Type,
		Punch:      punch,
		Timestamp:  obs.At,
		Message:    message,
	})
	if err != nil {
		slog.Error("Failed to publish punch notification",
			"employee_id", entry.EmployeeID,
			"entry_id", entry.ID,
			"punch", punch,
			"error", err,
		)
	}

	err = m.activities.Record(ctx, attendance.Activity{
		ID:          uuid.Must(uuid.NewV7()).String(),
		EmployeeID:  entry.EmployeeID,
		At:          obs.At,
		Description: message,
		Location:    obs.Location,
		Payload:     payload,
	})
	if err != nil {
		slog.Error("Failed to record punch activity",
			"employee_id", entry.EmployeeID,
			"entry_id", entry.ID,
			"error", err,
		)
	}
}

func punchMessage(punch attendance.Punch, trigger attendance.Trigger, cls attendance.Classification) string {
	verb := "Clocked in"
	if punch == attendance.PunchClockOut {
		verb = "Clocked out"
	}
	how := "automatically"
	if trigger.IsManual() {
		how = "manually"
	}
	msg := fmt.Sprintf("%s %s (%s)", verb, how, cls.Type)
	if cls.NeedsApproval {
		msg += ", needs approval"
	}
	return msg
}

// WorkedHours returns the hours between clock-in and clock-out rounded to two
// decimals, and the overtime part of them. Weekend hours are all overtime.
func WorkedHours(clockIn, clockOut time.Time, weekend bool) (total, overtime decimal.Decimal) {
	d := clockOut.Sub(clockIn)
	if d < 0 {
		d = 0
	}

	total = decimal.NewFromInt(int64(d)).Div(decimal.NewFromInt(int64(time.Hour))).Round(2)
	if weekend {
		return total, total
	}

	overtime = total.Sub(attendance.StandardWorkdayHours)
	if overtime.IsNegative() {
		overtime = decimal.Zero
	}
	return total, overtime
}
