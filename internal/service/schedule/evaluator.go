package schedule

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/schedule"
)

// Evaluator answers "is now a working time" questions for a schedule.
type Evaluator struct {
	mu        sync.RWMutex
	locations map[string]*time.Location
}

func NewEvaluator() *Evaluator {
	return &Evaluator{locations: make(map[string]*time.Location)}
}

// Location resolves a schedule timezone, falling back to UTC when it is empty or unknown.
func (e *Evaluator) Location(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}

	e.mu.RLock()
	loc, ok := e.locations[timezone]
	e.mu.RUnlock()
	if ok {
		return loc
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		slog.Warn("Unknown schedule timezone, using UTC", "timezone", timezone, "error", err)
		loc = time.UTC
	}

	e.mu.Lock()
	e.locations[timezone] = loc
	e.mu.Unlock()
	return loc
}

// Local converts now into the schedule's timezone.
func (e *Evaluator) Local(s schedule.WorkSchedule, now time.Time) time.Time {
	return now.In(e.Location(s.Timezone))
}

// OvernightGrace is how long after an overnight window ends its shift may still
// clock out on the following calendar day.
const OvernightGrace = 2 * time.Hour

// IsWithinSchedule reports whether now falls inside an enabled window. Boundaries are
// inclusive at minute granularity. A window whose end is before its start wraps past
// midnight, and the part after midnight belongs to the day the window started on.
func (e *Evaluator) IsWithinSchedule(s schedule.WorkSchedule, now time.Time) bool {
	local := e.Local(s, now)
	minute := schedule.ClockTimeOf(local)

	day := s.Day(local.Weekday())
	if day.Enabled {
		if day.End < day.Start {
			if minute >= day.Start {
				return true
			}
		} else if day.Start <= minute && minute <= day.End {
			return true
		}
	}

	prev := s.Day(previousWeekday(local.Weekday()))
	return prev.Enabled && prev.End < prev.Start && minute <= prev.End
}

// ContinuesPreviousShift reports whether now is in the after-midnight part of the
// previous day's overnight window, extended by OvernightGrace.
func (e *Evaluator) ContinuesPreviousShift(s schedule.WorkSchedule, now time.Time) bool {
	local := e.Local(s, now)
	prev := s.Day(previousWeekday(local.Weekday()))
	if !prev.Enabled || prev.End >= prev.Start {
		return false
	}
	limit := prev.End + schedule.ClockTime(OvernightGrace/time.Minute)
	return schedule.ClockTimeOf(local) <= limit
}

func previousWeekday(d time.Weekday) time.Weekday {
	return (d + 6) % 7
}

// IsWeekend reports whether now is a Saturday or Sunday in now's own location.
func (e *Evaluator) IsWeekend(now time.Time) bool {
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// LocalDate returns the working day of now (YYYY-MM-DD) in the schedule's timezone.
func (e *Evaluator) LocalDate(s schedule.WorkSchedule, now time.Time) string {
	return e.Local(s, now).Format("2006-01-02")
}
