package schedule

import (
	"fmt"
	"time"
)

// ClockTime is a time of day in minutes since midnight.
type ClockTime int

// ParseClockTime parses "HH:MM" or "HH:MM:SS" (seconds are dropped, minute granularity).
func ParseClockTime(s string) (ClockTime, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockTime(t.Hour()*60 + t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
}

// MustClockTime is ParseClockTime for literals.
func MustClockTime(s string) ClockTime {
	c, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockTimeOf returns the minute of day of t in t's location.
func ClockTimeOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// DaySchedule is the work window of one weekday.
type DaySchedule struct {
	Start   ClockTime
	End     ClockTime
	Enabled bool
}

// WorkSchedule is an employee's weekly schedule. Days missing from the map are disabled.
type WorkSchedule struct {
	ID         string
	EmployeeID string
	Name       string
	Timezone   string // IANA name, e.g. Asia/Jakarta
	Days       map[time.Weekday]DaySchedule
}

// Day returns the schedule of a weekday.
func (s WorkSchedule) Day(d time.Weekday) DaySchedule {
	if s.Days == nil {
		return DaySchedule{}
	}
	return s.Days[d]
}

// ISODayOfWeek converts 1=Monday ... 7=Sunday to time.Weekday.
func ISODayOfWeek(day int) (time.Weekday, error) {
	if day < 1 || day > 7 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDayOfWeek, day)
	}
	return time.Weekday(day % 7), nil
}
