package schedule

import "errors"

var (
	ErrWorkScheduleNotFound = errors.New("work schedule not found")
	ErrInvalidClockTime     = errors.New("invalid clock time, use HH:MM")
	ErrInvalidDayOfWeek     = errors.New("day of week must be between 1 (Monday) and 7 (Sunday)")
)
