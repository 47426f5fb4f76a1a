package attendance

import "errors"

// Attendance domain errors
var (
	// Punch errors
	ErrAlreadyClockedIn  = errors.New("you have already clocked in")
	ErrNotClockedIn      = errors.New("you have not clocked in yet")
	ErrAlreadyClockedOut = errors.New("you have already clocked out")
	ErrDayClosed         = errors.New("attendance for today is already closed")

	// Monitoring errors
	ErrMonitoringNotEnabled = errors.New("location monitoring is not enabled")

	// General errors
	ErrEntryNotFound     = errors.New("attendance entry not found")
	ErrUnknownActivity   = errors.New("unknown activity kind")
	ErrInvalidDateRange  = errors.New("start_date must not be after end_date")
	ErrDateRangeTooLarge = errors.New("date range must not exceed 366 days")
)
