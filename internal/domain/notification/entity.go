package notification

import (
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
)

// DefaultRetention is how many notifications are kept per employee.
const DefaultRetention = 100

// PunchNotification is an append-only record of a classified punch. Only Read
// ever changes after creation.
type PunchNotification struct {
	ID         string
	EmployeeID string
	EntryID    string
	Type       attendance.PunchType
	Punch      attendance.Punch
	Timestamp  time.Time
	Message    string
	Read       bool
}
