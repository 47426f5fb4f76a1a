package attendance

import (
	"context"
	"time"
)

// EntryRepository persists one entry per employee per date.
type EntryRepository interface {
	// Save inserts or replaces the entry keyed by (EmployeeID, Date)
	Save(ctx context.Context, entry Entry) error

	// Load returns ErrEntryNotFound when the employee has no entry on date
	Load(ctx context.Context, employeeID string, date string) (Entry, error)

	// ListByEmployee returns entries with startDate <= Date <= endDate, oldest first
	ListByEmployee(ctx context.Context, employeeID string, startDate, endDate string) ([]Entry, error)
}

// ActivityRepository is the activity-log sink.
type ActivityRepository interface {
	Record(ctx context.Context, activity Activity) error

	// List returns the newest activities first
	List(ctx context.Context, employeeID string, limit int) ([]Activity, error)

	// PruneBefore deletes activities older than cutoff for every employee
	PruneBefore(ctx context.Context, cutoff time.Time) (int, error)
}
