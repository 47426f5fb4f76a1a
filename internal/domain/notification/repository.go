package notification

import (
	"context"
)

// Repository stores punch notifications with capped per-employee retention
type Repository interface {
	// Append stores n and evicts the oldest notifications beyond the retention cap
	Append(ctx context.Context, n PunchNotification) error

	// ListByEmployee returns the newest notifications first; limit <= 0 means all retained
	ListByEmployee(ctx context.Context, employeeID string, limit int) ([]PunchNotification, error)

	// MarkAsRead returns how many of ids were found and marked
	MarkAsRead(ctx context.Context, employeeID string, ids []string) (int, error)
}
