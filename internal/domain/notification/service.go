package notification

import (
	"context"
)

// Service defines the notification service interface
type Service interface {
	// Publish appends the notification and pushes it to live subscribers
	Publish(ctx context.Context, n PunchNotification) error

	List(ctx context.Context, employeeID string, limit int) (NotificationListResponse, error)
	MarkAsRead(ctx context.Context, employeeID string, req MarkAsReadRequest) (MarkAsReadResponse, error)

	// Subscribe streams new notifications of one employee until unsubscribe is called
	Subscribe(ctx context.Context, employeeID string) (<-chan SSEEvent, func())
}
