package notification

import (
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/validator"
)

// ============= Request DTOs =============

// MarkAsReadRequest represents a request to mark notifications as read
type MarkAsReadRequest struct {
	NotificationIDs []string `json:"notification_ids"`
}

func (r *MarkAsReadRequest) Validate() error {
	if len(r.NotificationIDs) == 0 {
		return ErrEmptyNotificationIDs
	}

	var errs validator.ValidationErrors
	for _, id := range r.NotificationIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{
				Field:   "notification_ids",
				Message: "notification id must not be empty",
			})
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ============= Response DTOs =============

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID         string               `json:"id"`
	EmployeeID string               `json:"employee_id"`
	EntryID    string               `json:"entry_id"`
	Type       attendance.PunchType `json:"type"`
	Punch      attendance.Punch     `json:"punch"`
	Message    string               `json:"message"`
	Read       bool                 `json:"read"`
	Timestamp  time.Time            `json:"timestamp"`
}

func NewNotificationResponse(n PunchNotification) NotificationResponse {
	return NotificationResponse{
		ID:         n.ID,
		EmployeeID: n.EmployeeID,
		EntryID:    n.EntryID,
		Type:       n.Type,
		Punch:      n.Punch,
		Message:    n.Message,
		Read:       n.Read,
		Timestamp:  n.Timestamp,
	}
}

// NotificationListResponse represents a list of notifications
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int                    `json:"total"`
	UnreadCount   int                    `json:"unread_count"`
}

// MarkAsReadResponse reports how many notifications were updated
type MarkAsReadResponse struct {
	Updated int `json:"updated"`
}

// ============= SSE Event =============

// SSEEvent represents a Server-Sent Event
type SSEEvent struct {
	Event string               `json:"event"`
	Data  NotificationResponse `json:"data"`
}
