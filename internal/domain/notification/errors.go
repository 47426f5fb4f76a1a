package notification

import "errors"

// Notification domain errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrEmptyNotificationIDs = errors.New("notification_ids must not be empty")
)
