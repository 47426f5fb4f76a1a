package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/notification"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/metrics"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/sse"
	"github.com/google/uuid"
)

const eventNotification = "notification"

// Config holds notification service configuration
type Config struct {
	DefaultLimit int // default: 20
	MaxLimit     int // default: 100
}

type service struct {
	repo   notification.Repository
	hub    *sse.Hub
	config Config
}

// NewNotificationService creates a notification service that stores punches and fans them out over SSE
func NewNotificationService(repo notification.Repository, hub *sse.Hub, cfg Config) notification.Service {
	if cfg.DefaultLimit == 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit == 0 {
		cfg.MaxLimit = notification.DefaultRetention
	}

	return &service{
		repo:   repo,
		hub:    hub,
		config: cfg,
	}
}

// Publish stores the notification, then pushes it to the employee's subscribers
func (s *service) Publish(ctx context.Context, n notification.PunchNotification) error {
	if n.ID == "" {
		n.ID = uuid.Must(uuid.NewV7()).String()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	n.Read = false

	if err := s.repo.Append(ctx, n); err != nil {
		metrics.NotificationFailures.Inc()
		return fmt.Errorf("append notification: %w", err)
	}

	s.hub.Publish(n.EmployeeID, sse.Event{
		Event: eventNotification,
		Data:  notification.NewNotificationResponse(n),
	})

	slog.Debug("Punch notification published",
		"employee_id", n.EmployeeID,
		"notification_id", n.ID,
		"type", n.Type,
		"punch", n.Punch,
	)
	return nil
}

// List returns the newest notifications of an employee
func (s *service) List(ctx context.Context, employeeID string, limit int) (notification.NotificationListResponse, error) {
	if limit < 1 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	all, err := s.repo.ListByEmployee(ctx, employeeID, 0)
	if err != nil {
		return notification.NotificationListResponse{}, err
	}

	unread := 0
	for _, n := range all {
		if !n.Read {
			unread++
		}
	}

	page := all
	if len(page) > limit {
		page = page[:limit]
	}

	responses := make([]notification.NotificationResponse, len(page))
	for i, n := range page {
		responses[i] = notification.NewNotificationResponse(n)
	}

	return notification.NotificationListResponse{
		Notifications: responses,
		Total:         len(all),
		UnreadCount:   unread,
	}, nil
}

// MarkAsRead marks specified notifications as read
func (s *service) MarkAsRead(ctx context.Context, employeeID string, req notification.MarkAsReadRequest) (notification.MarkAsReadResponse, error) {
	if err := req.Validate(); err != nil {
		return notification.MarkAsReadResponse{}, err
	}

	updated, err := s.repo.MarkAsRead(ctx, employeeID, req.NotificationIDs)
	if err != nil {
		return notification.MarkAsReadResponse{}, err
	}
	if updated == 0 {
		return notification.MarkAsReadResponse{}, notification.ErrNotificationNotFound
	}
	return notification.MarkAsReadResponse{Updated: updated}, nil
}

// Subscribe creates an SSE subscription for an employee
func (s *service) Subscribe(ctx context.Context, employeeID string) (<-chan notification.SSEEvent, func()) {
	ch, cleanup := s.hub.Subscribe(employeeID)

	out := make(chan notification.SSEEvent, 10)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				resp, ok := event.Data.(notification.NotificationResponse)
				if !ok {
					continue
				}
				select {
				case out <- notification.SSEEvent{Event: event.Event, Data: resp}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}
