package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/auth"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/geofence"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/location"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/notification"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/schedule"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrEmployeeIDRequired):
		Forbidden(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyClockedIn),
		errors.Is(err, attendance.ErrAlreadyClockedOut),
		errors.Is(err, attendance.ErrNotClockedIn),
		errors.Is(err, attendance.ErrDayClosed):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrMonitoringNotEnabled):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrEntryNotFound):
		NotFound(w, "Attendance entry not found")
	case errors.Is(err, attendance.ErrInvalidDateRange),
		errors.Is(err, attendance.ErrDateRangeTooLarge):
		BadRequest(w, err.Error(), nil)

	// Configuration owned by the admin surface
	case errors.Is(err, schedule.ErrWorkScheduleNotFound):
		NotFound(w, "No work schedule assigned")
	case errors.Is(err, geofence.ErrNoZonesConfigured):
		BadRequest(w, err.Error(), nil)

	// Location domain errors
	case errors.Is(err, location.ErrInsecureContext),
		errors.Is(err, location.ErrPermissionDenied):
		Forbidden(w, err.Error())
	case errors.Is(err, location.ErrUnsupported):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, location.ErrTimeout),
		errors.Is(err, location.ErrPositionUnavailable):
		ServiceUnavailable(w, err.Error())

	// Notification domain errors
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")
	case errors.Is(err, notification.ErrEmptyNotificationIDs):
		BadRequest(w, err.Error(), nil)

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ServiceUnavailable(w, "Request cancelled")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
