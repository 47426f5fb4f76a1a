package attendance

import (
	"context"
)

// AttendanceService defines the employee-facing attendance operations
type AttendanceService interface {
	// ReportLocation feeds a client device report into the server-side device registry
	ReportLocation(ctx context.Context, req ReportLocationRequest) error

	// EnableMonitoring starts automatic clock-in/out for the employee
	EnableMonitoring(ctx context.Context, req EnableMonitoringRequest) (MonitorStatusResponse, error)
	DisableMonitoring(ctx context.Context, employeeID string) (MonitorStatusResponse, error)
	MonitoringStatus(ctx context.Context, employeeID string) (MonitorStatusResponse, error)

	// ClockIn and ClockOut acquire a location themselves and fail open when it cannot be obtained
	ClockIn(ctx context.Context, req ManualPunchRequest) (PunchResponse, error)
	ClockOut(ctx context.Context, req ManualPunchRequest) (PunchResponse, error)

	Today(ctx context.Context, employeeID string) (AttendanceStatusResponse, error)

	// Hours exports finalized entries for payroll
	Hours(ctx context.Context, filter HoursFilter) (HoursResponse, error)

	// Activity lists the newest records first, bounded by ActivityLimit(limit)
	Activity(ctx context.Context, employeeID string, limit int) ([]ActivityResponse, error)
}
