package schedule

import "context"

// WorkScheduleRepository reads schedules configured by the admin surface. It is read-only here.
type WorkScheduleRepository interface {
	// GetByEmployeeID returns the schedule currently assigned to an employee
	GetByEmployeeID(ctx context.Context, employeeID string) (WorkSchedule, error)
}
