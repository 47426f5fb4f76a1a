package geofence

import "context"

// ZoneRepository reads the zones an employee may clock in from.
type ZoneRepository interface {
	ListByEmployeeID(ctx context.Context, employeeID string) ([]Zone, error)
}
