package geofence

import "errors"

var (
	ErrNoZonesConfigured = errors.New("no geofence zones configured for employee")
)
