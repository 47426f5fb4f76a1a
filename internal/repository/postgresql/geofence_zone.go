package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/geofence"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/database"
)

type zoneRepositoryImpl struct {
	db *database.DB
}

func NewZoneRepository(db *database.DB) geofence.ZoneRepository {
	return &zoneRepositoryImpl{db: db}
}

// ListByEmployeeID implements geofence.ZoneRepository.
// Zones are the locations of the employee's active work schedule.
func (z *zoneRepositoryImpl) ListByEmployeeID(ctx context.Context, employeeID string) ([]geofence.Zone, error) {
	q := GetQuerier(ctx, z.db)

	query := activeScheduleCTE + `
		SELECT wsl.id, wsl.location_name, wsl.latitude::float8, wsl.longitude::float8, wsl.radius_meters::float8
		FROM target_schedule ts
		JOIN work_schedules ws ON ws.id = ts.id AND ws.deleted_at IS NULL
		JOIN work_schedule_locations wsl ON wsl.work_schedule_id = ws.id
		ORDER BY wsl.location_name
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list geofence zones: %w", err)
	}
	defer rows.Close()

	var zones []geofence.Zone
	for rows.Next() {
		var zone geofence.Zone
		if err := rows.Scan(&zone.ID, &zone.Name, &zone.Latitude, &zone.Longitude, &zone.RadiusMeters); err != nil {
			return nil, fmt.Errorf("failed to scan geofence zone: %w", err)
		}
		zones = append(zones, zone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate geofence zones: %w", err)
	}

	return zones, nil
}
