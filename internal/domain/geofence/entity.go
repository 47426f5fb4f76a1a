package geofence

import "github.com/cmlabs-hris/geo-attendance/internal/pkg/utils"

// Zone is a configured circular geofence. Zones are snapshotted when a monitoring
// session starts and never change during it.
type Zone struct {
	ID           string
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

func (z Zone) ToGeo() utils.Zone {
	return utils.Zone{
		ID:           z.ID,
		Name:         z.Name,
		Center:       utils.Coordinate{Latitude: z.Latitude, Longitude: z.Longitude},
		RadiusMeters: z.RadiusMeters,
	}
}

// ToGeoZones converts a zone set for geofence evaluation.
func ToGeoZones(zones []Zone) []utils.Zone {
	out := make([]utils.Zone, 0, len(zones))
	for _, z := range zones {
		out = append(out, z.ToGeo())
	}
	return out
}
