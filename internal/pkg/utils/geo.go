package utils

import "math"

// EarthRadiusMeters is the spherical Earth radius used for every geofence check.
const EarthRadiusMeters = 6371000

type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Zone is a circular geofence (center + radius).
type Zone struct {
	ID           string
	Name         string
	Center       Coordinate
	RadiusMeters float64
}

// ZoneMatch is the result of testing a point against a set of zones.
// NearestDistance is distance minus radius of the closest zone edge, negative when inside.
type ZoneMatch struct {
	Matched         bool
	NearestDistance float64
	ZoneID          string
}

// Distance returns the great-circle distance between a and b in meters (haversine).
func Distance(a, b Coordinate) float64 {
	if a == b {
		return 0
	}

	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)

	// rounding can push h slightly outside [0,1] for near-antipodal points
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// WithinAnyZone reports whether point lies inside at least one zone (boundary inclusive).
func WithinAnyZone(point Coordinate, zones []Zone) ZoneMatch {
	match := ZoneMatch{NearestDistance: math.Inf(1)}

	for _, zone := range zones {
		d := Distance(point, zone.Center)
		if d <= zone.RadiusMeters {
			match.Matched = true
		}
		if edge := d - zone.RadiusMeters; edge < match.NearestDistance {
			match.NearestDistance = edge
			match.ZoneID = zone.ID
		}
	}

	return match
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
