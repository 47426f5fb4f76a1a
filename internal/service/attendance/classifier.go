package attendance

import "github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"

// Classify labels a punch. Any deviation from an in-zone, in-hours weekday punch
// needs approval; the label reports the most significant deviation.
func Classify(in attendance.PolicyInput) attendance.Classification {
	c := attendance.Classification{
		Type:          attendance.PunchTypeNormal,
		NeedsApproval: !in.InGeofence || !in.WithinSchedule || in.IsWeekend,
	}

	switch {
	case in.IsWeekend:
		c.Type = attendance.PunchTypeWeekendWork
	case !in.InGeofence:
		c.Type = attendance.PunchTypeRemoteWork
	case !in.WithinSchedule:
		c.Type = attendance.PunchTypeOutOfHours
	}
	return c
}
