package attendance

import (
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/location"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/schedule"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/utils"
	scheduleService "github.com/cmlabs-hris/geo-attendance/internal/service/schedule"
)

// ObservationBuilder turns a position fix into an Observation for the state machine.
type ObservationBuilder struct {
	evaluator *scheduleService.Evaluator
}

func NewObservationBuilder(evaluator *scheduleService.Evaluator) *ObservationBuilder {
	return &ObservationBuilder{evaluator: evaluator}
}

// Build evaluates loc against the zone snapshot and the schedule at time at.
// A nil loc yields an observation outside every zone carrying locErr.
func (b *ObservationBuilder) Build(employeeID string, sched schedule.WorkSchedule, zones []utils.Zone, loc *location.Location, at time.Time, locErr error) attendance.Observation {
	local := b.evaluator.Local(sched, at)

	obs := attendance.Observation{
		EmployeeID:     employeeID,
		Date:           local.Format("2006-01-02"),
		At:             at,
		WithinSchedule: b.evaluator.IsWithinSchedule(sched, at),
		IsWeekend:      b.evaluator.IsWeekend(local),
		LocationErr:    locErr,
		ContinuesShift: b.evaluator.ContinuesPreviousShift(sched, at),
	}

	if loc == nil {
		return obs
	}

	fix := *loc
	obs.Location = &fix

	match := utils.WithinAnyZone(fix.Coordinate(), zones)
	obs.InGeofence = match.Matched
	obs.NearestDistance = match.NearestDistance
	if match.Matched {
		obs.ZoneID = match.ZoneID
	}
	return obs
}
