package attendance

import (
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/location"
	"github.com/shopspring/decimal"
)

type ActivityKind string

const (
	ActivityClockIn       ActivityKind = "clock_in"
	ActivityClockOut      ActivityKind = "clock_out"
	ActivityLocationError ActivityKind = "location_error"
	ActivityMonitoring    ActivityKind = "monitoring"
)

// Activity is one record of the local activity log.
type Activity struct {
	ID          string
	EmployeeID  string
	At          time.Time
	Description string
	Location    *location.Location
	Payload     Payload
}

// Kind is derived from the payload so the two can never disagree.
func (a Activity) Kind() ActivityKind {
	if a.Payload == nil {
		return ""
	}
	return a.Payload.Kind()
}

// Payload is implemented only by the payload types of this package.
type Payload interface {
	Kind() ActivityKind
	sealed()
}

type ClockInPayload struct {
	EntryID         string    `json:"entry_id"`
	Type            PunchType `json:"type"`
	Trigger         Trigger   `json:"trigger"`
	InGeofence      bool      `json:"in_geofence"`
	WithinSchedule  bool      `json:"within_schedule"`
	IsWeekend       bool      `json:"is_weekend"`
	NeedsApproval   bool      `json:"needs_approval"`
	ZoneID          string    `json:"zone_id,omitempty"`
	NearestDistance *float64  `json:"nearest_distance_meters,omitempty"`
}

type ClockOutPayload struct {
	EntryID       string          `json:"entry_id"`
	Type          PunchType       `json:"type"`
	Trigger       Trigger         `json:"trigger"`
	TotalHours    decimal.Decimal `json:"total_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	NeedsApproval bool            `json:"needs_approval"`
}

type LocationErrorPayload struct {
	ErrorKind string  `json:"error_kind"`
	Message   string  `json:"message"`
	Trigger   Trigger `json:"trigger"`
}

type MonitoringPayload struct {
	Enabled   bool   `json:"enabled"`
	Hostname  string `json:"hostname,omitempty"`
	ZoneCount int    `json:"zone_count"`
}

func (ClockInPayload) Kind() ActivityKind       { return ActivityClockIn }
func (ClockOutPayload) Kind() ActivityKind      { return ActivityClockOut }
func (LocationErrorPayload) Kind() ActivityKind { return ActivityLocationError }
func (MonitoringPayload) Kind() ActivityKind    { return ActivityMonitoring }

func (ClockInPayload) sealed()       {}
func (ClockOutPayload) sealed()      {}
func (LocationErrorPayload) sealed() {}
func (MonitoringPayload) sealed()    {}
