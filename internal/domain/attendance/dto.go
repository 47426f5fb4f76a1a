package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/location"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// REQUEST DTOs
// ========================================

// ReportLocationRequest is a device report pushed by the employee's client.
type ReportLocationRequest struct {
	EmployeeID     string   `json:"-"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	AccuracyMeters float64  `json:"accuracy_meters"`
	CapturedAt     *string  `json:"captured_at"`
	Supported      *bool    `json:"supported"`
	Permission     string   `json:"permission"`
	ErrorCode      int      `json:"error_code"`
	ErrorMessage   string   `json:"error_message"`
}

func (r *ReportLocationRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}

	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs = append(errs, validator.ValidationError{Field: "latitude", Message: "latitude and longitude must be sent together"})
	}
	if r.Latitude != nil && !validator.IsValidLatitude(*r.Latitude) {
		errs = append(errs, validator.ValidationError{Field: "latitude", Message: "latitude must be between -90 and 90"})
	}
	if r.Longitude != nil && !validator.IsValidLongitude(*r.Longitude) {
		errs = append(errs, validator.ValidationError{Field: "longitude", Message: "longitude must be between -180 and 180"})
	}
	if r.AccuracyMeters < 0 {
		errs = append(errs, validator.ValidationError{Field: "accuracy_meters", Message: "accuracy_meters must not be negative"})
	}
	if r.CapturedAt != nil {
		if _, ok := validator.IsValidDateTime(*r.CapturedAt); !ok {
			errs = append(errs, validator.ValidationError{Field: "captured_at", Message: "captured_at must be an RFC3339 timestamp"})
		}
	}

	if r.Permission != "" && !validator.IsInSlice(r.Permission, location.PermissionStates()) {
		errs = append(errs, validator.ValidationError{Field: "permission", Message: "permission must be one of " + strings.Join(location.PermissionStates(), ", ")})
	}

	if r.ErrorCode < 0 || r.ErrorCode > int(location.CodeTimeout) {
		errs = append(errs, validator.ValidationError{Field: "error_code", Message: "error_code must be 1, 2 or 3"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToLocation returns the reported fix, or nil when the report carries none.
// Call after Validate.
func (r *ReportLocationRequest) ToLocation() *location.Location {
	if r.Latitude == nil || r.Longitude == nil {
		return nil
	}
	loc := &location.Location{
		Latitude:       *r.Latitude,
		Longitude:      *r.Longitude,
		AccuracyMeters: r.AccuracyMeters,
	}
	if r.CapturedAt != nil {
		loc.CapturedAt, _ = validator.IsValidDateTime(*r.CapturedAt)
	}
	return loc
}

// EnableMonitoringRequest starts a monitoring session. Origin is the page origin the
// client runs on and decides whether the session counts as a secure context.
type EnableMonitoringRequest struct {
	EmployeeID string `json:"-"`
	Origin     string `json:"origin"`
}

func (r *EnableMonitoringRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if validator.IsEmpty(r.Origin) {
		errs = append(errs, validator.ValidationError{Field: "origin", Message: "origin is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ManualPunchRequest is a manual clock-in or clock-out.
type ManualPunchRequest struct {
	EmployeeID string `json:"-"`
	Origin     string `json:"origin"`
}

func (r *ManualPunchRequest) Validate() error {
	if validator.IsEmpty(r.EmployeeID) {
		return validator.ValidationErrors{{Field: "employee_id", Message: "employee_id is required"}}
	}
	return nil
}

// HoursFilter selects the finalized entries of an employee by working date.
type HoursFilter struct {
	EmployeeID string
	StartDate  string
	EndDate    string
}

func (f *HoursFilter) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(f.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}

	start, startOK := validator.IsValidDate(f.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
	}
	end, endOK := validator.IsValidDate(f.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
	}

	if len(errs) > 0 {
		return errs
	}

	if start.After(end) {
		return ErrInvalidDateRange
	}
	if end.Sub(start) > 366*24*time.Hour {
		return ErrDateRangeTooLarge
	}
	return nil
}

// ========================================
// RESPONSE DTOs
// ========================================

type EntryResponse struct {
	ID            string             `json:"id"`
	EmployeeID    string             `json:"employee_id"`
	Date          string             `json:"date"`
	Status        Status             `json:"status"`
	ClockIn       *time.Time         `json:"clock_in"`
	ClockOut      *time.Time         `json:"clock_out"`
	TotalHours    decimal.Decimal    `json:"total_hours"`
	OvertimeHours decimal.Decimal    `json:"overtime_hours"`
	LocationIn    *location.Location `json:"location_in"`
	LocationOut   *location.Location `json:"location_out"`
	LastLocation  *location.Location `json:"last_location"`
	LastSeenAt    *time.Time         `json:"last_seen_at"`
	IsInGeofence  bool               `json:"is_in_geofence"`
	IsAutomatic   bool               `json:"is_automatic"`
	IsWeekend     bool               `json:"is_weekend"`
	NeedsApproval bool               `json:"needs_approval"`
	PunchType     PunchType          `json:"punch_type"`
	ZoneID        string             `json:"zone_id,omitempty"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func NewEntryResponse(e Entry) EntryResponse {
	return EntryResponse{
		ID:            e.ID,
		EmployeeID:    e.EmployeeID,
		Date:          e.Date,
		Status:        e.Status,
		ClockIn:       e.ClockIn,
		ClockOut:      e.ClockOut,
		TotalHours:    e.TotalHours,
		OvertimeHours: e.OvertimeHours,
		LocationIn:    e.LocationIn,
		LocationOut:   e.LocationOut,
		LastLocation:  e.LastLocation,
		LastSeenAt:    e.LastSeenAt,
		IsInGeofence:  e.IsInGeofence,
		IsAutomatic:   e.IsAutomatic,
		IsWeekend:     e.IsWeekend,
		NeedsApproval: e.NeedsApproval,
		PunchType:     e.PunchType,
		ZoneID:        e.ZoneID,
		UpdatedAt:     e.UpdatedAt,
	}
}

// PunchResponse is returned by the manual clock-in and clock-out endpoints.
type PunchResponse struct {
	Entry         EntryResponse `json:"entry"`
	Type          PunchType     `json:"type"`
	NeedsApproval bool          `json:"needs_approval"`
	LocationError string        `json:"location_error,omitempty"`
}

type MonitorStatusResponse struct {
	Enabled       bool       `json:"enabled"`
	Running       bool       `json:"running"`
	LastTickAt    *time.Time `json:"last_tick_at"`
	LastError     string     `json:"last_error,omitempty"`
	LastErrorKind string     `json:"last_error_kind,omitempty"`
	Ticks         uint64     `json:"ticks"`
	Skipped       uint64     `json:"skipped"`
	Discarded     uint64     `json:"discarded"`
	Applied       uint64     `json:"applied"`
}

// AttendanceStatusResponse is today's view for one employee.
type AttendanceStatusResponse struct {
	Date        string                `json:"date"`
	Status      Status                `json:"status"`
	Entry       *EntryResponse        `json:"entry"`
	CanClockIn  bool                  `json:"can_clock_in"`
	CanClockOut bool                  `json:"can_clock_out"`
	Monitoring  MonitorStatusResponse `json:"monitoring"`
}

type HoursEntryResponse struct {
	EntryID       string          `json:"entry_id"`
	Date          string          `json:"date"`
	PunchType     PunchType       `json:"punch_type"`
	IsWeekend     bool            `json:"is_weekend"`
	NeedsApproval bool            `json:"needs_approval"`
	TotalHours    decimal.Decimal `json:"total_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
}

// HoursResponse is the payroll-facing export of finalized entries.
type HoursResponse struct {
	EmployeeID         string               `json:"employee_id"`
	StartDate          string               `json:"start_date"`
	EndDate            string               `json:"end_date"`
	Entries            []HoursEntryResponse `json:"entries"`
	TotalHours         decimal.Decimal      `json:"total_hours"`
	TotalOvertimeHours decimal.Decimal      `json:"total_overtime_hours"`
}

// MaxActivityLimit caps activity listings.
const MaxActivityLimit = 1000

// ActivityLimit is the limit an activity listing applies for a requested limit.
// Zero or less lists everything, larger values are capped at MaxActivityLimit.
func ActivityLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	if limit > MaxActivityLimit {
		return MaxActivityLimit
	}
	return limit
}

type ActivityResponse struct {
	ID          string             `json:"id"`
	Kind        ActivityKind       `json:"kind"`
	At          time.Time          `json:"at"`
	Description string             `json:"description"`
	Location    *location.Location `json:"location,omitempty"`
	Payload     Payload            `json:"payload"`
}

func NewActivityResponse(a Activity) ActivityResponse {
	return ActivityResponse{
		ID:          a.ID,
		Kind:        a.Kind(),
		At:          a.At,
		Description: a.Description,
		Location:    a.Location,
		Payload:     a.Payload,
	}
}
