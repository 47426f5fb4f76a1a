package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/geofence"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/location"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/schedule"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/utils"
	locationService "github.com/cmlabs-hris/geo-attendance/internal/service/location"
	scheduleService "github.com/cmlabs-hris/geo-attendance/internal/service/schedule"
	"github.com/shopspring/decimal"
)

type AttendanceServiceImpl struct {
	attendance.EntryRepository
	attendance.ActivityRepository
	schedule.WorkScheduleRepository
	geofence.ZoneRepository

	devices   *locationService.ReportedDevices
	providers locationService.ProviderFactory
	evaluator *scheduleService.Evaluator
	builder   *ObservationBuilder
	machine   *Machine
	monitors  *MonitorManager
	now       func() time.Time
}

// ReportLocation implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ReportLocation(ctx context.Context, req attendance.ReportLocationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	a.devices.Report(req.EmployeeID, locationService.Report{
		Location:     req.ToLocation(),
		Supported:    req.Supported,
		Permission:   location.PermissionState(req.Permission),
		ErrorCode:    location.PositionErrorCode(req.ErrorCode),
		ErrorMessage: req.ErrorMessage,
	})
	return nil
}

// EnableMonitoring implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) EnableMonitoring(ctx context.Context, req attendance.EnableMonitoringRequest) (attendance.MonitorStatusResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.MonitorStatusResponse{}, err
	}

	status, err := a.monitors.Enable(ctx, req.EmployeeID, location.ParseOrigin(req.Origin))
	if err != nil {
		return attendance.MonitorStatusResponse{}, err
	}
	return status.toResponse(true), nil
}

// DisableMonitoring implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) DisableMonitoring(ctx context.Context, employeeID string) (attendance.MonitorStatusResponse, error) {
	status, err := a.monitors.Disable(ctx, employeeID)
	if err != nil {
		return attendance.MonitorStatusResponse{}, err
	}
	return status.toResponse(false), nil
}

// MonitoringStatus implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) MonitoringStatus(ctx context.Context, employeeID string) (attendance.MonitorStatusResponse, error) {
	status, ok := a.monitors.Status(employeeID)
	return status.toResponse(ok), nil
}

// ClockIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockIn(ctx context.Context, req attendance.ManualPunchRequest) (attendance.PunchResponse, error) {
	return a.punch(ctx, req, attendance.TriggerManualClockIn)
}

// ClockOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockOut(ctx context.Context, req attendance.ManualPunchRequest) (attendance.PunchResponse, error) {
	return a.punch(ctx, req, attendance.TriggerManualClockOut)
}

// punch runs a manual clock-in or clock-out. Location failures do not block the
// punch; it is recorded outside every zone and needs approval.
func (a *AttendanceServiceImpl) punch(ctx context.Context, req attendance.ManualPunchRequest, trigger attendance.Trigger) (attendance.PunchResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.PunchResponse{}, err
	}

	sched, zones, err := a.policyContext(ctx, req.EmployeeID)
	if err != nil {
		return attendance.PunchResponse{}, err
	}

	// Reject punches that cannot succeed before waiting on the device.
	if err := a.precheck(ctx, req.EmployeeID, sched, a.now(), trigger); err != nil {
		return attendance.PunchResponse{}, err
	}

	loc, acquireErr := a.providers(req.EmployeeID, location.ParseOrigin(req.Origin)).Acquire(ctx)
	at := a.now()

	var obs attendance.Observation
	if acquireErr != nil {
		slog.Warn("Manual punch without location",
			"employee_id", req.EmployeeID,
			"trigger", trigger,
			"kind", location.KindOf(acquireErr),
			"error", acquireErr,
		)
		recordLocationError(ctx, a.ActivityRepository, req.EmployeeID, at, acquireErr, trigger)
		obs = a.builder.Build(req.EmployeeID, sched, zones, nil, at, acquireErr)
	} else {
		obs = a.builder.Build(req.EmployeeID, sched, zones, &loc, at, nil)
	}

	t, err := a.machine.Apply(ctx, obs, trigger)
	if err != nil {
		return attendance.PunchResponse{}, err
	}

	return attendance.PunchResponse{
		Entry:         attendance.NewEntryResponse(*t.Entry),
		Type:          t.Classification.Type,
		NeedsApproval: t.Classification.NeedsApproval,
		LocationError: location.KindOf(acquireErr),
	}, nil
}

func (a *AttendanceServiceImpl) precheck(ctx context.Context, employeeID string, sched schedule.WorkSchedule, now time.Time, trigger attendance.Trigger) error {
	entry, err := a.machine.Current(ctx, employeeID, a.evaluator.LocalDate(sched, now), a.evaluator.ContinuesPreviousShift(sched, now))
	if err != nil {
		return err
	}

	status := attendance.StatusNotClockedIn
	if entry != nil {
		status = entry.Status
	}

	switch {
	case trigger == attendance.TriggerManualClockIn && status == attendance.StatusWorking:
		return attendance.ErrAlreadyClockedIn
	case trigger == attendance.TriggerManualClockIn && status == attendance.StatusClockedOut:
		return attendance.ErrDayClosed
	case trigger == attendance.TriggerManualClockOut && status == attendance.StatusNotClockedIn:
		return attendance.ErrNotClockedIn
	case trigger == attendance.TriggerManualClockOut && status == attendance.StatusClockedOut:
		return attendance.ErrAlreadyClockedOut
	}
	return nil
}

// policyContext loads the schedule and zones a manual punch is classified against.
// Missing configuration classifies the punch as out of hours and remote.
func (a *AttendanceServiceImpl) policyContext(ctx context.Context, employeeID string) (schedule.WorkSchedule, []utils.Zone, error) {
	sched, err := a.WorkScheduleRepository.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		if !errors.Is(err, schedule.ErrWorkScheduleNotFound) {
			return schedule.WorkSchedule{}, nil, fmt.Errorf("failed to load work schedule: %w", err)
		}
		slog.Warn("No work schedule assigned, punch will be out of hours", "employee_id", employeeID)
		sched = schedule.WorkSchedule{EmployeeID: employeeID}
	}

	zones, err := a.ZoneRepository.ListByEmployeeID(ctx, employeeID)
	if err != nil {
		return schedule.WorkSchedule{}, nil, fmt.Errorf("failed to load geofence zones: %w", err)
	}
	return sched, geofence.ToGeoZones(zones), nil
}

// Today implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Today(ctx context.Context, employeeID string) (attendance.AttendanceStatusResponse, error) {
	sched, err := a.WorkScheduleRepository.GetByEmployeeID(ctx, employeeID)
	if err != nil && !errors.Is(err, schedule.ErrWorkScheduleNotFound) {
		return attendance.AttendanceStatusResponse{}, fmt.Errorf("failed to load work schedule: %w", err)
	}
	now := a.now()
	date := a.evaluator.LocalDate(sched, now)

	entry, err := a.machine.Current(ctx, employeeID, date, a.evaluator.ContinuesPreviousShift(sched, now))
	if err != nil {
		return attendance.AttendanceStatusResponse{}, err
	}

	monitor, enabled := a.monitors.Status(employeeID)
	resp := attendance.AttendanceStatusResponse{
		Date:       date,
		Status:     attendance.StatusNotClockedIn,
		CanClockIn: true,
		Monitoring: monitor.toResponse(enabled),
	}
	if entry != nil {
		e := attendance.NewEntryResponse(*entry)
		resp.Entry = &e
		resp.Status = entry.Status
		resp.CanClockIn = false
		resp.CanClockOut = entry.Status == attendance.StatusWorking
	}
	return resp, nil
}

// Hours implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Hours(ctx context.Context, filter attendance.HoursFilter) (attendance.HoursResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.HoursResponse{}, err
	}

	entries, err := a.EntryRepository.ListByEmployee(ctx, filter.EmployeeID, filter.StartDate, filter.EndDate)
	if err != nil {
		return attendance.HoursResponse{}, fmt.Errorf("failed to list entries: %w", err)
	}

	resp := attendance.HoursResponse{
		EmployeeID:         filter.EmployeeID,
		StartDate:          filter.StartDate,
		EndDate:            filter.EndDate,
		Entries:            []attendance.HoursEntryResponse{},
		TotalHours:         decimal.Zero,
		TotalOvertimeHours: decimal.Zero,
	}
	for _, e := range entries {
		if e.Status != attendance.StatusClockedOut {
			continue
		}
		resp.Entries = append(resp.Entries, attendance.HoursEntryResponse{
			EntryID:       e.ID,
			Date:          e.Date,
			PunchType:     e.PunchType,
			IsWeekend:     e.IsWeekend,
			NeedsApproval: e.NeedsApproval,
			TotalHours:    e.TotalHours,
			OvertimeHours: e.OvertimeHours,
		})
		resp.TotalHours = resp.TotalHours.Add(e.TotalHours)
		resp.TotalOvertimeHours = resp.TotalOvertimeHours.Add(e.OvertimeHours)
	}
	return resp, nil
}

// Activity implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Activity(ctx context.Context, employeeID string, limit int) ([]attendance.ActivityResponse, error) {
	activities, err := a.ActivityRepository.List(ctx, employeeID, attendance.ActivityLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}

	responses := make([]attendance.ActivityResponse, len(activities))
	for i, act := range activities {
		responses[i] = attendance.NewActivityResponse(act)
	}
	return responses, nil
}

func NewAttendanceService(
	entryRepo attendance.EntryRepository,
	activityRepo attendance.ActivityRepository,
	workScheduleRepo schedule.WorkScheduleRepository,
	zoneRepo geofence.ZoneRepository,
	devices *locationService.ReportedDevices,
	providers locationService.ProviderFactory,
	evaluator *scheduleService.Evaluator,
	machine *Machine,
	monitors *MonitorManager,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		EntryRepository:        entryRepo,
		ActivityRepository:     activityRepo,
		WorkScheduleRepository: workScheduleRepo,
		ZoneRepository:         zoneRepo,
		devices:                devices,
		providers:              providers,
		evaluator:              evaluator,
		builder:                NewObservationBuilder(evaluator),
		machine:                machine,
		monitors:               monitors,
		now:                    time.Now,
	}
}
