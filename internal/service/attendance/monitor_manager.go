package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/geofence"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/location"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/schedule"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/metrics"
	locationService "github.com/cmlabs-hris/geo-attendance/internal/service/location"
	"github.com/google/uuid"
)

// MonitorManager owns the monitoring sessions of all employees.
type MonitorManager struct {
	schedules  schedule.WorkScheduleRepository
	zones      geofence.ZoneRepository
	providers  locationService.ProviderFactory
	deps       MonitorDeps
	activities attendance.ActivityRepository

	mu       sync.Mutex
	monitors map[string]*Monitor
}

func NewMonitorManager(
	schedules schedule.WorkScheduleRepository,
	zones geofence.ZoneRepository,
	providers locationService.ProviderFactory,
	deps MonitorDeps,
) *MonitorManager {
	return &MonitorManager{
		schedules:  schedules,
		zones:      zones,
		providers:  providers,
		deps:       deps,
		activities: deps.Activities,
		monitors:   make(map[string]*Monitor),
	}
}

// Enable snapshots the employee's schedule and zones and starts a monitor.
// Enabling an already monitored employee returns the running session's status.
func (mm *MonitorManager) Enable(ctx context.Context, employeeID string, host location.HostContext) (MonitorStatus, error) {
	mm.mu.Lock()
	if m, ok := mm.monitors[employeeID]; ok {
		mm.mu.Unlock()
		return m.Status(), nil
	}
	mm.mu.Unlock()

	sched, err := mm.schedules.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return MonitorStatus{}, fmt.Errorf("failed to load work schedule: %w", err)
	}

	zones, err := mm.zones.ListByEmployeeID(ctx, employeeID)
	if err != nil {
		return MonitorStatus{}, fmt.Errorf("failed to load geofence zones: %w", err)
	}
	if len(zones) == 0 {
		return MonitorStatus{}, geofence.ErrNoZonesConfigured
	}

	m := NewMonitor(employeeID, mm.providers(employeeID, host), sched, geofence.ToGeoZones(zones), mm.deps)

	mm.mu.Lock()
	if existing, ok := mm.monitors[employeeID]; ok {
		mm.mu.Unlock()
		return existing.Status(), nil
	}
	mm.monitors[employeeID] = m
	mm.mu.Unlock()

	m.Start()
	metrics.ActiveMonitors.Inc()

	slog.Info("Location monitoring enabled",
		"employee_id", employeeID,
		"host", host.Hostname,
		"zones", len(zones),
		"schedule_id", sched.ID,
	)
	mm.recordMonitoring(ctx, employeeID, attendance.MonitoringPayload{
		Enabled:   true,
		Hostname:  host.Hostname,
		ZoneCount: len(zones),
	})

	return m.Status(), nil
}

// Disable stops the employee's monitor and returns its final status.
func (mm *MonitorManager) Disable(ctx context.Context, employeeID string) (MonitorStatus, error) {
	mm.mu.Lock()
	m, ok := mm.monitors[employeeID]
	if ok {
		delete(mm.monitors, employeeID)
	}
	mm.mu.Unlock()

	if !ok {
		return MonitorStatus{}, attendance.ErrMonitoringNotEnabled
	}

	m.Stop()
	metrics.ActiveMonitors.Dec()

	slog.Info("Location monitoring disabled", "employee_id", employeeID)
	mm.recordMonitoring(ctx, employeeID, attendance.MonitoringPayload{Enabled: false})

	return m.Status(), nil
}

// Status reports the employee's session; ok is false when monitoring is off.
func (mm *MonitorManager) Status(employeeID string) (MonitorStatus, bool) {
	mm.mu.Lock()
	m, ok := mm.monitors[employeeID]
	mm.mu.Unlock()

	if !ok {
		return MonitorStatus{}, false
	}
	return m.Status(), true
}

// Active returns the number of monitored employees.
func (mm *MonitorManager) Active() int {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return len(mm.monitors)
}

// StopAll stops every session, used on shutdown.
func (mm *MonitorManager) StopAll() {
	mm.mu.Lock()
	monitors := mm.monitors
	mm.monitors = make(map[string]*Monitor)
	mm.mu.Unlock()

	for _, m := range monitors {
		m.Stop()
		metrics.ActiveMonitors.Dec()
	}
	slog.Info("All monitoring sessions stopped", "count", len(monitors))
}

func (mm *MonitorManager) recordMonitoring(ctx context.Context, employeeID string, payload attendance.MonitoringPayload) {
	description := "Location monitoring disabled"
	if payload.Enabled {
		description = "Location monitoring enabled"
	}

	err := mm.activities.Record(ctx, attendance.Activity{
		ID:          uuid.Must(uuid.NewV7()).String(),
		EmployeeID:  employeeID,
		At:          time.Now(),
		Description: description,
		Payload:     payload,
	})
	if err != nil {
		slog.Error("Failed to record monitoring activity", "employee_id", employeeID, "error", err)
	}
}
