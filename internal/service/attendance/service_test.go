package attendance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/geofence"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/location"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/schedule"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/validator"
	locationService "github.com/cmlabs-hris/geo-attendance/internal/service/location"
	scheduleService "github.com/cmlabs-hris/geo-attendance/internal/service/schedule"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	*harness
	svc      *AttendanceServiceImpl
	provider *fixedProvider
	devices  *locationService.ReportedDevices
}

func newServiceFixture(ws schedule.WorkSchedule) *serviceFixture {
	h := newHarness()
	provider := &fixedProvider{loc: inZone}
	devices := locationService.NewReportedDevices(100)
	schedules := staticSchedules{schedules: map[string]schedule.WorkSchedule{"emp-1": ws}}
	zones := staticZones{zones: map[string][]geofence.Zone{"emp-1": {hq}}}
	factory := locationService.ProviderFactory(func(string, location.HostContext) location.Provider {
		return provider
	})
	evaluator := scheduleService.NewEvaluator()
	monitors := NewMonitorManager(schedules, zones, factory, MonitorDeps{
		Builder: h.builder, Machine: h.machine, Activities: h.activities, Interval: time.Hour,
	})

	svc := NewAttendanceService(h.entries, h.activities, schedules, zones, devices, factory, evaluator, h.machine, monitors).(*AttendanceServiceImpl)
	svc.now = h.clock.now

	return &serviceFixture{harness: h, svc: svc, provider: provider, devices: devices}
}

func TestService_RemoteManualClockIn(t *testing.T) {
	f := newServiceFixture(officeHours(weekdays()...))
	f.clock.set(at(9, 0, 8))
	f.provider.set(metersNorth(500), nil)

	resp, err := f.svc.ClockIn(context.Background(), attendance.ManualPunchRequest{EmployeeID: "emp-1", Origin: "https://hris.example.com"})

	require.NoError(t, err)
	assert.Equal(t, attendance.PunchTypeRemoteWork, resp.Type)
	assert.True(t, resp.NeedsApproval)
	assert.Empty(t, resp.LocationError)
	assert.Equal(t, attendance.StatusWorking, resp.Entry.Status)
	assert.False(t, resp.Entry.IsAutomatic)

	notes := f.notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, attendance.PunchTypeRemoteWork, notes[0].Type)
}

func TestService_ClockInFailsOpenWithoutLocation(t *testing.T) {
	f := newServiceFixture(officeHours(weekdays()...))
	f.clock.set(at(9, 0, 8))
	f.provider.set(location.Location{}, &location.Error{Kind: location.ErrTimeout})
	ctx := context.Background()

	resp, err := f.svc.ClockIn(ctx, attendance.ManualPunchRequest{EmployeeID: "emp-1"})

	require.NoError(t, err)
	assert.Equal(t, "timeout", resp.LocationError)
	assert.True(t, resp.NeedsApproval)
	assert.Nil(t, resp.Entry.LocationIn)
	assert.False(t, resp.Entry.IsInGeofence)
	assert.False(t, resp.Entry.IsAutomatic)
	assert.Equal(t, []attendance.ActivityKind{attendance.ActivityLocationError, attendance.ActivityClockIn}, f.activities.kinds())

	// A later monitor fix only refreshes the entry.
	f.provider.set(inZone, nil)
	m := newTestMonitor(f.harness, f.provider, officeHours(weekdays()...))
	m.arm(false)
	defer m.Stop()
	f.clock.set(at(10, 0, 8))
	assert.Equal(t, OutcomeApplied, m.Tick(ctx))

	today, err := f.svc.Today(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, today.Entry)
	assert.Equal(t, attendance.StatusWorking, today.Status)
	require.NotNil(t, today.Entry.LastLocation)
	assert.Len(t, f.notifier.all(), 1)
}

func TestService_ManualPunchErrors(t *testing.T) {
	f := newServiceFixture(officeHours(weekdays()...))
	f.clock.set(at(9, 0, 8))
	ctx := context.Background()
	req := attendance.ManualPunchRequest{EmployeeID: "emp-1", Origin: "https://hris.example.com"}

	_, err := f.svc.ClockOut(ctx, req)
	assert.ErrorIs(t, err, attendance.ErrNotClockedIn)

	_, err = f.svc.ClockIn(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.ClockIn(ctx, req)
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedIn)

	f.clock.set(at(17, 0, 8))
	out, err := f.svc.ClockOut(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusClockedOut, out.Entry.Status)
	assert.True(t, out.Entry.TotalHours.Equal(decimal.NewFromInt(8)))

	_, err = f.svc.ClockIn(ctx, req)
	assert.ErrorIs(t, err, attendance.ErrDayClosed)

	_, err = f.svc.ClockOut(ctx, req)
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedOut)

	_, err = f.svc.ClockIn(ctx, attendance.ManualPunchRequest{})
	assert.Error(t, err)
}

func TestService_Today(t *testing.T) {
	f := newServiceFixture(officeHours(weekdays()...))
	f.clock.set(at(7, 0, 8))
	ctx := context.Background()

	today, err := f.svc.Today(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", today.Date)
	assert.Equal(t, attendance.StatusNotClockedIn, today.Status)
	assert.True(t, today.CanClockIn)
	assert.False(t, today.CanClockOut)
	assert.Nil(t, today.Entry)
	assert.False(t, today.Monitoring.Enabled)

	_, err = f.svc.ClockIn(ctx, attendance.ManualPunchRequest{EmployeeID: "emp-1"})
	require.NoError(t, err)

	today, err = f.svc.Today(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusWorking, today.Status)
	assert.False(t, today.CanClockIn)
	assert.True(t, today.CanClockOut)
}

func TestService_Hours(t *testing.T) {
	f := newServiceFixture(officeHours(weekdays()...))
	ctx := context.Background()
	req := attendance.ManualPunchRequest{EmployeeID: "emp-1"}

	for _, day := range []int{8, 9} {
		f.clock.set(at(8, 0, day))
		_, err := f.svc.ClockIn(ctx, req)
		require.NoError(t, err)
		f.clock.set(at(17, 30, day))
		_, err = f.svc.ClockOut(ctx, req)
		require.NoError(t, err)
	}
	f.clock.set(at(8, 0, 10))
	_, err := f.svc.ClockIn(ctx, req)
	require.NoError(t, err)

	resp, err := f.svc.Hours(ctx, attendance.HoursFilter{EmployeeID: "emp-1", StartDate: "2024-01-01", EndDate: "2024-01-31"})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 2)
	assert.True(t, resp.TotalHours.Equal(decimal.NewFromInt(19)), resp.TotalHours.String())
	assert.True(t, resp.TotalOvertimeHours.Equal(decimal.NewFromInt(3)), resp.TotalOvertimeHours.String())

	_, err = f.svc.Hours(ctx, attendance.HoursFilter{EmployeeID: "emp-1", StartDate: "2024-02-01", EndDate: "2024-01-01"})
	assert.ErrorIs(t, err, attendance.ErrInvalidDateRange)
}

func TestService_ReportLocationAndMonitoring(t *testing.T) {
	f := newServiceFixture(officeHours(weekdays()...))
	ctx := context.Background()
	lat, lng := hq.Latitude, hq.Longitude

	err := f.svc.ReportLocation(ctx, attendance.ReportLocationRequest{
		EmployeeID: "emp-1", Latitude: &lat, Longitude: &lng, AccuracyMeters: 8,
	})
	require.NoError(t, err)

	fix, ok := f.devices.LastFix("emp-1")
	require.True(t, ok)
	assert.Equal(t, 8.0, fix.AccuracyMeters)

	bad := 120.0
	err = f.svc.ReportLocation(ctx, attendance.ReportLocationRequest{EmployeeID: "emp-1", Latitude: &bad, Longitude: &lng})
	assert.Error(t, err)

	err = f.svc.ReportLocation(ctx, attendance.ReportLocationRequest{EmployeeID: "emp-1", Permission: "maybe"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "permission", verrs[0].Field)

	err = f.svc.ReportLocation(ctx, attendance.ReportLocationRequest{EmployeeID: "emp-1", Permission: "denied"})
	assert.NoError(t, err)

	status, err := f.svc.EnableMonitoring(ctx, attendance.EnableMonitoringRequest{EmployeeID: "emp-1", Origin: "https://hris.example.com"})
	require.NoError(t, err)
	assert.True(t, status.Enabled)

	status, err = f.svc.MonitoringStatus(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, status.Enabled)

	status, err = f.svc.DisableMonitoring(ctx, "emp-1")
	require.NoError(t, err)
	assert.False(t, status.Enabled)

	_, err = f.svc.DisableMonitoring(ctx, "emp-1")
	assert.ErrorIs(t, err, attendance.ErrMonitoringNotEnabled)
}

func TestService_Activity(t *testing.T) {
	f := newServiceFixture(officeHours(weekdays()...))
	f.clock.set(at(9, 0, 8))
	ctx := context.Background()

	_, err := f.svc.ClockIn(ctx, attendance.ManualPunchRequest{EmployeeID: "emp-1"})
	require.NoError(t, err)

	acts, err := f.svc.Activity(ctx, "emp-1", 0)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, attendance.ActivityClockIn, acts[0].Kind)
	payload, ok := acts[0].Payload.(attendance.ClockInPayload)
	require.True(t, ok)
	assert.Equal(t, attendance.PunchTypeNormal, payload.Type)
	assert.Equal(t, attendance.TriggerManualClockIn, payload.Trigger)
}

func TestService_ActivityLimit(t *testing.T) {
	f := newServiceFixture(officeHours(weekdays()...))
	ctx := context.Background()

	for i := 0; i < attendance.MaxActivityLimit+5; i++ {
		err := f.activities.Record(ctx, attendance.Activity{
			ID:         fmt.Sprintf("act-%d", i),
			EmployeeID: "emp-1",
			At:         at(9, 0, 8).Add(time.Duration(i) * time.Second),
			Payload:    attendance.MonitoringPayload{Enabled: true},
		})
		require.NoError(t, err)
	}

	cases := []struct {
		name  string
		limit int
		want  int
	}{
		{"omitted lists everything", 0, attendance.MaxActivityLimit + 5},
		{"within cap", 300, 300},
		{"at cap", attendance.MaxActivityLimit, attendance.MaxActivityLimit},
		{"above cap", 5000, attendance.MaxActivityLimit},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			acts, err := f.svc.Activity(ctx, "emp-1", c.limit)
			require.NoError(t, err)
			assert.Len(t, acts, c.want)
			assert.Equal(t, fmt.Sprintf("act-%d", attendance.MaxActivityLimit+4), acts[0].ID)
		})
	}
}

func TestService_UnclosedEntryDoesNotBlockNextDay(t *testing.T) {
	f := newServiceFixture(officeHours(weekdays()...))
	ctx := context.Background()
	f.clock.set(at(9, 0, 8))
	f.provider.set(location.Location{}, &location.Error{Kind: location.ErrTimeout})

	_, err := f.svc.ClockIn(ctx, attendance.ManualPunchRequest{EmployeeID: "emp-1"})
	require.NoError(t, err)

	f.clock.set(at(8, 5, 9))
	today, err := f.svc.Today(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-09", today.Date)
	assert.Equal(t, attendance.StatusNotClockedIn, today.Status)
	assert.True(t, today.CanClockIn)

	f.provider.set(inZone, nil)
	resp, err := f.svc.ClockIn(ctx, attendance.ManualPunchRequest{EmployeeID: "emp-1"})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-09", resp.Entry.Date)
}
