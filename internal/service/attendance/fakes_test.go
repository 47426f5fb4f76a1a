package attendance

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/geofence"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/location"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/notification"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/schedule"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/utils"
	scheduleService "github.com/cmlabs-hris/geo-attendance/internal/service/schedule"
)

type memoryEntries struct {
	mu      sync.Mutex
	entries map[string]attendance.Entry
	saves   int
}

func newMemoryEntries() *memoryEntries {
	return &memoryEntries{entries: make(map[string]attendance.Entry)}
}

func (m *memoryEntries) Save(ctx context.Context, entry attendance.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.EmployeeID+"|"+entry.Date] = entry
	m.saves++
	return nil
}

func (m *memoryEntries) Load(ctx context.Context, employeeID, date string) (attendance.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[employeeID+"|"+date]
	if !ok {
		return attendance.Entry{}, attendance.ErrEntryNotFound
	}
	return e, nil
}

func (m *memoryEntries) ListByEmployee(ctx context.Context, employeeID, startDate, endDate string) ([]attendance.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.Entry
	for _, e := range m.entries {
		if e.EmployeeID == employeeID && e.Date >= startDate && e.Date <= endDate {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *memoryEntries) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type memoryActivities struct {
	mu    sync.Mutex
	items []attendance.Activity
}

func (m *memoryActivities) Record(ctx context.Context, a attendance.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, a)
	return nil
}

func (m *memoryActivities) List(ctx context.Context, employeeID string, limit int) ([]attendance.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.Activity
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].EmployeeID == employeeID {
			out = append(out, m.items[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memoryActivities) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

func (m *memoryActivities) kinds() []attendance.ActivityKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]attendance.ActivityKind, len(m.items))
	for i, a := range m.items {
		out[i] = a.Kind()
	}
	return out
}

type memoryNotifier struct {
	mu    sync.Mutex
	items []notification.PunchNotification
}

func (m *memoryNotifier) Publish(ctx context.Context, n notification.PunchNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, n)
	return nil
}

func (m *memoryNotifier) all() []notification.PunchNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification.PunchNotification(nil), m.items...)
}

type staticSchedules struct {
	schedules map[string]schedule.WorkSchedule
}

func (s staticSchedules) GetByEmployeeID(ctx context.Context, employeeID string) (schedule.WorkSchedule, error) {
	ws, ok := s.schedules[employeeID]
	if !ok {
		return schedule.WorkSchedule{}, schedule.ErrWorkScheduleNotFound
	}
	return ws, nil
}

type staticZones struct {
	zones map[string][]geofence.Zone
}

func (s staticZones) ListByEmployeeID(ctx context.Context, employeeID string) ([]geofence.Zone, error) {
	return s.zones[employeeID], nil
}

// providerFunc adapts a function to location.Provider.
type providerFunc func(ctx context.Context) (location.Location, error)

func (f providerFunc) Acquire(ctx context.Context) (location.Location, error) { return f(ctx) }

// fixedProvider returns fixes from a mutable position so tests can move the employee.
type fixedProvider struct {
	mu  sync.Mutex
	loc location.Location
	err error
}

func (p *fixedProvider) set(loc location.Location, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loc, p.err = loc, err
}

func (p *fixedProvider) Acquire(ctx context.Context) (location.Location, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loc, p.err
}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

var (
	hq     = geofence.Zone{ID: "hq", Name: "Head Office", Latitude: -6.2088, Longitude: 106.8456, RadiusMeters: 100}
	hqGeo  = []utils.Zone{hq.ToGeo()}
	inZone = location.Location{Latitude: hq.Latitude, Longitude: hq.Longitude, AccuracyMeters: 10}
)

// metersNorth returns a fix the given distance due north of the head office.
func metersNorth(meters float64) location.Location {
	c := utils.Coordinate{Latitude: hq.Latitude, Longitude: hq.Longitude}
	c.Latitude += meters / utils.EarthRadiusMeters * (180 / math.Pi)
	return location.Location{Latitude: c.Latitude, Longitude: c.Longitude, AccuracyMeters: 10}
}

func officeHours(days ...time.Weekday) schedule.WorkSchedule {
	ws := schedule.WorkSchedule{
		ID:         "ws-office",
		EmployeeID: "emp-1",
		Name:       "Office hours",
		Timezone:   "UTC",
		Days:       map[time.Weekday]schedule.DaySchedule{},
	}
	for _, d := range days {
		ws.Days[d] = schedule.DaySchedule{
			Start:   schedule.MustClockTime("08:00"),
			End:     schedule.MustClockTime("17:00"),
			Enabled: true,
		}
	}
	return ws
}

func weekdays() []time.Weekday {
	return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
}

type harness struct {
	entries    *memoryEntries
	activities *memoryActivities
	notifier   *memoryNotifier
	machine    *Machine
	builder    *ObservationBuilder
	clock      *clock
}

func newHarness() *harness {
	h := &harness{
		entries:    newMemoryEntries(),
		activities: &memoryActivities{},
		notifier:   &memoryNotifier{},
		builder:    NewObservationBuilder(scheduleService.NewEvaluator()),
		clock:      &clock{t: time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC)},
	}
	h.machine = NewMachine(h.entries, h.activities, h.notifier)
	h.machine.now = h.clock.now
	return h
}

// observe builds an observation of a fix at time at.
func (h *harness) observe(ws schedule.WorkSchedule, loc *location.Location, at time.Time) attendance.Observation {
	return h.builder.Build("emp-1", ws, hqGeo, loc, at, nil)
}

func ptr[T any](v T) *T { return &v }
