package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/location"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/schedule"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/metrics"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/utils"
	"github.com/google/uuid"
)

// DefaultMonitorInterval is the tick period of a monitoring session.
const DefaultMonitorInterval = 30 * time.Second

// TickOutcome is what happened to one monitor tick.
type TickOutcome string

const (
	OutcomeApplied       TickOutcome = "applied"
	OutcomeSkipped       TickOutcome = "skipped"
	OutcomeDiscarded     TickOutcome = "discarded"
	OutcomeLocationError TickOutcome = "location_error"
	OutcomeFailed        TickOutcome = "failed"
	OutcomeStopped       TickOutcome = "stopped"
)

// MonitorStatus is a snapshot of a monitoring session.
type MonitorStatus struct {
	Running       bool
	LastTickAt    *time.Time
	LastError     string
	LastErrorKind string
	Ticks         uint64
	Skipped       uint64
	Discarded     uint64
	Applied       uint64
}

func (s MonitorStatus) toResponse(enabled bool) attendance.MonitorStatusResponse {
	return attendance.MonitorStatusResponse{
		Enabled:       enabled,
		Running:       s.Running,
		LastTickAt:    s.LastTickAt,
		LastError:     s.LastError,
		LastErrorKind: s.LastErrorKind,
		Ticks:         s.Ticks,
		Skipped:       s.Skipped,
		Discarded:     s.Discarded,
		Applied:       s.Applied,
	}
}

// Monitor periodically acquires one employee's position and feeds it to the
// state machine. At most one acquisition is in flight at a time.
type Monitor struct {
	employeeID string
	provider   location.Provider
	builder    *ObservationBuilder
	machine    *Machine
	activities attendance.ActivityRepository
	schedule   schedule.WorkSchedule
	zones      []utils.Zone
	interval   time.Duration
	now        func() time.Time

	// session guards running, generation and the loop channels. Results are
	// applied under the read lock so Stop never races an in-progress apply.
	session    sync.RWMutex
	running    bool
	generation uint64
	stopCh     chan struct{}
	loopDone   chan struct{}

	inFlight atomic.Bool

	diag          sync.Mutex
	lastTickAt    *time.Time
	lastError     string
	lastErrorKind string

	ticks     atomic.Uint64
	skipped   atomic.Uint64
	discarded atomic.Uint64
	applied   atomic.Uint64
}

// MonitorDeps are the collaborators shared by every monitor.
type MonitorDeps struct {
	Builder    *ObservationBuilder
	Machine    *Machine
	Activities attendance.ActivityRepository
	Interval   time.Duration
}

// NewMonitor creates a stopped monitor over an immutable schedule and zone snapshot.
func NewMonitor(employeeID string, provider location.Provider, sched schedule.WorkSchedule, zones []utils.Zone, deps MonitorDeps) *Monitor {
	interval := deps.Interval
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	snapshot := make([]utils.Zone, len(zones))
	copy(snapshot, zones)

	return &Monitor{
		employeeID: employeeID,
		provider:   provider,
		builder:    deps.Builder,
		machine:    deps.Machine,
		activities: deps.Activities,
		schedule:   sched,
		zones:      snapshot,
		interval:   interval,
		now:        time.Now,
	}
}

// Start begins ticking immediately and then every interval. Starting a running
// monitor does nothing.
func (m *Monitor) Start() {
	stopCh, done, gen, ok := m.arm(true)
	if !ok {
		return
	}
	go m.loop(gen, stopCh, done)
}

// arm opens a new session. Without withLoop no ticker runs and ticks only happen
// through Tick.
func (m *Monitor) arm(withLoop bool) (chan struct{}, chan struct{}, uint64, bool) {
	m.session.Lock()
	defer m.session.Unlock()

	if m.running {
		return nil, nil, 0, false
	}
	m.running = true
	m.generation++
	m.stopCh = make(chan struct{})
	m.loopDone = nil
	if withLoop {
		m.loopDone = make(chan struct{})
	}
	return m.stopCh, m.loopDone, m.generation, true
}

func (m *Monitor) loop(gen uint64, stopCh, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.dispatch(gen)
	for {
		select {
		case <-ticker.C:
			m.dispatch(gen)
		case <-stopCh:
			return
		}
	}
}

// dispatch runs a tick in its own goroutine so a slow device never delays the ticker.
func (m *Monitor) dispatch(gen uint64) {
	if !m.inFlight.CompareAndSwap(false, true) {
		m.skip()
		return
	}
	go func() {
		defer m.inFlight.Store(false)
		m.run(context.Background(), gen)
	}()
}

// Stop ends the session. An acquisition still in flight is not cancelled, but its
// result is discarded when it arrives.
func (m *Monitor) Stop() {
	m.session.Lock()
	if !m.running {
		m.session.Unlock()
		return
	}
	m.running = false
	m.generation++
	close(m.stopCh)
	done := m.loopDone
	m.session.Unlock()

	if done != nil {
		<-done
	}
}

// Tick runs one tick synchronously in the current session.
func (m *Monitor) Tick(ctx context.Context) TickOutcome {
	m.session.RLock()
	running, gen := m.running, m.generation
	m.session.RUnlock()
	if !running {
		return OutcomeStopped
	}

	if !m.inFlight.CompareAndSwap(false, true) {
		m.skip()
		return OutcomeSkipped
	}
	defer m.inFlight.Store(false)
	return m.run(ctx, gen)
}

func (m *Monitor) skip() {
	m.skipped.Add(1)
	metrics.MonitorTicks.WithLabelValues(string(OutcomeSkipped)).Inc()
	slog.Debug("Monitor tick skipped, acquisition in flight", "employee_id", m.employeeID)
}

func (m *Monitor) run(ctx context.Context, gen uint64) TickOutcome {
	m.ticks.Add(1)

	loc, err := m.provider.Acquire(ctx)

	m.session.RLock()
	defer m.session.RUnlock()

	if !m.running || m.generation != gen {
		m.discarded.Add(1)
		metrics.MonitorTicks.WithLabelValues(string(OutcomeDiscarded)).Inc()
		slog.Debug("Discarding location result of a stopped session", "employee_id", m.employeeID)
		return OutcomeDiscarded
	}

	outcome := m.handle(ctx, loc, err)
	metrics.MonitorTicks.WithLabelValues(string(outcome)).Inc()
	return outcome
}

func (m *Monitor) handle(ctx context.Context, loc location.Location, acquireErr error) TickOutcome {
	at := m.now()

	m.diag.Lock()
	m.lastTickAt = &at
	if acquireErr != nil {
		m.lastError = acquireErr.Error()
		m.lastErrorKind = location.KindOf(acquireErr)
	} else {
		m.lastError = ""
		m.lastErrorKind = ""
	}
	m.diag.Unlock()

	if acquireErr != nil {
		slog.Warn("Monitor could not acquire location",
			"employee_id", m.employeeID,
			"kind", location.KindOf(acquireErr),
			"error", acquireErr,
		)
		recordLocationError(ctx, m.activities, m.employeeID, at, acquireErr, attendance.TriggerAutomatic)
		return OutcomeLocationError
	}

	obs := m.builder.Build(m.employeeID, m.schedule, m.zones, &loc, at, nil)
	if _, err := m.machine.Apply(ctx, obs, attendance.TriggerAutomatic); err != nil {
		slog.Error("Monitor failed to apply observation", "employee_id", m.employeeID, "error", err)
		return OutcomeFailed
	}

	m.applied.Add(1)
	return OutcomeApplied
}

// Status returns a snapshot of the session diagnostics.
func (m *Monitor) Status() MonitorStatus {
	m.session.RLock()
	running := m.running
	m.session.RUnlock()

	m.diag.Lock()
	defer m.diag.Unlock()

	return MonitorStatus{
		Running:       running,
		LastTickAt:    m.lastTickAt,
		LastError:     m.lastError,
		LastErrorKind: m.lastErrorKind,
		Ticks:         m.ticks.Load(),
		Skipped:       m.skipped.Load(),
		Discarded:     m.discarded.Load(),
		Applied:       m.applied.Load(),
	}
}

// recordLocationError logs a failed acquisition to the activity log.
func recordLocationError(ctx context.Context, activities attendance.ActivityRepository, employeeID string, at time.Time, acquireErr error, trigger attendance.Trigger) {
	kind := location.KindOf(acquireErr)
	err := activities.Record(ctx, attendance.Activity{
		ID:          uuid.Must(uuid.NewV7()).String(),
		EmployeeID:  employeeID,
		At:          at,
		Description: fmt.Sprintf("Location unavailable (%s)", kind),
		Payload: attendance.LocationErrorPayload{
			ErrorKind: kind,
			Message:   acquireErr.Error(),
			Trigger:   trigger,
		},
	})
	if err != nil {
		slog.Error("Failed to record location error activity", "employee_id", employeeID, "error", err)
	}
}
