package location

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/location"
)

// Report is what an employee's client pushes to the server. Zero-valued fields leave
// the corresponding device state unchanged.
type Report struct {
	Location     *location.Location
	Supported    *bool
	Permission   location.PermissionState
	ErrorCode    location.PositionErrorCode
	ErrorMessage string
}

type deviceState struct {
	supported  bool
	permission location.PermissionState
	fix        *location.Location
	lastErr    *location.PositionError
	updated    chan struct{}
}

// ReportedDevices serves position requests from fixes reported by clients.
// A request that cannot be answered from the current fix waits for the next report.
type ReportedDevices struct {
	mu                 sync.Mutex
	devices            map[string]*deviceState
	highAccuracyMeters float64
	now                func() time.Time
}

// NewReportedDevices creates the registry. Fixes coarser than highAccuracyMeters do not
// satisfy high-accuracy requests; zero disables that check.
func NewReportedDevices(highAccuracyMeters float64) *ReportedDevices {
	return &ReportedDevices{
		devices:            make(map[string]*deviceState),
		highAccuracyMeters: highAccuracyMeters,
		now:                time.Now,
	}
}

func (r *ReportedDevices) state(employeeID string) *deviceState {
	st, ok := r.devices[employeeID]
	if !ok {
		st = &deviceState{
			supported:  true,
			permission: location.PermissionUnknown,
			updated:    make(chan struct{}),
		}
		r.devices[employeeID] = st
	}
	return st
}

// Report applies a client report and wakes every pending request of that employee.
func (r *ReportedDevices) Report(employeeID string, report Report) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state(employeeID)
	if report.Supported != nil {
		st.supported = *report.Supported
	}
	if report.Permission != "" {
		st.permission = report.Permission
	}
	if report.Location != nil {
		fix := *report.Location
		if fix.CapturedAt.IsZero() {
			fix.CapturedAt = r.now()
		}
		st.fix = &fix
		st.lastErr = nil
		if st.permission != location.PermissionDenied {
			st.permission = location.PermissionGranted
		}
	}
	if report.ErrorCode != 0 {
		st.lastErr = &location.PositionError{Code: report.ErrorCode, Message: report.ErrorMessage}
	}

	close(st.updated)
	st.updated = make(chan struct{})
}

// LastFix returns the most recent fix of an employee, if any.
func (r *ReportedDevices) LastFix(employeeID string) (location.Location, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.devices[employeeID]
	if !ok || st.fix == nil {
		return location.Location{}, false
	}
	return *st.fix, true
}

// Device returns the device handle of one employee. The handle also probes permission.
func (r *ReportedDevices) Device(employeeID string) *ReportedDevice {
	return &ReportedDevice{registry: r, employeeID: employeeID}
}

// ReportedDevice implements location.Device and location.PermissionProber.
type ReportedDevice struct {
	registry   *ReportedDevices
	employeeID string
}

func (d *ReportedDevice) Supported() bool {
	d.registry.mu.Lock()
	defer d.registry.mu.Unlock()
	return d.registry.state(d.employeeID).supported
}

func (d *ReportedDevice) PermissionState(ctx context.Context) (location.PermissionState, error) {
	d.registry.mu.Lock()
	defer d.registry.mu.Unlock()
	return d.registry.state(d.employeeID).permission, nil
}

func (d *ReportedDevice) CurrentPosition(ctx context.Context, opts location.PositionOptions) (location.Location, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	r := d.registry
	requestedAt := r.now()

	for {
		r.mu.Lock()
		st := r.state(d.employeeID)

		if st.permission == location.PermissionDenied {
			r.mu.Unlock()
			return location.Location{}, &location.PositionError{Code: location.CodePermissionDenied, Message: "permission denied by user"}
		}
		if st.fix != nil && r.acceptable(*st.fix, opts, requestedAt) {
			fix := *st.fix
			r.mu.Unlock()
			return fix, nil
		}
		if st.lastErr != nil {
			posErr := *st.lastErr
			r.mu.Unlock()
			return location.Location{}, &posErr
		}
		wait := st.updated
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return location.Location{}, &location.PositionError{Code: location.CodeTimeout, Message: "no qualifying position before timeout"}
		case <-wait:
		}
	}
}

func (r *ReportedDevices) acceptable(fix location.Location, opts location.PositionOptions, requestedAt time.Time) bool {
	if opts.HighAccuracy && r.highAccuracyMeters > 0 && fix.AccuracyMeters > r.highAccuracyMeters {
		return false
	}
	if !fix.CapturedAt.Before(requestedAt) {
		return true
	}
	return r.now().Sub(fix.CapturedAt) <= opts.MaximumAge
}

// ProviderFactory builds the location provider of one employee session.
type ProviderFactory func(employeeID string, host location.HostContext) location.Provider

// ReportedProviderFactory builds tiered providers over the reported devices. Each
// device also serves as the permission prober of its provider.
func ReportedProviderFactory(devices *ReportedDevices, cfg Config) ProviderFactory {
	return func(employeeID string, host location.HostContext) location.Provider {
		device := devices.Device(employeeID)
		return NewTieredProvider(device, device, host, cfg)
	}
}
