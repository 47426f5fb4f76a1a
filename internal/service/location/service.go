package location

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/location"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/metrics"
)

// Config holds the two-tier acquisition settings
type Config struct {
	HighAccuracyTimeout time.Duration // default: 20 seconds
	HighAccuracyMaxAge  time.Duration // default: 60 seconds
	LowAccuracyTimeout  time.Duration // default: 25 seconds
	LowAccuracyMaxAge   time.Duration // default: 5 minutes
	DevHosts            []string      // extra hosts treated as local development
}

func (c Config) withDefaults() Config {
	if c.HighAccuracyTimeout == 0 {
		c.HighAccuracyTimeout = 20 * time.Second
	}
	if c.HighAccuracyMaxAge == 0 {
		c.HighAccuracyMaxAge = 60 * time.Second
	}
	if c.LowAccuracyTimeout == 0 {
		c.LowAccuracyTimeout = 25 * time.Second
	}
	if c.LowAccuracyMaxAge == 0 {
		c.LowAccuracyMaxAge = 5 * time.Minute
	}
	return c
}

type tier struct {
	name string
	opts location.PositionOptions
}

// TieredProvider acquires a position with a high-accuracy attempt followed by a
// low-accuracy fallback. Attempts are strictly sequential.
type TieredProvider struct {
	device location.Device
	prober location.PermissionProber
	host   location.HostContext
	config Config
	tiers  []tier
}

// NewTieredProvider creates a provider for one session. prober may be nil.
func NewTieredProvider(device location.Device, prober location.PermissionProber, host location.HostContext, cfg Config) *TieredProvider {
	cfg = cfg.withDefaults()
	return &TieredProvider{
		device: device,
		prober: prober,
		host:   host,
		config: cfg,
		tiers: []tier{
			{
				name: "high",
				opts: location.PositionOptions{HighAccuracy: true, Timeout: cfg.HighAccuracyTimeout, MaximumAge: cfg.HighAccuracyMaxAge},
			},
			{
				name: "low",
				opts: location.PositionOptions{HighAccuracy: false, Timeout: cfg.LowAccuracyTimeout, MaximumAge: cfg.LowAccuracyMaxAge},
			},
		},
	}
}

// Acquire implements location.Provider.
func (p *TieredProvider) Acquire(ctx context.Context) (location.Location, error) {
	if p.device == nil || !p.device.Supported() {
		return location.Location{}, p.fail(&location.Error{Kind: location.ErrUnsupported})
	}

	if !p.host.Secure && !p.host.IsLocalDevelopment(p.config.DevHosts) {
		return location.Location{}, p.fail(&location.Error{Kind: location.ErrInsecureContext})
	}

	if p.prober != nil {
		state, err := p.prober.PermissionState(ctx)
		if err != nil {
			slog.Debug("Permission probe failed, continuing with acquisition", "error", err)
		} else if state == location.PermissionDenied {
			return location.Location{}, p.fail(&location.Error{Kind: location.ErrPermissionDenied})
		}
	}

	var lastErr error
	for _, t := range p.tiers {
		loc, err := p.attempt(ctx, t)
		if err == nil {
			return loc, nil
		}
		lastErr = err
		slog.Debug("Location attempt failed", "tier", t.name, "error", err)
	}

	return location.Location{}, p.fail(location.FromDeviceError(lastErr))
}

func (p *TieredProvider) attempt(ctx context.Context, t tier) (location.Location, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, t.opts.Timeout)
	defer cancel()

	start := time.Now()
	loc, err := p.device.CurrentPosition(attemptCtx, t.opts)
	metrics.LocationAttemptDuration.WithLabelValues(t.name).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.LocationAttempts.WithLabelValues(t.name, "failure").Inc()
		return location.Location{}, err
	}
	metrics.LocationAttempts.WithLabelValues(t.name, "success").Inc()
	return loc, nil
}

func (p *TieredProvider) fail(err *location.Error) error {
	metrics.LocationFailures.WithLabelValues(location.KindOf(err)).Inc()
	return err
}
