package location

import (
	"context"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/pkg/utils"
)

// Location is a single device position fix.
type Location struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy_meters"`
	CapturedAt     time.Time `json:"captured_at"`
}

func (l Location) Coordinate() utils.Coordinate {
	return utils.Coordinate{Latitude: l.Latitude, Longitude: l.Longitude}
}

// PositionOptions mirrors the options accepted by a geolocation device.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// Device is the positioning hardware of one employee session.
type Device interface {
	Supported() bool
	CurrentPosition(ctx context.Context, opts PositionOptions) (Location, error)
}

type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
	PermissionUnknown PermissionState = "unknown"
)

// PermissionStates lists the states a client may report.
func PermissionStates() []string {
	return []string{
		string(PermissionGranted),
		string(PermissionDenied),
		string(PermissionPrompt),
		string(PermissionUnknown),
	}
}

// PermissionProber is an optional fast-fail check before acquisition.
type PermissionProber interface {
	PermissionState(ctx context.Context) (PermissionState, error)
}

// Provider acquires one position for a session.
type Provider interface {
	Acquire(ctx context.Context) (Location, error)
}

// HostContext describes where the session's client is running.
type HostContext struct {
	Secure   bool
	Hostname string
}

// ParseOrigin builds a HostContext from an origin such as "https://hris.example.com".
func ParseOrigin(origin string) HostContext {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Host == "" {
		return HostContext{}
	}
	return HostContext{
		Secure:   strings.EqualFold(u.Scheme, "https"),
		Hostname: strings.ToLower(u.Hostname()),
	}
}

// IsLocalDevelopment reports whether the host is a loopback or local-development address.
func (h HostContext) IsLocalDevelopment(extraHosts []string) bool {
	host := strings.ToLower(strings.Trim(h.Hostname, "[]"))
	if host == "" {
		return false
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || host == "0.0.0.0" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return true
	}
	for _, extra := range extraHosts {
		if strings.EqualFold(strings.TrimSpace(extra), host) {
			return true
		}
	}
	return false
}
