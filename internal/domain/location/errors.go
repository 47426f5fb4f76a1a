package location

import (
	"context"
	"errors"
	"fmt"
)

// Location domain errors
var (
	ErrUnsupported         = errors.New("geolocation is not supported by this device")
	ErrInsecureContext     = errors.New("geolocation requires a secure (https) context")
	ErrPermissionDenied    = errors.New("geolocation permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrTimeout             = errors.New("timed out acquiring position")
)

// PositionErrorCode follows the geolocation API error codes.
type PositionErrorCode int

const (
	CodePermissionDenied    PositionErrorCode = 1
	CodePositionUnavailable PositionErrorCode = 2
	CodeTimeout             PositionErrorCode = 3
)

// PositionError is a failure reported by a Device.
type PositionError struct {
	Code    PositionErrorCode
	Message string
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("position error %d: %s", e.Code, e.Message)
}

// Error is returned by a Provider. Kind is always one of the sentinel errors above.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FromDeviceError maps a device failure onto the provider error taxonomy.
func FromDeviceError(err error) *Error {
	var posErr *PositionError
	switch {
	case errors.As(err, &posErr):
		switch posErr.Code {
		case CodePermissionDenied:
			return &Error{Kind: ErrPermissionDenied, Err: err}
		case CodeTimeout:
			return &Error{Kind: ErrTimeout, Err: err}
		default:
			return &Error{Kind: ErrPositionUnavailable, Err: err}
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: ErrTimeout, Err: err}
	default:
		return &Error{Kind: ErrPositionUnavailable, Err: err}
	}
}

// KindOf returns a stable name for the error kind, used in logs, metrics and diagnostics.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, ErrInsecureContext):
		return "insecure_context"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrPositionUnavailable):
		return "position_unavailable"
	default:
		return "unknown"
	}
}
