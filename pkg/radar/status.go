package radar

import (
	"context"
	"errors"
	"net"
)

// Status classifies the outcome of every API call into a closed set of
// codes. The string values are wire-stable and shared with the other
// Radar SDKs; do not rename them.
type Status string

const (
	Success            Status = "SUCCESS"
	ErrPublishableKey  Status = "ERROR_PUBLISHABLE_KEY"
	ErrPermissions     Status = "ERROR_PERMISSIONS"
	ErrLocation        Status = "ERROR_LOCATION"
	ErrNetwork         Status = "ERROR_NETWORK"
	ErrBadRequest      Status = "ERROR_BAD_REQUEST"
	ErrUnauthorized    Status = "ERROR_UNAUTHORIZED"
	ErrPaymentRequired Status = "ERROR_PAYMENT_REQUIRED"
	ErrForbidden       Status = "ERROR_FORBIDDEN"
	ErrNotFound        Status = "ERROR_NOT_FOUND"
	ErrRateLimit       Status = "ERROR_RATE_LIMIT"
	ErrServer          Status = "ERROR_SERVER"
	ErrUnknown         Status = "ERROR_UNKNOWN"
)

// Error makes every non-success Status usable as a sentinel error, so
// callers can write errors.Is(err, radar.ErrRateLimit).
func (s Status) Error() string { return string(s) }

// OK reports whether the status is Success.
func (s Status) OK() bool { return s == Success }

// StatusForHTTP maps a numeric HTTP status to the taxonomy. Codes not
// explicitly listed fall through to ErrUnknown.
func StatusForHTTP(code int) Status {
	switch code {
	case 200, 201, 204:
		return Success
	case 400:
		return ErrBadRequest
	case 401:
		return ErrUnauthorized
	case 402:
		return ErrPaymentRequired
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 429:
		return ErrRateLimit
	}
	if code >= 500 && code < 600 {
		return ErrServer
	}
	return ErrUnknown
}

// StatusForTransport maps a transport-level failure (no HTTP response
// was received) to the taxonomy: timeouts are ErrNetwork, everything
// else (connection refused, DNS failure, ...) is ErrServer.
func StatusForTransport(err error) Status {
	if err == nil {
		return Success
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrNetwork
	}
	return ErrServer
}

// StatusOf maps an error back into the taxonomy: nil is Success, a
// Status is itself, anything else is ErrUnknown.
func StatusOf(err error) Status {
	if err == nil {
		return Success
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return ErrUnknown
}
