package radar

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestStatusForHTTPMapping(t *testing.T) {
	cases := []struct {
		code int
		want Status
	}{
		{200, Success},
		{201, Success},
		{204, Success},
		{400, ErrBadRequest},
		{401, ErrUnauthorized},
		{402, ErrPaymentRequired},
		{403, ErrForbidden},
		{404, ErrNotFound},
		{429, ErrRateLimit},
		{500, ErrServer},
		{502, ErrServer},
		{503, ErrServer},
		{599, ErrServer},
		{302, ErrUnknown},
		{418, ErrUnknown},
	}
	for _, tc := range cases {
		if got := StatusForHTTP(tc.code); got != tc.want {
			t.Fatalf("StatusForHTTP(%d) = %s, want %s", tc.code, got, tc.want)
		}
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestStatusForTransport(t *testing.T) {
	if got := StatusForTransport(context.DeadlineExceeded); got != ErrNetwork {
		t.Fatalf("deadline exceeded = %s, want %s", got, ErrNetwork)
	}
	if got := StatusForTransport(fmt.Errorf("dial: %w", timeoutError{})); got != ErrNetwork {
		t.Fatalf("net timeout = %s, want %s", got, ErrNetwork)
	}
	if got := StatusForTransport(errors.New("connection refused")); got != ErrServer {
		t.Fatalf("generic transport error = %s, want %s", got, ErrServer)
	}
}

func TestStatusIsSentinelError(t *testing.T) {
	var err error = ErrRateLimit
	if !errors.Is(err, ErrRateLimit) {
		t.Fatalf("errors.Is should match the same status")
	}
	if errors.Is(err, ErrServer) {
		t.Fatalf("errors.Is should not match a different status")
	}

	wrapped := fmt.Errorf("search: %w", ErrForbidden)
	if StatusOf(wrapped) != ErrForbidden {
		t.Fatalf("StatusOf(wrapped) = %s, want %s", StatusOf(wrapped), ErrForbidden)
	}
	if StatusOf(nil) != Success {
		t.Fatalf("StatusOf(nil) = %s, want %s", StatusOf(nil), Success)
	}
	if StatusOf(errors.New("boom")) != ErrUnknown {
		t.Fatalf("StatusOf(foreign error) = %s, want %s", StatusOf(errors.New("boom")), ErrUnknown)
	}
}
