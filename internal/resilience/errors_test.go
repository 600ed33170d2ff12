package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

func TestIsTransient_ExplicitTransient(t *testing.T) {
	if !IsTransient(Transient(errors.New("browser busy"))) {
		t.Error("expected marked error to be transient")
	}
}

func TestIsTransient_WrappedTransient(t *testing.T) {
	wrapped := fmt.Errorf("navigate failed: %w", Transient(errors.New("slow page")))
	if !IsTransient(wrapped) {
		t.Error("expected wrapped transient error to stay transient")
	}
}

func TestIsTransient_NilError(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error should not be transient")
	}
}

func TestIsTransient_RegularError(t *testing.T) {
	if IsTransient(errors.New("unknown departure city")) {
		t.Error("logic error should not be transient")
	}
}

func TestIsTransient_Syscall(t *testing.T) {
	for _, err := range []error{
		fmt.Errorf("write tcp: %w", syscall.ECONNRESET),
		fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED),
	} {
		if !IsTransient(err) {
			t.Errorf("expected %v to be transient", err)
		}
	}
}

func TestIsTransient_NetworkTimeout(t *testing.T) {
	err := &net.DNSError{IsTimeout: true, Err: "timeout"}
	if !IsTransient(err) {
		t.Error("network timeout should be transient")
	}
}

func TestIsTransient_StringPatterns(t *testing.T) {
	patterns := []string{
		"page load error net::ERR_CONNECTION_CLOSED",
		"Target closed",
		"websocket: close 1006 (abnormal closure)",
		"connection reset by peer",
		"broken pipe",
		"TLS handshake timeout",
		"i/o timeout",
	}
	for _, p := range patterns {
		if !IsTransient(errors.New(p)) {
			t.Errorf("expected %q to be transient", p)
		}
	}
}

func TestTransient_Unwrap(t *testing.T) {
	inner := errors.New("root cause")
	te := Transient(inner)

	if !errors.Is(te, inner) {
		t.Error("Transient should unwrap to the inner error")
	}
	if te.Error() != "root cause" {
		t.Errorf("expected message %q, got %q", inner.Error(), te.Error())
	}
}

func TestTransient_Nil(t *testing.T) {
	if Transient(nil) != nil {
		t.Error("Transient(nil) should be nil")
	}
}
