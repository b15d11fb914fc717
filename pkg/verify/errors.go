package verify

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// Kind classifies why a session ended. The kind decides what the
// verdict sink does with the address: protocol, flood, and challenge
// failures blacklist; transport failures close silently.
type Kind int

// Failure kinds.
const (
	// KindProtocol is an illegal, out-of-order, or duplicate packet,
	// or a bad field value.
	KindProtocol Kind = iota

	// KindFlood is the per-session packet ceiling being exceeded.
	KindFlood

	// KindChallenge is a wrong keep-alive nonce, teleport ID, or fall
	// trajectory.
	KindChallenge

	// KindTransport is an ordinary peer disconnect or reset. Benign:
	// no blacklist entry is written.
	KindTransport

	// KindConfig is an invalid engine configuration. Startup-fatal,
	// never produced per-connection.
	KindConfig
)

var kindNames = [...]string{
	KindProtocol:  "protocol",
	KindFlood:     "flood",
	KindChallenge: "challenge",
	KindTransport: "transport",
	KindConfig:    "config",
}

// String returns the metric label for the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// FailError is a terminal session verdict. Reason is a short operator
// facing phrase; it ends up in logs and, for blacklisting kinds, as
// the blacklist entry's value.
type FailError struct {
	Kind   Kind
	Reason string
}

// Error implements error.
func (e *FailError) Error() string {
	return "verify: " + e.Reason
}

// Benign reports whether the failure closes without blacklisting.
func (e *FailError) Benign() bool {
	return e.Kind == KindTransport
}

func fail(kind Kind, reason string) *FailError {
	return &FailError{Kind: kind, Reason: reason}
}

func failf(kind Kind, format string, args ...interface{}) *FailError {
	return &FailError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Classify converts an arbitrary connection error into a verdict.
// Ordinary disconnects (EOF, reset, closed socket) are benign; anything
// else that bubbles out of frame handling is treated as protocol abuse,
// since a well-behaved client either speaks correctly or goes away.
func Classify(err error) *FailError {
	var fe *FailError
	if errors.As(err, &fe) {
		return fe
	}
	if isDisconnect(err) {
		return fail(KindTransport, "peer disconnected")
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fail(KindTransport, "read timed out")
	}
	return failf(KindProtocol, "malformed traffic: %v", err)
}

func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}
