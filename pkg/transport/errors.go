package transport

import "errors"

// Transport errors.
var (
	// ErrClosed is returned when an operation is attempted on a stopped server.
	ErrClosed = errors.New("transport: closed")

	// ErrNoHandler is returned when no connection handler is configured.
	ErrNoHandler = errors.New("transport: no connection handler configured")

	// ErrAlreadyStarted is returned when Start is called on a running server.
	ErrAlreadyStarted = errors.New("transport: already started")
)
