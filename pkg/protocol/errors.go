package protocol

import "errors"

// Wire format errors.
var (
	// VarInt / VarLong decoding errors
	ErrVarIntTooBig  = errors.New("protocol: varint exceeds 5 bytes")
	ErrVarLongTooBig = errors.New("protocol: varlong exceeds 10 bytes")

	// Body reader errors
	ErrBufferUnderrun = errors.New("protocol: read past end of packet body")
	ErrStringTooLong  = errors.New("protocol: string exceeds declared maximum")
	ErrNegativeLength = errors.New("protocol: negative length field")

	// Frame errors
	ErrFrameTooLarge = errors.New("protocol: frame exceeds maximum size")
	ErrFrameEmpty    = errors.New("protocol: zero-length frame")
)

// Framing constants.
const (
	// MaxVarIntBytes is the longest legal VarInt encoding.
	MaxVarIntBytes = 5

	// MaxVarLongBytes is the longest legal VarLong encoding.
	MaxVarLongBytes = 10

	// DefaultMaxFrameLen bounds inbound frames during verification.
	// Legitimate pre-play traffic is tiny; anything larger is hostile
	// or misrouted. Outbound frames (registry bundles) may be larger.
	DefaultMaxFrameLen = 2048

	// MaxStringLen caps string fields unless a packet declares a
	// tighter bound.
	MaxStringLen = 32767
)
