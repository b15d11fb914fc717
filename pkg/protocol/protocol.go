// Package protocol implements the game wire protocol layer used during
// verification: protocol version ordering, connection phases, the VarInt
// codec, and length-prefixed packet framing.
//
// The package provides:
//   - Version constants and ordering for the client bands the engine
//     distinguishes
//   - Phase tracking (handshake, status, login, configuration, play)
//   - VarInt/VarLong primitives and body-level field readers/writers
//   - Stream framing: [VarInt length][VarInt packet ID][body]
//
// Packet ID tables and typed packets live in the packets subpackage;
// this package is deliberately ignorant of individual packet layouts.
package protocol

// Phase is the protocol's own connection sub-state. Packet IDs are only
// meaningful within a phase: the same numeric ID decodes to different
// packets in different phases, so every registry lookup is keyed by the
// session's current phase.
type Phase uint8

const (
	// PhaseHandshake is the initial state; the only packet is the
	// handshake that declares version, target host, and intent.
	PhaseHandshake Phase = iota

	// PhaseStatus serves server-list pings. Connections in this phase
	// never reach verification.
	PhaseStatus

	// PhaseLogin covers login start through login success.
	PhaseLogin

	// PhaseConfig is the configuration phase introduced with the 1.20.2
	// two-phase login. Older clients never enter it.
	PhaseConfig

	// PhasePlay is the in-game phase where the gravity challenge runs.
	PhasePlay
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseHandshake:
		return "Handshake"
	case PhaseStatus:
		return "Status"
	case PhaseLogin:
		return "Login"
	case PhaseConfig:
		return "Config"
	case PhasePlay:
		return "Play"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the phase is a defined value.
func (p Phase) IsValid() bool {
	return p <= PhasePlay
}

// Intent is the next-state request carried by the handshake packet.
type Intent uint8

const (
	// IntentStatus asks for the server list ping flow.
	IntentStatus Intent = 1

	// IntentLogin asks to join the game.
	IntentLogin Intent = 2

	// IntentTransfer is a 1.20.5+ login intent set when the client was
	// transferred from another server. Treated like IntentLogin.
	IntentTransfer Intent = 3
)

// String returns a human-readable name for the intent.
func (i Intent) String() string {
	switch i {
	case IntentStatus:
		return "Status"
	case IntentLogin:
		return "Login"
	case IntentTransfer:
		return "Transfer"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the intent is a value a client may request.
func (i Intent) IsValid() bool {
	return i >= IntentStatus && i <= IntentTransfer
}
