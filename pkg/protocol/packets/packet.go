// Package packets defines the typed packets the verification engine
// reads and writes, and the versioned registry that binds them to wire
// IDs per protocol phase.
//
// Only the packets verification needs are bound. Everything else a
// client may send decodes to nothing and is skipped by the framing
// layer; the engine never needs to understand the full protocol, just
// enough of the login, configuration, and early play phases to pose
// its challenges.
package packets

import (
	"errors"

	"github.com/bastionmc/bastion/pkg/protocol"
)

// Packet errors.
var (
	// ErrDirection is returned when a packet is encoded or decoded in
	// the direction it never travels.
	ErrDirection = errors.New("packets: packet does not travel in this direction")

	// ErrBadFlags is returned when a decoded field uses bits the
	// protocol reserves.
	ErrBadFlags = errors.New("packets: reserved bits set")
)

// Direction is the travel direction of a packet.
type Direction uint8

const (
	// Serverbound packets travel client → server.
	Serverbound Direction = iota

	// Clientbound packets travel server → client.
	Clientbound
)

// String returns a human-readable name for the direction.
func (d Direction) String() string {
	switch d {
	case Serverbound:
		return "Serverbound"
	case Clientbound:
		return "Clientbound"
	default:
		return "Unknown"
	}
}

// Kind identifies a packet type independent of version and wire ID.
// The registry maps Kind to the per-version ID and back; the engine
// dispatches on Kind everywhere.
type Kind uint8

const (
	KindHandshake Kind = iota
	KindStatusRequest
	KindStatusResponse
	KindPing
	KindLoginStart
	KindLoginSuccess
	KindLoginDisconnect
	KindLoginAcknowledged
	KindKeepAlive
	KindClientInformation
	KindPluginMessage
	KindFinishConfiguration
	KindRegistryData
	KindJoinGame
	KindServerPositionLook
	KindPlayerPosition
	KindPlayerPositionLook
	KindTeleportConfirm
	KindResourcePackResponse
	KindDisconnect

	kindCount
)

var kindNames = [kindCount]string{
	KindHandshake:            "Handshake",
	KindStatusRequest:        "StatusRequest",
	KindStatusResponse:       "StatusResponse",
	KindPing:                 "Ping",
	KindLoginStart:           "LoginStart",
	KindLoginSuccess:         "LoginSuccess",
	KindLoginDisconnect:      "LoginDisconnect",
	KindLoginAcknowledged:    "LoginAcknowledged",
	KindKeepAlive:            "KeepAlive",
	KindClientInformation:    "ClientInformation",
	KindPluginMessage:        "PluginMessage",
	KindFinishConfiguration:  "FinishConfiguration",
	KindRegistryData:         "RegistryData",
	KindJoinGame:             "JoinGame",
	KindServerPositionLook:   "ServerPositionLook",
	KindPlayerPosition:       "PlayerPosition",
	KindPlayerPositionLook:   "PlayerPositionLook",
	KindTeleportConfirm:      "TeleportConfirm",
	KindResourcePackResponse: "ResourcePackResponse",
	KindDisconnect:           "Disconnect",
}

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Unknown"
}

// Packet is one typed game packet. Decode and Encode adapt the body
// layout to the given protocol version; packets that travel in one
// direction only return ErrDirection for the other.
type Packet interface {
	// Kind identifies the packet type for registry and dispatch use.
	Kind() Kind

	// Decode fills the packet from a body reader.
	Decode(r *protocol.Reader, v protocol.Version) error

	// Encode appends the packet body to a writer.
	Encode(w *protocol.Writer, v protocol.Version) error
}

// New returns a zero value of the packet type for kind, ready for
// Decode. Returns nil for kinds with no constructor, which cannot
// happen for kinds present in the registry tables.
func New(k Kind) Packet {
	switch k {
	case KindHandshake:
		return &Handshake{}
	case KindStatusRequest:
		return &StatusRequest{}
	case KindStatusResponse:
		return &StatusResponse{}
	case KindPing:
		return &Ping{}
	case KindLoginStart:
		return &LoginStart{}
	case KindLoginSuccess:
		return &LoginSuccess{}
	case KindLoginDisconnect:
		return &LoginDisconnect{}
	case KindLoginAcknowledged:
		return &LoginAcknowledged{}
	case KindKeepAlive:
		return &KeepAlive{}
	case KindClientInformation:
		return &ClientInformation{}
	case KindPluginMessage:
		return &PluginMessage{}
	case KindFinishConfiguration:
		return &FinishConfiguration{}
	case KindRegistryData:
		return &RegistryData{}
	case KindJoinGame:
		return &JoinGame{}
	case KindServerPositionLook:
		return &ServerPositionLook{}
	case KindPlayerPosition:
		return &PlayerPosition{}
	case KindPlayerPositionLook:
		return &PlayerPositionLook{}
	case KindTeleportConfirm:
		return &TeleportConfirm{}
	case KindResourcePackResponse:
		return &ResourcePackResponse{}
	case KindDisconnect:
		return &Disconnect{}
	default:
		return nil
	}
}
