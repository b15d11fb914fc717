package packets

import "github.com/bastionmc/bastion/pkg/protocol"

// FinishConfiguration closes the configuration phase. The server sends
// it once it has nothing more to configure; the client acknowledges
// with the serverbound twin and both sides move to play. Empty body.
type FinishConfiguration struct{}

// Kind implements Packet.
func (*FinishConfiguration) Kind() Kind { return KindFinishConfiguration }

// Decode implements Packet.
func (*FinishConfiguration) Decode(*protocol.Reader, protocol.Version) error { return nil }

// Encode implements Packet.
func (*FinishConfiguration) Encode(*protocol.Writer, protocol.Version) error { return nil }

// RegistryData synchronizes game registries during configuration. The
// engine treats the payload as an opaque blob: the contents are
// version data prepared ahead of time (a single packet through 1.20.3,
// one packet per registry from 1.20.5). Clientbound only.
type RegistryData struct {
	Payload []byte
}

// Kind implements Packet.
func (*RegistryData) Kind() Kind { return KindRegistryData }

// Decode implements Packet.
func (*RegistryData) Decode(*protocol.Reader, protocol.Version) error {
	return ErrDirection
}

// Encode implements Packet.
func (rd *RegistryData) Encode(w *protocol.Writer, _ protocol.Version) error {
	w.Raw(rd.Payload)
	return nil
}
