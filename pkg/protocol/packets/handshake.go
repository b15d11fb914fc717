package packets

import "github.com/bastionmc/bastion/pkg/protocol"

// Maximum field lengths for the handshake. The hostname limit is
// generous because forwarding-aware proxies append player data to it.
const (
	maxServerAddressLen = 1024
	maxUsernameLen      = 16
)

// Handshake is the first packet on every connection. It declares the
// client's protocol version, the address it dialed, and what it wants
// next (status or login). Serverbound only; the layout never changed
// across versions.
type Handshake struct {
	ProtocolVersion protocol.Version
	ServerAddress   string
	ServerPort      uint16
	Intent          protocol.Intent
}

// Kind implements Packet.
func (*Handshake) Kind() Kind { return KindHandshake }

// Decode implements Packet.
func (h *Handshake) Decode(r *protocol.Reader, _ protocol.Version) error {
	ver, err := r.VarInt()
	if err != nil {
		return err
	}
	h.ProtocolVersion = protocol.Version(ver)
	if h.ServerAddress, err = r.String(maxServerAddressLen); err != nil {
		return err
	}
	if h.ServerPort, err = r.Uint16(); err != nil {
		return err
	}
	intent, err := r.VarInt()
	if err != nil {
		return err
	}
	h.Intent = protocol.Intent(intent)
	return nil
}

// Encode implements Packet.
func (h *Handshake) Encode(w *protocol.Writer, _ protocol.Version) error {
	w.VarInt(int32(h.ProtocolVersion))
	w.String(h.ServerAddress)
	w.Uint16(h.ServerPort)
	w.VarInt(int32(h.Intent))
	return nil
}

// StatusRequest asks for the server list entry. Empty body.
type StatusRequest struct{}

// Kind implements Packet.
func (*StatusRequest) Kind() Kind { return KindStatusRequest }

// Decode implements Packet.
func (*StatusRequest) Decode(*protocol.Reader, protocol.Version) error { return nil }

// Encode implements Packet.
func (*StatusRequest) Encode(*protocol.Writer, protocol.Version) error { return nil }

// StatusResponse carries the server list JSON.
type StatusResponse struct {
	JSON string
}

// Kind implements Packet.
func (*StatusResponse) Kind() Kind { return KindStatusResponse }

// Decode implements Packet.
func (s *StatusResponse) Decode(r *protocol.Reader, _ protocol.Version) error {
	var err error
	s.JSON, err = r.String(protocol.MaxStringLen)
	return err
}

// Encode implements Packet.
func (s *StatusResponse) Encode(w *protocol.Writer, _ protocol.Version) error {
	w.String(s.JSON)
	return nil
}

// Ping is the status-phase latency probe; the same payload travels
// both directions (the response echoes the request).
type Ping struct {
	Payload int64
}

// Kind implements Packet.
func (*Ping) Kind() Kind { return KindPing }

// Decode implements Packet.
func (p *Ping) Decode(r *protocol.Reader, _ protocol.Version) error {
	var err error
	p.Payload, err = r.Int64()
	return err
}

// Encode implements Packet.
func (p *Ping) Encode(w *protocol.Writer, _ protocol.Version) error {
	w.Int64(p.Payload)
	return nil
}
