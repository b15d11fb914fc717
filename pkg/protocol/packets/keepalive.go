package packets

import "github.com/bastionmc/bastion/pkg/protocol"

// KeepAlive is the liveness ping. The server picks an ID, the client
// echoes it back; the verification engine turns this into a nonce
// challenge. The ID width changed twice: 1.7 used a plain int, 1.8
// a VarInt, and 1.12.2 widened it to 64 bits. Travels both ways with
// the same body.
type KeepAlive struct {
	ID int64
}

// Kind implements Packet.
func (*KeepAlive) Kind() Kind { return KindKeepAlive }

// Decode implements Packet.
func (k *KeepAlive) Decode(r *protocol.Reader, v protocol.Version) error {
	switch {
	case v >= protocol.V1_12_2:
		id, err := r.Int64()
		if err != nil {
			return err
		}
		k.ID = id
	case v >= protocol.V1_8:
		id, err := r.VarInt()
		if err != nil {
			return err
		}
		k.ID = int64(id)
	default:
		id, err := r.Int32()
		if err != nil {
			return err
		}
		k.ID = int64(id)
	}
	return nil
}

// Encode implements Packet.
func (k *KeepAlive) Encode(w *protocol.Writer, v protocol.Version) error {
	switch {
	case v >= protocol.V1_12_2:
		w.Int64(k.ID)
	case v >= protocol.V1_8:
		w.VarInt(int32(k.ID))
	default:
		w.Int32(int32(k.ID))
	}
	return nil
}
