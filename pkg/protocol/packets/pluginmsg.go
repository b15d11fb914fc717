package packets

import "github.com/bastionmc/bastion/pkg/protocol"

const maxChannelLen = 128

// Brand channels. 1.13 renamed plugin message channels to namespaced
// identifiers; both spellings identify the client-brand payload.
const (
	BrandChannelModern = "minecraft:brand"
	BrandChannelLegacy = "MC|Brand"
)

// BrandChannel returns the channel name a well-behaved client of the
// given version uses for its brand payload.
func BrandChannel(v protocol.Version) string {
	if v >= protocol.V1_13 {
		return BrandChannelModern
	}
	return BrandChannelLegacy
}

// PluginMessage is the free-form mod/plugin channel packet. The engine
// only cares about the brand channel; everything else is noise it
// tolerates. 1.7 prefixes the payload with a 16-bit length, 1.8+ runs
// it to the end of the frame.
type PluginMessage struct {
	Channel string
	Data    []byte
}

// Kind implements Packet.
func (*PluginMessage) Kind() Kind { return KindPluginMessage }

// IsBrand reports whether this message is a client-brand payload on
// either the legacy or the namespaced channel.
func (p *PluginMessage) IsBrand() bool {
	return p.Channel == BrandChannelModern || p.Channel == BrandChannelLegacy
}

// Decode implements Packet.
func (p *PluginMessage) Decode(r *protocol.Reader, v protocol.Version) error {
	var err error
	if p.Channel, err = r.String(maxChannelLen); err != nil {
		return err
	}
	if v >= protocol.V1_8 {
		p.Data = r.Rest()
		return nil
	}
	n, err := r.Uint16()
	if err != nil {
		return err
	}
	p.Data, err = r.Bytes(int(n))
	return err
}

// Encode implements Packet.
func (p *PluginMessage) Encode(w *protocol.Writer, v protocol.Version) error {
	w.String(p.Channel)
	if v < protocol.V1_8 {
		w.Uint16(uint16(len(p.Data)))
	}
	w.Raw(p.Data)
	return nil
}
