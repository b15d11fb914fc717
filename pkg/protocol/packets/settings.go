package packets

import "github.com/bastionmc/bastion/pkg/protocol"

const maxLocaleLen = 16

// SkinPartsReservedMask covers the bit no vanilla client ever sets in
// the displayed-skin-parts field. Bots frequently send junk here.
const SkinPartsReservedMask = 0x80

// ClientInformation is the client settings packet: locale, view
// distance, chat and skin preferences. Sent during play on old
// versions and during configuration from 1.20.2 on; the body is the
// same in both phases. Serverbound only.
type ClientInformation struct {
	Locale       string
	ViewDistance int8
	ChatMode     int32
	ChatColors   bool
	SkinParts    uint8
	MainHand     int32
}

// Kind implements Packet.
func (*ClientInformation) Kind() Kind { return KindClientInformation }

// Decode implements Packet.
func (c *ClientInformation) Decode(r *protocol.Reader, v protocol.Version) error {
	var err error
	if c.Locale, err = r.String(maxLocaleLen); err != nil {
		return err
	}
	if c.ViewDistance, err = r.Int8(); err != nil {
		return err
	}
	if v >= protocol.V1_9 {
		if c.ChatMode, err = r.VarInt(); err != nil {
			return err
		}
	} else {
		mode, err := r.Int8()
		if err != nil {
			return err
		}
		c.ChatMode = int32(mode)
	}
	if c.ChatColors, err = r.Bool(); err != nil {
		return err
	}
	if c.SkinParts, err = r.Uint8(); err != nil {
		return err
	}
	if v >= protocol.V1_9 {
		if c.MainHand, err = r.VarInt(); err != nil {
			return err
		}
	}
	if v >= protocol.V1_17 {
		if _, err = r.Bool(); err != nil { // text filtering
			return err
		}
	}
	if v >= protocol.V1_18 {
		if _, err = r.Bool(); err != nil { // allow server listings
			return err
		}
	}
	return nil
}

// Encode implements Packet.
func (c *ClientInformation) Encode(w *protocol.Writer, v protocol.Version) error {
	w.String(c.Locale)
	w.Int8(c.ViewDistance)
	if v >= protocol.V1_9 {
		w.VarInt(c.ChatMode)
	} else {
		w.Int8(int8(c.ChatMode))
	}
	w.Bool(c.ChatColors)
	w.Uint8(c.SkinParts)
	if v >= protocol.V1_9 {
		w.VarInt(c.MainHand)
	}
	if v >= protocol.V1_17 {
		w.Bool(false)
	}
	if v >= protocol.V1_18 {
		w.Bool(true)
	}
	return nil
}
