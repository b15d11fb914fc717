package packets

import "github.com/bastionmc/bastion/pkg/protocol"

// LoginStart opens the login phase. The layout grew and shrank over
// the years: 1.19 bolted on chat signature data, 1.19.1 added an
// optional UUID, 1.19.3 dropped the signatures again, and 1.20.2 made
// the UUID mandatory. Serverbound only.
type LoginStart struct {
	Username string

	// HasUUID is true when the client supplied a UUID (1.19.1+,
	// mandatory from 1.20.2).
	HasUUID bool
	UUID    UUID
}

// Kind implements Packet.
func (*LoginStart) Kind() Kind { return KindLoginStart }

// Decode implements Packet.
func (l *LoginStart) Decode(r *protocol.Reader, v protocol.Version) error {
	var err error
	if l.Username, err = r.String(maxUsernameLen); err != nil {
		return err
	}

	// 1.19 and 1.19.1/.2 carry optional signature data; read past it.
	if v >= protocol.V1_19 && v < protocol.V1_19_3 {
		hasSig, err := r.Bool()
		if err != nil {
			return err
		}
		if hasSig {
			if _, err = r.Int64(); err != nil { // expiry timestamp
				return err
			}
			for i := 0; i < 2; i++ { // public key, signature
				n, err := r.VarInt()
				if err != nil {
					return err
				}
				if _, err = r.Bytes(int(n)); err != nil {
					return err
				}
			}
		}
	}

	switch {
	case v >= protocol.V1_20_2:
		l.HasUUID = true
		l.UUID, err = readUUID(r)
		return err
	case v >= protocol.V1_19_1: // through 1.20.1: optional UUID
		if l.HasUUID, err = r.Bool(); err != nil {
			return err
		}
		if l.HasUUID {
			l.UUID, err = readUUID(r)
			return err
		}
	}
	return nil
}

// Encode implements Packet.
func (l *LoginStart) Encode(w *protocol.Writer, v protocol.Version) error {
	w.String(l.Username)
	switch {
	case v >= protocol.V1_20_2:
		writeUUID(w, l.UUID)
	case v >= protocol.V1_19_1:
		if v < protocol.V1_19_3 {
			w.Bool(false) // no signature data
		}
		w.Bool(l.HasUUID)
		if l.HasUUID {
			writeUUID(w, l.UUID)
		}
	case v >= protocol.V1_19:
		w.Bool(false)
	}
	return nil
}

// LoginSuccess completes the login phase. For 1.20.2+ clients the
// client answers with LoginAcknowledged and moves to configuration;
// older clients move straight to play. Clientbound only.
type LoginSuccess struct {
	UUID     UUID
	Username string
}

// Kind implements Packet.
func (*LoginSuccess) Kind() Kind { return KindLoginSuccess }

// Decode implements Packet.
func (*LoginSuccess) Decode(*protocol.Reader, protocol.Version) error {
	return ErrDirection
}

// Encode implements Packet.
func (l *LoginSuccess) Encode(w *protocol.Writer, v protocol.Version) error {
	if v >= protocol.V1_16 {
		writeUUID(w, l.UUID)
	} else {
		w.String(l.UUID.String())
	}
	w.String(l.Username)
	if v >= protocol.V1_19 {
		w.VarInt(0) // no profile properties
	}
	if v >= protocol.V1_20_5 {
		w.Bool(true) // strict error handling
	}
	return nil
}

// LoginDisconnect kicks a client during login with a JSON chat
// component. Unlike the play-phase disconnect, the login layout never
// changed. Clientbound only.
type LoginDisconnect struct {
	// ReasonJSON is a complete JSON chat component.
	ReasonJSON string
}

// Kind implements Packet.
func (*LoginDisconnect) Kind() Kind { return KindLoginDisconnect }

// Decode implements Packet.
func (*LoginDisconnect) Decode(*protocol.Reader, protocol.Version) error {
	return ErrDirection
}

// Encode implements Packet.
func (l *LoginDisconnect) Encode(w *protocol.Writer, _ protocol.Version) error {
	w.String(l.ReasonJSON)
	return nil
}

// LoginAcknowledged is the 1.20.2+ client's consent to enter the
// configuration phase. Empty body, serverbound only.
type LoginAcknowledged struct{}

// Kind implements Packet.
func (*LoginAcknowledged) Kind() Kind { return KindLoginAcknowledged }

// Decode implements Packet.
func (*LoginAcknowledged) Decode(*protocol.Reader, protocol.Version) error { return nil }

// Encode implements Packet.
func (*LoginAcknowledged) Encode(*protocol.Writer, protocol.Version) error {
	return ErrDirection
}
