package packets

import (
	"encoding/json"

	"github.com/bastionmc/bastion/pkg/protocol"
)

// ChatJSON wraps plain text in a minimal JSON chat component.
func ChatJSON(text string) string {
	b, _ := json.Marshal(struct {
		Text string `json:"text"`
	}{text})
	return string(b)
}

// appendNBTString appends a network-NBT string tag: the root tag form
// used for text components from 1.20.3 on.
func appendNBTString(dst []byte, s string) []byte {
	dst = append(dst, 0x08) // TAG_String
	dst = append(dst, byte(len(s)>>8), byte(len(s)))
	return append(dst, s...)
}

// JoinGame spawns the client into a world. The scalar fields cover
// every version band; the two blob fields carry pre-encoded NBT world
// metadata for the 1.16–1.20.1 bands where the join packet embeds it
// inline (newer clients receive it via RegistryData instead). The
// world package prepares those blobs. Clientbound only.
type JoinGame struct {
	EntityID      int32
	Hardcore      bool
	GameMode      uint8
	PrevGameMode  int8
	WorldName     string
	DimensionKey  string // dimension identifier, 1.16–1.16.1 and 1.19–1.20.3
	DimensionID   int32  // dimension registry index, 1.20.5+
	DimensionInt  int32  // numeric dimension, pre-1.16
	HashedSeed    int64
	MaxPlayers    int32
	ViewDistance  int32
	SimDistance   int32
	ReducedDebug  bool
	RespawnScreen bool
	Debug         bool
	Flat          bool
	LevelType     string // pre-1.16
	Difficulty    uint8  // pre-1.14

	// DimensionCodec is the full registry codec NBT (1.16–1.20.1).
	DimensionCodec []byte

	// DimensionType is the current dimension NBT (1.16.2–1.18.2).
	DimensionType []byte
}

// Kind implements Packet.
func (*JoinGame) Kind() Kind { return KindJoinGame }

// Decode implements Packet.
func (*JoinGame) Decode(*protocol.Reader, protocol.Version) error {
	return ErrDirection
}

// Encode implements Packet.
func (j *JoinGame) Encode(w *protocol.Writer, v protocol.Version) error {
	switch {
	case v >= protocol.V1_20_2:
		w.Int32(j.EntityID)
		w.Bool(j.Hardcore)
		w.VarInt(1)
		w.String(j.WorldName)
		w.VarInt(j.MaxPlayers)
		w.VarInt(j.ViewDistance)
		w.VarInt(j.SimDistance)
		w.Bool(j.ReducedDebug)
		w.Bool(j.RespawnScreen)
		w.Bool(false) // limited crafting
		if v >= protocol.V1_20_5 {
			w.VarInt(j.DimensionID)
		} else {
			w.String(j.DimensionKey)
		}
		w.String(j.WorldName)
		w.Int64(j.HashedSeed)
		w.Uint8(j.GameMode)
		w.Int8(j.PrevGameMode)
		w.Bool(j.Debug)
		w.Bool(j.Flat)
		w.Bool(false) // no death location
		w.VarInt(0)   // portal cooldown
		if v >= protocol.V1_20_5 {
			w.Bool(false) // enforces secure chat
		}

	case v >= protocol.V1_16_2:
		w.Int32(j.EntityID)
		w.Bool(j.Hardcore)
		w.Uint8(j.GameMode)
		w.Int8(j.PrevGameMode)
		w.VarInt(1)
		w.String(j.WorldName)
		w.Raw(j.DimensionCodec)
		if v >= protocol.V1_19 {
			w.String(j.DimensionKey)
		} else {
			w.Raw(j.DimensionType)
		}
		w.String(j.WorldName)
		w.Int64(j.HashedSeed)
		w.VarInt(j.MaxPlayers)
		w.VarInt(j.ViewDistance)
		if v >= protocol.V1_18 {
			w.VarInt(j.SimDistance)
		}
		w.Bool(j.ReducedDebug)
		w.Bool(j.RespawnScreen)
		w.Bool(j.Debug)
		w.Bool(j.Flat)
		if v >= protocol.V1_19 {
			w.Bool(false) // no death location
		}
		if v >= protocol.V1_20 {
			w.VarInt(0) // portal cooldown
		}

	case v >= protocol.V1_16:
		// 1.16.0 and 1.16.1 fold hardcore into the game mode byte and
		// reference the dimension by identifier next to the flat codec.
		w.Int32(j.EntityID)
		mode := j.GameMode
		if j.Hardcore {
			mode |= 0x8
		}
		w.Uint8(mode)
		w.Int8(j.PrevGameMode)
		w.VarInt(1)
		w.String(j.WorldName)
		w.Raw(j.DimensionCodec)
		w.String(j.DimensionKey)
		w.String(j.WorldName)
		w.Int64(j.HashedSeed)
		w.Uint8(uint8(j.MaxPlayers))
		w.VarInt(j.ViewDistance)
		w.Bool(j.ReducedDebug)
		w.Bool(j.RespawnScreen)
		w.Bool(j.Debug)
		w.Bool(j.Flat)

	case v >= protocol.V1_15:
		w.Int32(j.EntityID)
		w.Uint8(j.GameMode)
		w.Int32(j.DimensionInt)
		w.Int64(j.HashedSeed)
		w.Uint8(uint8(j.MaxPlayers))
		w.String(j.LevelType)
		w.VarInt(j.ViewDistance)
		w.Bool(j.ReducedDebug)
		w.Bool(j.RespawnScreen)

	case v >= protocol.V1_14:
		w.Int32(j.EntityID)
		w.Uint8(j.GameMode)
		w.Int32(j.DimensionInt)
		w.Uint8(uint8(j.MaxPlayers))
		w.String(j.LevelType)
		w.VarInt(j.ViewDistance)
		w.Bool(j.ReducedDebug)

	case v >= protocol.V1_9:
		w.Int32(j.EntityID)
		w.Uint8(j.GameMode)
		w.Int32(j.DimensionInt)
		w.Uint8(j.Difficulty)
		w.Uint8(uint8(j.MaxPlayers))
		w.String(j.LevelType)
		w.Bool(j.ReducedDebug)

	default:
		w.Int32(j.EntityID)
		w.Uint8(j.GameMode)
		w.Int8(int8(j.DimensionInt))
		w.Uint8(j.Difficulty)
		w.Uint8(uint8(j.MaxPlayers))
		w.String(j.LevelType)
		if v >= protocol.V1_8 {
			w.Bool(j.ReducedDebug)
		}
	}
	return nil
}

// ServerPositionLook teleports the client to an absolute position.
// The client must accept it (and from 1.9 on, confirm the teleport ID)
// before its own movement reports mean anything. Clientbound only.
type ServerPositionLook struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	TeleportID int32
}

// Kind implements Packet.
func (*ServerPositionLook) Kind() Kind { return KindServerPositionLook }

// Decode implements Packet.
func (*ServerPositionLook) Decode(*protocol.Reader, protocol.Version) error {
	return ErrDirection
}

// Encode implements Packet.
func (s *ServerPositionLook) Encode(w *protocol.Writer, v protocol.Version) error {
	w.Float64(s.X)
	w.Float64(s.Y)
	w.Float64(s.Z)
	w.Float32(s.Yaw)
	w.Float32(s.Pitch)
	if v >= protocol.V1_8 {
		w.Uint8(0) // all coordinates absolute
	} else {
		w.Bool(false) // on ground
	}
	if v >= protocol.V1_9 {
		w.VarInt(s.TeleportID)
	}
	if v >= protocol.V1_17 && v < protocol.V1_19_4 {
		w.Bool(false) // dismount vehicle
	}
	return nil
}

// PlayerPosition is the client's movement report without rotation.
// The gravity challenge consumes the Y coordinate. Serverbound only.
type PlayerPosition struct {
	X, Y, Z  float64
	OnGround bool
}

// Kind implements Packet.
func (*PlayerPosition) Kind() Kind { return KindPlayerPosition }

// Decode implements Packet.
func (p *PlayerPosition) Decode(r *protocol.Reader, v protocol.Version) error {
	var err error
	if p.X, err = r.Float64(); err != nil {
		return err
	}
	if p.Y, err = r.Float64(); err != nil {
		return err
	}
	if v < protocol.V1_8 {
		if _, err = r.Float64(); err != nil { // head Y
			return err
		}
	}
	if p.Z, err = r.Float64(); err != nil {
		return err
	}
	p.OnGround, err = r.Bool()
	return err
}

// Encode implements Packet.
func (p *PlayerPosition) Encode(w *protocol.Writer, v protocol.Version) error {
	w.Float64(p.X)
	w.Float64(p.Y)
	if v < protocol.V1_8 {
		w.Float64(p.Y + 1.62)
	}
	w.Float64(p.Z)
	w.Bool(p.OnGround)
	return nil
}

// PlayerPositionLook is the client's movement report with rotation.
// Serverbound only.
type PlayerPositionLook struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	OnGround   bool
}

// Kind implements Packet.
func (*PlayerPositionLook) Kind() Kind { return KindPlayerPositionLook }

// Decode implements Packet.
func (p *PlayerPositionLook) Decode(r *protocol.Reader, v protocol.Version) error {
	var err error
	if p.X, err = r.Float64(); err != nil {
		return err
	}
	if p.Y, err = r.Float64(); err != nil {
		return err
	}
	if v < protocol.V1_8 {
		if _, err = r.Float64(); err != nil { // head Y
			return err
		}
	}
	if p.Z, err = r.Float64(); err != nil {
		return err
	}
	if p.Yaw, err = r.Float32(); err != nil {
		return err
	}
	if p.Pitch, err = r.Float32(); err != nil {
		return err
	}
	p.OnGround, err = r.Bool()
	return err
}

// Encode implements Packet.
func (p *PlayerPositionLook) Encode(w *protocol.Writer, v protocol.Version) error {
	w.Float64(p.X)
	w.Float64(p.Y)
	if v < protocol.V1_8 {
		w.Float64(p.Y + 1.62)
	}
	w.Float64(p.Z)
	w.Float32(p.Yaw)
	w.Float32(p.Pitch)
	w.Bool(p.OnGround)
	return nil
}

// TeleportConfirm acknowledges a server teleport (1.9+). Serverbound
// only.
type TeleportConfirm struct {
	TeleportID int32
}

// Kind implements Packet.
func (*TeleportConfirm) Kind() Kind { return KindTeleportConfirm }

// Decode implements Packet.
func (t *TeleportConfirm) Decode(r *protocol.Reader, _ protocol.Version) error {
	id, err := r.VarInt()
	if err != nil {
		return err
	}
	t.TeleportID = id
	return nil
}

// Encode implements Packet.
func (t *TeleportConfirm) Encode(w *protocol.Writer, _ protocol.Version) error {
	w.VarInt(t.TeleportID)
	return nil
}

// ResourcePackResponse reports the client's resource pack state. The
// engine allows it during verification and ignores the contents, so
// the body is deliberately not parsed. Serverbound only.
type ResourcePackResponse struct{}

// Kind implements Packet.
func (*ResourcePackResponse) Kind() Kind { return KindResourcePackResponse }

// Decode implements Packet.
func (*ResourcePackResponse) Decode(*protocol.Reader, protocol.Version) error { return nil }

// Encode implements Packet.
func (*ResourcePackResponse) Encode(*protocol.Writer, protocol.Version) error {
	return ErrDirection
}

// Disconnect kicks a client during configuration or play. 1.20.3 moved
// the reason from a JSON string to a network-NBT text component.
// Clientbound only.
type Disconnect struct {
	// Reason is plain text; Encode wraps it appropriately.
	Reason string
}

// Kind implements Packet.
func (*Disconnect) Kind() Kind { return KindDisconnect }

// Decode implements Packet.
func (*Disconnect) Decode(*protocol.Reader, protocol.Version) error {
	return ErrDirection
}

// Encode implements Packet.
func (d *Disconnect) Encode(w *protocol.Writer, v protocol.Version) error {
	if v >= protocol.V1_20_3 {
		w.Raw(appendNBTString(nil, d.Reason))
		return nil
	}
	w.String(ChatJSON(d.Reason))
	return nil
}
