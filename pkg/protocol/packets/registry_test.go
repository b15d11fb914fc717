package packets

import (
	"testing"

	"github.com/bastionmc/bastion/pkg/protocol"
)

func TestRegistryBijective(t *testing.T) {
	reg := NewRegistry()

	// Every bound ID must resolve to a kind that resolves back to the
	// same ID, on every band and route.
	for _, b := range reg.bands {
		for rt, ids := range b.byID {
			for id, kind := range ids {
				back, ok := b.byKind[rt][kind]
				if !ok {
					t.Errorf("band %v %v/%v: kind %v has no reverse binding", b.min, rt.phase, rt.dir, kind)
					continue
				}
				if back != id {
					t.Errorf("band %v %v/%v: ID %#x -> %v -> %#x", b.min, rt.phase, rt.dir, id, kind, back)
				}
			}
		}
	}
}

func TestRegistryConstructors(t *testing.T) {
	reg := NewRegistry()

	// Every kind in the tables must have a working constructor.
	for _, b := range reg.bands {
		for _, ids := range b.byID {
			for _, kind := range ids {
				if New(kind) == nil {
					t.Errorf("New(%v) = nil", kind)
				}
			}
		}
	}
}

func TestRegistryBandSelection(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name    string
		version protocol.Version
		phase   protocol.Phase
		dir     Direction
		kind    Kind
		wantID  int32
	}{
		{"1.8 serverbound keep-alive", protocol.V1_8, protocol.PhasePlay, Serverbound, KindKeepAlive, 0x00},
		{"1.8.9 inherits the 1.8 band", 47 + 3, protocol.PhasePlay, Serverbound, KindKeepAlive, 0x00},
		{"1.9 moved keep-alive", protocol.V1_9, protocol.PhasePlay, Serverbound, KindKeepAlive, 0x0B},
		{"1.12.2 keeps the 1.9 keep-alive", protocol.V1_12_2, protocol.PhasePlay, Serverbound, KindKeepAlive, 0x0B},
		{"1.12.2 shifted position", protocol.V1_12_2, protocol.PhasePlay, Serverbound, KindPlayerPosition, 0x0D},
		{"1.13 plugin message", protocol.V1_13, protocol.PhasePlay, Serverbound, KindPluginMessage, 0x0A},
		{"1.14 keep-alive", protocol.V1_14, protocol.PhasePlay, Serverbound, KindKeepAlive, 0x0F},
		{"1.15 join game", protocol.V1_15, protocol.PhasePlay, Clientbound, KindJoinGame, 0x26},
		{"1.16 join game", protocol.V1_16, protocol.PhasePlay, Clientbound, KindJoinGame, 0x25},
		{"1.16.2 dropped an ID below join", protocol.V1_16_2, protocol.PhasePlay, Clientbound, KindJoinGame, 0x24},
		{"1.18.2 inherits the 1.17 band", protocol.V1_18_2, protocol.PhasePlay, Serverbound, KindKeepAlive, 0x0F},
		{"1.19 client information", protocol.V1_19, protocol.PhasePlay, Serverbound, KindClientInformation, 0x07},
		{"1.19.1 chat ack shifted settings", protocol.V1_19_1, protocol.PhasePlay, Serverbound, KindClientInformation, 0x08},
		{"1.19.3 dropped chat preview", protocol.V1_19_3, protocol.PhasePlay, Serverbound, KindClientInformation, 0x07},
		{"1.20.1 inherits the 1.19.4 band", protocol.V1_20, protocol.PhasePlay, Clientbound, KindJoinGame, 0x28},
		{"1.20.2 config registry data", protocol.V1_20_2, protocol.PhaseConfig, Clientbound, KindRegistryData, 0x05},
		{"1.20.5 config registry data moved", protocol.V1_20_5, protocol.PhaseConfig, Clientbound, KindRegistryData, 0x07},
		{"1.21 inherits the 1.20.5 band", protocol.V1_21, protocol.PhaseConfig, Clientbound, KindRegistryData, 0x07},
		{"handshake is version independent", protocol.V1_7_2, protocol.PhaseHandshake, Serverbound, KindHandshake, 0x00},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := reg.ID(tc.version, tc.phase, tc.dir, tc.kind)
			if !ok {
				t.Fatalf("ID(%v, %v, %v, %v) not bound", tc.version, tc.phase, tc.dir, tc.kind)
			}
			if id != tc.wantID {
				t.Errorf("ID = %#x, want %#x", id, tc.wantID)
			}

			kind, ok := reg.Lookup(tc.version, tc.phase, tc.dir, tc.wantID)
			if !ok || kind != tc.kind {
				t.Errorf("Lookup(%#x) = %v, %v, want %v, true", tc.wantID, kind, ok, tc.kind)
			}
		})
	}
}

func TestRegistryUnboundID(t *testing.T) {
	reg := NewRegistry()

	// Chat (0x01 on 1.8) is deliberately unbound: the framing layer
	// skips IDs the registry does not know.
	if kind, ok := reg.Lookup(protocol.V1_8, protocol.PhasePlay, Serverbound, 0x01); ok {
		t.Errorf("Lookup(0x01) = %v, want unbound", kind)
	}

	// Login acknowledgement does not exist before 1.20.2.
	if _, ok := reg.Lookup(protocol.V1_13, protocol.PhaseLogin, Serverbound, 0x03); ok {
		t.Error("Lookup(login 0x03) bound on 1.13, want unbound")
	}
	if _, ok := reg.ID(protocol.V1_13, protocol.PhaseLogin, Serverbound, KindLoginAcknowledged); ok {
		t.Error("ID(LoginAcknowledged) bound on 1.13, want unbound")
	}

	// Pre-1.8 clients have no play bindings at all; they are verified
	// without packet exchange.
	if _, ok := reg.Lookup(protocol.V1_7_2, protocol.PhasePlay, Serverbound, 0x00); ok {
		t.Error("Lookup(play 0x00) bound on 1.7.2, want unbound")
	}
}
