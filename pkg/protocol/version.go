package protocol

import "strconv"

// Version is the numeric protocol version a client declares in its
// handshake. Versions are ordered; a larger number is a newer client.
// The constants below name the release boundaries the engine changes
// behavior at; clients between two boundaries behave like the older
// one. They are not an exhaustive release list.
type Version int32

const (
	// V1_7_2 is the oldest version the engine admits.
	V1_7_2 Version = 4

	// V1_8 introduced keep-alive exchanges before the play phase
	// settles, making the nonce challenge possible.
	V1_8 Version = 47

	// V1_9 introduced teleport confirmation for server-set positions.
	V1_9 Version = 107

	// V1_12_1 shuffled several play packet IDs within the 1.12 line.
	V1_12_1 Version = 338

	// V1_12_2 widened keep-alive IDs from VarInt to 64-bit.
	V1_12_2 Version = 340

	// V1_13 moved plugin message channels to namespaced keys
	// ("minecraft:brand" instead of "MC|Brand").
	V1_13 Version = 393

	// V1_14 added the view distance field to the join packet.
	V1_14 Version = 477

	// V1_15 added the hashed seed and respawn-screen fields.
	V1_15 Version = 573

	// V1_16 changed login success to carry a raw 16-byte UUID and
	// moved world metadata into the join packet.
	V1_16 Version = 735

	// V1_16_2 replaced the join packet's dimension identifier with a
	// full NBT compound.
	V1_16_2 Version = 751

	// V1_17 added the dismount-vehicle flag to server position packets.
	V1_17 Version = 755

	// V1_18 added the simulation distance field to the join packet.
	V1_18 Version = 757

	// V1_18_2 switched the dimension infiniburn field to a tag key.
	V1_18_2 Version = 758

	// V1_19 added the profile property list to login success.
	V1_19 Version = 759

	// V1_19_1 added the optional UUID to login start.
	V1_19_1 Version = 760

	// V1_19_3 dropped the login start signature data again.
	V1_19_3 Version = 761

	// V1_19_4 removed the dismount-vehicle flag again.
	V1_19_4 Version = 762

	// V1_20 added the portal cooldown field to the join packet.
	V1_20 Version = 763

	// V1_20_2 introduced the configuration phase and the
	// login-acknowledged handshake step.
	V1_20_2 Version = 764

	// V1_20_3 switched play-phase text components from JSON to NBT.
	V1_20_3 Version = 765

	// V1_20_5 split registry synchronization into a packet bundle and
	// shifted the configuration packet IDs.
	V1_20_5 Version = 766

	// V1_21 revised the registry bundle contents once more.
	V1_21 Version = 767
)

var versionNames = map[Version]string{
	V1_7_2:  "1.7.2",
	V1_8:    "1.8",
	V1_9:    "1.9",
	V1_12_1: "1.12.1",
	V1_12_2: "1.12.2",
	V1_13:   "1.13",
	V1_14:   "1.14",
	V1_15:   "1.15",
	V1_16:   "1.16",
	V1_16_2: "1.16.2",
	V1_17:   "1.17",
	V1_18:   "1.18",
	V1_18_2: "1.18.2",
	V1_19:   "1.19",
	V1_19_1: "1.19.1",
	V1_19_3: "1.19.3",
	V1_19_4: "1.19.4",
	V1_20:   "1.20",
	V1_20_2: "1.20.2",
	V1_20_3: "1.20.3",
	V1_20_5: "1.20.5",
	V1_21:   "1.21",
}

// String returns the release name for boundary versions and the raw
// protocol number otherwise.
func (v Version) String() string {
	if name, ok := versionNames[v]; ok {
		return name
	}
	return "protocol " + strconv.Itoa(int(v))
}

// Supported returns true if the engine knows how to verify this
// version. Anything older than 1.7.2 predates the netty rewrite and is
// not spoken here.
func (v Version) Supported() bool {
	return v >= V1_7_2
}

// TwoPhaseLogin returns true if the version performs the configuration
// phase between login and play.
func (v Version) TwoPhaseLogin() bool {
	return v >= V1_20_2
}

// PrePlayKeepAlive returns true if the version answers keep-alive
// packets while still on the downloading-terrain screen, which is what
// makes the nonce challenge work. 1.7 clients do not.
func (v Version) PrePlayKeepAlive() bool {
	return v >= V1_8
}
