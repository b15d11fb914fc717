package packets

import "github.com/bastionmc/bastion/pkg/protocol"

// route is one lookup dimension: packets are bound per phase and
// direction.
type route struct {
	phase protocol.Phase
	dir   Direction
}

// binding ties a wire ID to a packet kind on one route.
type binding struct {
	phase protocol.Phase
	dir   Direction
	id    int32
	kind  Kind
}

// band holds the bindings for one version range. A band applies from
// its minimum version up to the next band's minimum; clients between
// two release boundaries speak like the older one.
type band struct {
	min    protocol.Version
	byID   map[route]map[int32]Kind
	byKind map[route]map[Kind]int32
}

func newBand(min protocol.Version, bindings []binding) *band {
	b := &band{
		min:    min,
		byID:   make(map[route]map[int32]Kind),
		byKind: make(map[route]map[Kind]int32),
	}
	for _, bind := range bindings {
		rt := route{bind.phase, bind.dir}
		if b.byID[rt] == nil {
			b.byID[rt] = make(map[int32]Kind)
			b.byKind[rt] = make(map[Kind]int32)
		}
		b.byID[rt][bind.id] = bind.kind
		b.byKind[rt][bind.kind] = bind.id
	}
	return b
}

// Registry maps (version, phase, direction, ID) to packet kinds and
// back. It is built once from the static band tables below and never
// mutated afterwards, so lookups are safe from any goroutine.
//
// Only the packets verification needs are bound. The tables use the
// IDs of each band's anchor release; in-between releases that
// reshuffled IDs inherit the anchor's values, which is as precise as
// the engine needs to be for the traffic it inspects.
type Registry struct {
	bands []*band // ascending by min
}

// NewRegistry builds the packet ID tables.
func NewRegistry() *Registry {
	return &Registry{bands: []*band{
		newBand(protocol.V1_7_2, baseBindings()),
		newBand(protocol.V1_8, append(baseBindings(), []binding{
			{protocol.PhasePlay, Serverbound, 0x00, KindKeepAlive},
			{protocol.PhasePlay, Serverbound, 0x04, KindPlayerPosition},
			{protocol.PhasePlay, Serverbound, 0x06, KindPlayerPositionLook},
			{protocol.PhasePlay, Serverbound, 0x15, KindClientInformation},
			{protocol.PhasePlay, Serverbound, 0x17, KindPluginMessage},
			{protocol.PhasePlay, Serverbound, 0x19, KindResourcePackResponse},
			{protocol.PhasePlay, Clientbound, 0x00, KindKeepAlive},
			{protocol.PhasePlay, Clientbound, 0x01, KindJoinGame},
			{protocol.PhasePlay, Clientbound, 0x08, KindServerPositionLook},
			{protocol.PhasePlay, Clientbound, 0x40, KindDisconnect},
		}...)),
		newBand(protocol.V1_9, append(baseBindings(), []binding{
			{protocol.PhasePlay, Serverbound, 0x00, KindTeleportConfirm},
			{protocol.PhasePlay, Serverbound, 0x04, KindClientInformation},
			{protocol.PhasePlay, Serverbound, 0x09, KindPluginMessage},
			{protocol.PhasePlay, Serverbound, 0x0B, KindKeepAlive},
			{protocol.PhasePlay, Serverbound, 0x0C, KindPlayerPosition},
			{protocol.PhasePlay, Serverbound, 0x0D, KindPlayerPositionLook},
			{protocol.PhasePlay, Serverbound, 0x16, KindResourcePackResponse},
			{protocol.PhasePlay, Clientbound, 0x1A, KindDisconnect},
			{protocol.PhasePlay, Clientbound, 0x1F, KindKeepAlive},
			{protocol.PhasePlay, Clientbound, 0x23, KindJoinGame},
			{protocol.PhasePlay, Clientbound, 0x2E, KindServerPositionLook},
		}...)),
		newBand(protocol.V1_12_1, append(baseBindings(), []binding{
			{protocol.PhasePlay, Serverbound, 0x00, KindTeleportConfirm},
			{protocol.PhasePlay, Serverbound, 0x04, KindClientInformation},
			{protocol.PhasePlay, Serverbound, 0x09, KindPluginMessage},
			{protocol.PhasePlay, Serverbound, 0x0B, KindKeepAlive},
			{protocol.PhasePlay, Serverbound, 0x0D, KindPlayerPosition},
			{protocol.PhasePlay, Serverbound, 0x0E, KindPlayerPositionLook},
			{protocol.PhasePlay, Serverbound, 0x18, KindResourcePackResponse},
			{protocol.PhasePlay, Clientbound, 0x1A, KindDisconnect},
			{protocol.PhasePlay, Clientbound, 0x1F, KindKeepAlive},
			{protocol.PhasePlay, Clientbound, 0x23, KindJoinGame},
			{protocol.PhasePlay, Clientbound, 0x2F, KindServerPositionLook},
		}...)),
		newBand(protocol.V1_13, append(baseBindings(), []binding{
			{protocol.PhasePlay, Serverbound, 0x00, KindTeleportConfirm},
			{protocol.PhasePlay, Serverbound, 0x04, KindClientInformation},
			{protocol.PhasePlay, Serverbound, 0x0A, KindPluginMessage},
			{protocol.PhasePlay, Serverbound, 0x0E, KindKeepAlive},
			{protocol.PhasePlay, Serverbound, 0x10, KindPlayerPosition},
			{protocol.PhasePlay, Serverbound, 0x11, KindPlayerPositionLook},
			{protocol.PhasePlay, Serverbound, 0x1D, KindResourcePackResponse},
			{protocol.PhasePlay, Clientbound, 0x1B, KindDisconnect},
			{protocol.PhasePlay, Clientbound, 0x21, KindKeepAlive},
			{protocol.PhasePlay, Clientbound, 0x25, KindJoinGame},
			{protocol.PhasePlay, Clientbound, 0x32, KindServerPositionLook},
		}...)),
		newBand(protocol.V1_14, append(baseBindings(), []binding{
			{protocol.PhasePlay, Serverbound, 0x00, KindTeleportConfirm},
			{protocol.PhasePlay, Serverbound, 0x05, KindClientInformation},
			{protocol.PhasePlay, Serverbound, 0x0B, KindPluginMessage},
			{protocol.PhasePlay, Serverbound, 0x0F, KindKeepAlive},
			{protocol.PhasePlay, Serverbound, 0x11, KindPlayerPosition},
			{protocol.PhasePlay, Serverbound, 0x12, KindPlayerPositionLook},
			{protocol.PhasePlay, Serverbound, 0x1F, KindResourcePackResponse},
			{protocol.PhasePlay, Clientbound, 0x1A, KindDisconnect},
			{protocol.PhasePlay, Clientbound, 0x20, KindKeepAlive},
			{protocol.PhasePlay, Clientbound, 0x25, KindJoinGame},
			{protocol.PhasePlay, Clientbound, 0x35, KindServerPositionLook},
		}...)),
		newBand(protocol.V1_15, append(baseBindings(), []binding{
			{protocol.PhasePlay, Serverbound, 0x00, KindTeleportConfirm},
			{protocol.PhasePlay, Serverbound, 0x05, KindClientInformation},
			{protocol.PhasePlay, Serverbound, 0x0B, KindPluginMessage},
			{protocol.PhasePlay, Serverbound, 0x0F, KindKeepAlive},
			{protocol.PhasePlay, Serverbound, 0x11, KindPlayerPosition},
			{protocol.PhasePlay, Serverbound, 0x12, KindPlayerPositionLook},
			{protocol.PhasePlay, Serverbound, 0x1F, KindResourcePackResponse},
			{protocol.PhasePlay, Clientbound, 0x1B, KindDisconnect},
			{protocol.PhasePlay, Clientbound, 0x21, KindKeepAlive},
			{protocol.PhasePlay, Clientbound, 0x26, KindJoinGame},
			{protocol.PhasePlay, Clientbound, 0x36, KindServerPositionLook},
		}...)),
		newBand(protocol.V1_16, append(baseBindings(), []binding{
			{protocol.PhasePlay, Serverbound, 0x00, KindTeleportConfirm},
			{protocol.PhasePlay, Serverbound, 0x05, KindClientInformation},
			{protocol.PhasePlay, Serverbound, 0x0B, KindPluginMessage},
			{protocol.PhasePlay, Serverbound, 0x10, KindKeepAlive},
			{protocol.PhasePlay, Serverbound, 0x12, KindPlayerPosition},
			{protocol.PhasePlay, Serverbound, 0x13, KindPlayerPositionLook},
			{protocol.PhasePlay, Serverbound, 0x21, KindResourcePackResponse},
			{protocol.PhasePlay, Clientbound, 0x1A, KindDisconnect},
			{protocol.PhasePlay, Clientbound, 0x20, KindKeepAlive},
			{protocol.PhasePlay, Clientbound, 0x25, KindJoinGame},
			{protocol.PhasePlay, Clientbound, 0x35, KindServerPositionLook},
		}...)),
		newBand(protocol.V1_16_2, append(baseBindings(), []binding{
			{protocol.PhasePlay, Serverbound, 0x00, KindTeleportConfirm},
			{protocol.PhasePlay, Serverbound, 0x05, KindClientInformation},
			{protocol.PhasePlay, Serverbound, 0x0B, KindPluginMessage},
			{protocol.PhasePlay, Serverbound, 0x10, KindKeepAlive},
			{protocol.PhasePlay, Serverbound, 0x12, KindPlayerPosition},
			{protocol.PhasePlay, Serverbound, 0x13, KindPlayerPositionLook},
			{protocol.PhasePlay, Serverbound, 0x21, KindResourcePackResponse},
			{protocol.PhasePlay, Clientbound, 0x19, KindDisconnect},
			{protocol.PhasePlay, Clientbound, 0x1F, KindKeepAlive},
			{protocol.PhasePlay, Clientbound, 0x24, KindJoinGame},
			{protocol.PhasePlay, Clientbound, 0x34, KindServerPositionLook},
		}...)),
		newBand(protocol.V1_17, append(baseBindings(), []binding{
			{protocol.PhasePlay, Serverbound, 0x00, KindTeleportConfirm},
			{protocol.PhasePlay, Serverbound, 0x05, KindClientInformation},
			{protocol.PhasePlay, Serverbound, 0x0A, KindPluginMessage},
			{protocol.PhasePlay, Serverbound, 0x0F, KindKeepAlive},
			{protocol.PhasePlay, Serverbound, 0x11, KindPlayerPosition},
			{protocol.PhasePlay, Serverbound, 0x12, KindPlayerPositionLook},
			{protocol.PhasePlay, Serverbound, 0x21, KindResourcePackResponse},
			{protocol.PhasePlay, Clientbound, 0x1A, KindDisconnect},
			{protocol.PhasePlay, Clientbound, 0x21, KindKeepAlive},
			{protocol.PhasePlay, Clientbound, 0x26, KindJoinGame},
			{protocol.PhasePlay, Clientbound, 0x38, KindServerPositionLook},
		}...)),
		newBand(protocol.V1_19, append(baseBindings(), []binding{
			{protocol.PhasePlay, Serverbound, 0x00, KindTeleportConfirm},
			{protocol.PhasePlay, Serverbound, 0x07, KindClientInformation},
			{protocol.PhasePlay, Serverbound, 0x0C, KindPluginMessage},
			{protocol.PhasePlay, Serverbound, 0x11, KindKeepAlive},
			{protocol.PhasePlay, Serverbound, 0x13, KindPlayerPosition},
			{protocol.PhasePlay, Serverbound, 0x14, KindPlayerPositionLook},
			{protocol.PhasePlay, Serverbound, 0x23, KindResourcePackResponse},
			{protocol.PhasePlay, Clientbound, 0x17, KindDisconnect},
			{protocol.PhasePlay, Clientbound, 0x1E, KindKeepAlive},
			{protocol.PhasePlay, Clientbound, 0x23, KindJoinGame},
			{protocol.PhasePlay, Clientbound, 0x36, KindServerPositionLook},
		}...)),
		newBand(protocol.V1_19_1, append(baseBindings(), []binding{
			{protocol.PhasePlay, Serverbound, 0x00, KindTeleportConfirm},
			{protocol.PhasePlay, Serverbound, 0x08, KindClientInformation},
			{protocol.PhasePlay, Serverbound, 0x0D, KindPluginMessage},
			{protocol.PhasePlay, Serverbound, 0x12, KindKeepAlive},
			{protocol.PhasePlay, Serverbound, 0x14, KindPlayerPosition},
			{protocol.PhasePlay, Serverbound, 0x15, KindPlayerPositionLook},
			{protocol.PhasePlay, Serverbound, 0x24, KindResourcePackResponse},
			{protocol.PhasePlay, Clientbound, 0x19, KindDisconnect},
			{protocol.PhasePlay, Clientbound, 0x20, KindKeepAlive},
			{protocol.PhasePlay, Clientbound, 0x25, KindJoinGame},
			{protocol.PhasePlay, Clientbound, 0x39, KindServerPositionLook},
		}...)),
		newBand(protocol.V1_19_3, append(baseBindings(), []binding{
			{protocol.PhasePlay, Serverbound, 0x00, KindTeleportConfirm},
			{protocol.PhasePlay, Serverbound, 0x07, KindClientInformation},
			{protocol.PhasePlay, Serverbound, 0x0C, KindPluginMessage},
			{protocol.PhasePlay, Serverbound, 0x11, KindKeepAlive},
			{protocol.PhasePlay, Serverbound, 0x13, KindPlayerPosition},
			{protocol.PhasePlay, Serverbound, 0x14, KindPlayerPositionLook},
			{protocol.PhasePlay, Serverbound, 0x24, KindResourcePackResponse},
			{protocol.PhasePlay, Clientbound, 0x17, KindDisconnect},
			{protocol.PhasePlay, Clientbound, 0x1F, KindKeepAlive},
			{protocol.PhasePlay, Clientbound, 0x24, KindJoinGame},
			{protocol.PhasePlay, Clientbound, 0x38, KindServerPositionLook},
		}...)),
		newBand(protocol.V1_19_4, append(baseBindings(), []binding{
			{protocol.PhasePlay, Serverbound, 0x00, KindTeleportConfirm},
			{protocol.PhasePlay, Serverbound, 0x08, KindClientInformation},
			{protocol.PhasePlay, Serverbound, 0x0D, KindPluginMessage},
			{protocol.PhasePlay, Serverbound, 0x12, KindKeepAlive},
			{protocol.PhasePlay, Serverbound, 0x14, KindPlayerPosition},
			{protocol.PhasePlay, Serverbound, 0x15, KindPlayerPositionLook},
			{protocol.PhasePlay, Serverbound, 0x27, KindResourcePackResponse},
			{protocol.PhasePlay, Clientbound, 0x1A, KindDisconnect},
			{protocol.PhasePlay, Clientbound, 0x23, KindKeepAlive},
			{protocol.PhasePlay, Clientbound, 0x28, KindJoinGame},
			{protocol.PhasePlay, Clientbound, 0x3C, KindServerPositionLook},
		}...)),
		newBand(protocol.V1_20_2, append(baseBindings(), []binding{
			{protocol.PhaseLogin, Serverbound, 0x03, KindLoginAcknowledged},
			{protocol.PhaseConfig, Serverbound, 0x00, KindClientInformation},
			{protocol.PhaseConfig, Serverbound, 0x01, KindPluginMessage},
			{protocol.PhaseConfig, Serverbound, 0x02, KindFinishConfiguration},
			{protocol.PhaseConfig, Serverbound, 0x03, KindKeepAlive},
			{protocol.PhaseConfig, Clientbound, 0x00, KindPluginMessage},
			{protocol.PhaseConfig, Clientbound, 0x01, KindDisconnect},
			{protocol.PhaseConfig, Clientbound, 0x02, KindFinishConfiguration},
			{protocol.PhaseConfig, Clientbound, 0x03, KindKeepAlive},
			{protocol.PhaseConfig, Clientbound, 0x05, KindRegistryData},
			{protocol.PhasePlay, Serverbound, 0x00, KindTeleportConfirm},
			{protocol.PhasePlay, Serverbound, 0x09, KindClientInformation},
			{protocol.PhasePlay, Serverbound, 0x0F, KindPluginMessage},
			{protocol.PhasePlay, Serverbound, 0x14, KindKeepAlive},
			{protocol.PhasePlay, Serverbound, 0x16, KindPlayerPosition},
			{protocol.PhasePlay, Serverbound, 0x17, KindPlayerPositionLook},
			{protocol.PhasePlay, Serverbound, 0x27, KindResourcePackResponse},
			{protocol.PhasePlay, Clientbound, 0x1B, KindDisconnect},
			{protocol.PhasePlay, Clientbound, 0x24, KindKeepAlive},
			{protocol.PhasePlay, Clientbound, 0x29, KindJoinGame},
			{protocol.PhasePlay, Clientbound, 0x3E, KindServerPositionLook},
		}...)),
		newBand(protocol.V1_20_5, append(baseBindings(), []binding{
			{protocol.PhaseLogin, Serverbound, 0x03, KindLoginAcknowledged},
			{protocol.PhaseConfig, Serverbound, 0x00, KindClientInformation},
			{protocol.PhaseConfig, Serverbound, 0x02, KindPluginMessage},
			{protocol.PhaseConfig, Serverbound, 0x03, KindFinishConfiguration},
			{protocol.PhaseConfig, Serverbound, 0x04, KindKeepAlive},
			{protocol.PhaseConfig, Clientbound, 0x01, KindPluginMessage},
			{protocol.PhaseConfig, Clientbound, 0x02, KindDisconnect},
			{protocol.PhaseConfig, Clientbound, 0x03, KindFinishConfiguration},
			{protocol.PhaseConfig, Clientbound, 0x04, KindKeepAlive},
			{protocol.PhaseConfig, Clientbound, 0x07, KindRegistryData},
			{protocol.PhasePlay, Serverbound, 0x00, KindTeleportConfirm},
			{protocol.PhasePlay, Serverbound, 0x0A, KindClientInformation},
			{protocol.PhasePlay, Serverbound, 0x12, KindPluginMessage},
			{protocol.PhasePlay, Serverbound, 0x18, KindKeepAlive},
			{protocol.PhasePlay, Serverbound, 0x1A, KindPlayerPosition},
			{protocol.PhasePlay, Serverbound, 0x1B, KindPlayerPositionLook},
			{protocol.PhasePlay, Serverbound, 0x28, KindResourcePackResponse},
			{protocol.PhasePlay, Clientbound, 0x1D, KindDisconnect},
			{protocol.PhasePlay, Clientbound, 0x26, KindKeepAlive},
			{protocol.PhasePlay, Clientbound, 0x2B, KindJoinGame},
			{protocol.PhasePlay, Clientbound, 0x40, KindServerPositionLook},
		}...)),
	}}
}

// baseBindings returns the handshake, status, and login bindings that
// never moved across versions.
func baseBindings() []binding {
	return []binding{
		{protocol.PhaseHandshake, Serverbound, 0x00, KindHandshake},
		{protocol.PhaseStatus, Serverbound, 0x00, KindStatusRequest},
		{protocol.PhaseStatus, Serverbound, 0x01, KindPing},
		{protocol.PhaseStatus, Clientbound, 0x00, KindStatusResponse},
		{protocol.PhaseStatus, Clientbound, 0x01, KindPing},
		{protocol.PhaseLogin, Serverbound, 0x00, KindLoginStart},
		{protocol.PhaseLogin, Clientbound, 0x00, KindLoginDisconnect},
		{protocol.PhaseLogin, Clientbound, 0x02, KindLoginSuccess},
	}
}

// bandFor returns the band covering v: the highest band whose minimum
// does not exceed v. Versions below the oldest band get the oldest
// band; the caller is expected to gate unsupported versions earlier.
func (reg *Registry) bandFor(v protocol.Version) *band {
	sel := reg.bands[0]
	for _, b := range reg.bands[1:] {
		if v >= b.min {
			sel = b
		}
	}
	return sel
}

// Lookup resolves a wire ID to a packet kind. The second return is
// false when the engine has no binding for the ID, which the framing
// layer treats as an ignorable packet rather than an error.
func (reg *Registry) Lookup(v protocol.Version, phase protocol.Phase, dir Direction, id int32) (Kind, bool) {
	k, ok := reg.bandFor(v).byID[route{phase, dir}][id]
	return k, ok
}

// ID resolves a packet kind to its wire ID for the given version and
// phase. The second return is false when the kind does not exist on
// that route, which is a programming error surfaced by tests rather
// than a runtime condition.
func (reg *Registry) ID(v protocol.Version, phase protocol.Phase, dir Direction, k Kind) (int32, bool) {
	id, ok := reg.bandFor(v).byKind[route{phase, dir}][k]
	return id, ok
}
