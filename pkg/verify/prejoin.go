package verify

import (
	"github.com/bastionmc/bastion/pkg/protocol"
	"github.com/bastionmc/bastion/pkg/protocol/packets"
	"github.com/bastionmc/bastion/pkg/world"
)

// handlePreJoin consumes packets between login success and the fall.
// For 1.8–1.20.1 that is the keep-alive echo; for 1.20.2+ the whole
// configuration exchange happens here.
func (s *Session) handlePreJoin(p packets.Packet) error {
	switch pkt := p.(type) {
	case *packets.LoginStart:
		return fail(KindProtocol, "sent duplicate login packet")
	case *packets.LoginAcknowledged:
		return s.handleLoginAck()
	case *packets.KeepAlive:
		return s.handleKeepAlive(pkt)
	case *packets.ClientInformation:
		return s.recordSettings(pkt)
	case *packets.PluginMessage:
		return s.recordPluginMessage(pkt)
	case *packets.FinishConfiguration:
		return s.handleConfigAck()
	case *packets.ResourcePackResponse:
		return nil
	case *packets.TeleportConfirm, *packets.PlayerPosition, *packets.PlayerPositionLook:
		return fail(KindProtocol, "handler not initialized yet")
	default:
		return failf(KindProtocol, "bad packet: %v", p.Kind())
	}
}

// handleLoginAck moves a 1.20.2+ client into the configuration phase
// and flushes the whole exchange at once: registry payloads, the nonce
// keep-alive, then the finish line. The keep-alive goes out before
// FinishConfiguration so the client answers it while still in the
// configuration phase.
func (s *Session) handleLoginAck() error {
	if s.strat != strategyConfig {
		return fail(KindProtocol, "bad packet: LoginAcknowledged")
	}
	if s.ackedLogin {
		return fail(KindProtocol, "sent duplicate login ack")
	}
	s.ackedLogin = true
	s.phase = protocol.PhaseConfig

	for _, payload := range world.RegistrySync(s.version) {
		if err := s.send(protocol.PhaseConfig, &packets.RegistryData{Payload: payload}); err != nil {
			return err
		}
	}
	nonce, err := randomNonce()
	if err != nil {
		return err
	}
	s.expectedKA = nonce
	if err := s.send(protocol.PhaseConfig, &packets.KeepAlive{ID: nonce}); err != nil {
		return err
	}
	if err := s.send(protocol.PhaseConfig, &packets.FinishConfiguration{}); err != nil {
		return err
	}
	return s.flush()
}

// handleKeepAlive checks the nonce echo. Once the challenge is
// answered the expected ID drops to zero, and zero-ID keep-alives are
// tolerated afterwards: 1.8 clients send one every second while the
// world loads.
func (s *Session) handleKeepAlive(p *packets.KeepAlive) error {
	if s.kaVerified {
		if p.ID == 0 {
			return nil
		}
		return failf(KindChallenge, "sent unexpected keep-alive %d", p.ID)
	}
	if s.expectedKA == 0 {
		return fail(KindProtocol, "sent keep-alive before challenge")
	}
	if p.ID != s.expectedKA {
		return failf(KindChallenge, "answered keep-alive with %d, expected %d", p.ID, s.expectedKA)
	}
	s.kaVerified = true
	s.expectedKA = 0
	if s.strat == strategyConfig {
		// The fall starts once the client acknowledges configuration.
		return nil
	}
	return s.enterGravity()
}

// handleConfigAck completes the 1.20.2+ pre-join: the client consents
// to leave configuration, which is only acceptable after the nonce came
// back and the metadata arrived.
func (s *Session) handleConfigAck() error {
	if !s.kaVerified {
		return fail(KindChallenge, "acknowledged configuration before answering keep-alive")
	}
	if err := s.validateMetadataLocked(); err != nil {
		return err
	}
	return s.enterGravity()
}

// recordSettings validates and stores the client settings. Vanilla
// clients resend them on change; the last one wins.
func (s *Session) recordSettings(p *packets.ClientInformation) error {
	if p.SkinParts&packets.SkinPartsReservedMask != 0 {
		return fail(KindProtocol, "sent unused bit flag")
	}
	if int(p.ViewDistance) < s.eng.cfg.MinViewDistance {
		return failf(KindProtocol, "sent too low view distance: %d", p.ViewDistance)
	}
	if !s.eng.localeRE.MatchString(p.Locale) {
		return failf(KindProtocol, "sent invalid locale: %q", p.Locale)
	}
	s.settings = p
	return nil
}

// recordPluginMessage cares about the brand channel only; every other
// channel is mod noise the engine ignores.
func (s *Session) recordPluginMessage(p *packets.PluginMessage) error {
	if !p.IsBrand() {
		return nil
	}
	if p.Channel == packets.BrandChannelModern && s.version < protocol.V1_13 {
		return fail(KindProtocol, "sent namespaced brand channel on legacy version")
	}
	if p.Channel == packets.BrandChannelLegacy && s.version >= protocol.V1_13 {
		return fail(KindProtocol, "sent legacy brand channel on modern version")
	}
	if s.gotBrand {
		return fail(KindProtocol, "sent duplicate plugin message")
	}
	brand, err := decodeBrand(p.Data, s.version)
	if err != nil {
		return fail(KindProtocol, "sent invalid brand")
	}
	if len(brand) == 0 || len(brand) > s.eng.cfg.BrandMaxLength {
		return failf(KindProtocol, "sent brand of length %d", len(brand))
	}
	// The vanilla client reports "vanilla"; the capitalized spelling
	// only ever comes from imitations.
	if brand == "Vanilla" {
		return fail(KindProtocol, "sent invalid brand")
	}
	if !s.eng.brandRE.MatchString(brand) {
		return fail(KindProtocol, "sent invalid brand")
	}
	s.brand = brand
	s.gotBrand = true
	return nil
}

// decodeBrand extracts the brand string from the payload: raw bytes on
// 1.7, a length-prefixed string from 1.8 on.
func decodeBrand(data []byte, v protocol.Version) (string, error) {
	if v < protocol.V1_8 {
		return string(data), nil
	}
	return protocol.NewReader(data).String(maxBrandWire)
}

// maxBrandWire bounds the decoded brand string; anything longer is
// rejected before the configured limit is even consulted.
const maxBrandWire = 256

// validateMetadataLocked checks that the pre-join collected everything
// a real client sends. Bedrock-bridged connections carry no brand, and
// the brand requirement can be switched off entirely.
func (s *Session) validateMetadataLocked() error {
	if s.settings == nil {
		return fail(KindProtocol, "didn't send client settings")
	}
	if !s.eng.cfg.SkipBrandCheck && !s.geyser && !s.gotBrand {
		return fail(KindProtocol, "didn't send plugin message")
	}
	return nil
}
