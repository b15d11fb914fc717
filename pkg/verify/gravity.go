package verify

import (
	"math"

	"github.com/bastionmc/bastion/pkg/protocol"
	"github.com/bastionmc/bastion/pkg/protocol/packets"
	"github.com/bastionmc/bastion/pkg/world"
)

// Constants for the synthetic fall world. Nothing here is visible to
// the player; the values only have to be internally consistent.
const (
	playerEntityID    = 1
	gameModeAdventure = 2
	spawnX            = 8.5
	spawnZ            = 8.5
	worldName         = "minecraft:overworld"
	legacyLevelType   = "flat"
)

// enterGravity sends the world and the spawn teleport, then hands the
// session to the fall handler. With the gravity check disabled the
// world is still sent, because real clients report their settings and
// brand only after joining; the session then verifies on metadata
// alone.
func (s *Session) enterGravity() error {
	s.stage = StageGravity
	s.phase = protocol.PhasePlay

	if err := s.send(protocol.PhasePlay, s.joinGame()); err != nil {
		return err
	}
	nonce, err := randomNonce()
	if err != nil {
		return err
	}
	s.teleportID = int32(nonce)
	s.awaitTeleport = s.version >= protocol.V1_9
	pos := &packets.ServerPositionLook{
		X:          spawnX,
		Y:          s.eng.cfg.SpawnY,
		Z:          spawnZ,
		TeleportID: s.teleportID,
	}
	if err := s.send(protocol.PhasePlay, pos); err != nil {
		return err
	}
	if err := s.flush(); err != nil {
		return err
	}

	if s.eng.cfg.SkipGravityCheck {
		if s.validateMetadataLocked() == nil {
			return errVerified
		}
		s.metaOnly = true
	}
	return nil
}

// handleGravity consumes packets during the fall.
func (s *Session) handleGravity(p packets.Packet) error {
	switch pkt := p.(type) {
	case *packets.KeepAlive:
		return s.handleKeepAlive(pkt)
	case *packets.ClientInformation:
		if err := s.recordSettings(pkt); err != nil {
			return err
		}
		return s.maybeFinishMetaOnly()
	case *packets.PluginMessage:
		if err := s.recordPluginMessage(pkt); err != nil {
			return err
		}
		return s.maybeFinishMetaOnly()
	case *packets.TeleportConfirm:
		return s.handleTeleportConfirm(pkt)
	case *packets.PlayerPosition:
		return s.handleMove(pkt.Y, pkt.OnGround)
	case *packets.PlayerPositionLook:
		return s.handleMove(pkt.Y, pkt.OnGround)
	case *packets.ResourcePackResponse:
		return nil
	default:
		return failf(KindProtocol, "bad packet: %v", p.Kind())
	}
}

func (s *Session) maybeFinishMetaOnly() error {
	if s.metaOnly && s.validateMetadataLocked() == nil {
		return errVerified
	}
	return nil
}

// handleTeleportConfirm checks the 1.9+ teleport acknowledgement. The
// ID must match and arrive exactly once, before any movement.
func (s *Session) handleTeleportConfirm(p *packets.TeleportConfirm) error {
	if !s.awaitTeleport {
		return fail(KindProtocol, "confirmed teleport twice")
	}
	if p.TeleportID != s.teleportID {
		return failf(KindChallenge, "confirmed teleport %d, expected %d", p.TeleportID, s.teleportID)
	}
	s.awaitTeleport = false
	return nil
}

// handleMove advances the fall by one movement report. The client may
// restate the spawn position before physics kicks in (the vanilla
// client echoes a teleport that way); after that every airborne report
// must track the trajectory tick for tick, and the grounded report
// must land exactly on the precomputed tick at floor height.
func (s *Session) handleMove(y float64, onGround bool) error {
	if s.awaitTeleport {
		return fail(KindProtocol, "moved before confirming teleport")
	}
	if s.metaOnly {
		return nil
	}
	traj := s.eng.traj

	if onGround {
		if s.tick != traj.LandingTick() {
			return failf(KindChallenge, "grounded on tick %d, expected %d", s.tick, traj.LandingTick())
		}
		if !s.withinTolerance(y, traj.FloorY) {
			return failf(KindChallenge, "landed at y %v, expected %v", y, traj.FloorY)
		}
		if err := s.validateMetadataLocked(); err != nil {
			return err
		}
		return errVerified
	}

	if s.tick == 0 && s.withinTolerance(y, traj.SpawnY) {
		return nil
	}
	if s.tick >= traj.LandingTick() {
		return failf(KindChallenge, "still airborne on tick %d", s.tick)
	}
	expected, ok := traj.ExpectedY(s.tick)
	if !ok {
		return failf(KindChallenge, "still airborne on tick %d", s.tick)
	}
	if !s.withinTolerance(y, expected) {
		return failf(KindChallenge, "tick %d at y %v, expected %v", s.tick, y, expected)
	}
	s.tick++
	return nil
}

// withinTolerance compares a reported coordinate against the
// trajectory with the configured relative tolerance.
func (s *Session) withinTolerance(y, expected float64) bool {
	scale := math.Max(1, math.Abs(expected))
	return math.Abs(y-expected) <= s.eng.cfg.FallTolerance*scale
}

// joinGame assembles the join packet for the session's version. The
// 1.16–1.20.1 bands carry the registry codec inline; newer clients got
// it during configuration, older ones use the numeric dimension.
func (s *Session) joinGame() *packets.JoinGame {
	j := &packets.JoinGame{
		EntityID:      playerEntityID,
		GameMode:      gameModeAdventure,
		PrevGameMode:  -1,
		WorldName:     worldName,
		DimensionKey:  world.DimensionKey,
		DimensionID:   world.DimensionID,
		MaxPlayers:    1,
		ViewDistance:  2,
		SimDistance:   2,
		RespawnScreen: true,
		LevelType:     legacyLevelType,
	}
	if s.version >= protocol.V1_16 && s.version < protocol.V1_20_2 {
		j.DimensionCodec = world.DimensionCodec(s.version)
		j.DimensionType = world.DimensionType(s.version)
	}
	return j
}
