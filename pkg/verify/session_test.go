package verify

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pion/logging"

	"github.com/bastionmc/bastion/pkg/protocol"
	"github.com/bastionmc/bastion/pkg/protocol/packets"
	"github.com/bastionmc/bastion/pkg/world"
)

// captureSink records what a session writes.
type captureSink struct {
	mu     sync.Mutex
	frames []*protocol.Frame
}

func (cs *captureSink) WriteFrame(id int32, body []byte) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	b := make([]byte, len(body))
	copy(b, body)
	cs.frames = append(cs.frames, &protocol.Frame{ID: id, Body: b})
	return nil
}

func (cs *captureSink) Flush() error { return nil }

// take drains the captured frames.
func (cs *captureSink) take() []*protocol.Frame {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	frames := cs.frames
	cs.frames = nil
	return frames
}

type harness struct {
	t     *testing.T
	eng   *Engine
	sess  *Session
	sink  *captureSink
	v     protocol.Version
	done  chan error
	calls atomic.Int32
}

func newHarness(t *testing.T, v protocol.Version, cfg Config, geyser bool) *harness {
	t.Helper()
	eng, err := NewEngine(cfg, logging.NewDefaultLoggerFactory())
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	h := &harness{
		t:    t,
		eng:  eng,
		sink: &captureSink{},
		v:    v,
		done: make(chan error, 1),
	}
	h.sess = eng.NewSession(SessionParams{
		Sink:     h.sink,
		Addr:     "203.0.113.5",
		Username: "Steve",
		Version:  v,
		Geyser:   geyser,
		OnDone: func(err error) {
			h.calls.Add(1)
			h.done <- err
		},
	})
	return h
}

// feed encodes p the way a client would and hands the frame to the
// session, resolving the packet ID for the given phase.
func (h *harness) feed(ph protocol.Phase, p packets.Packet) {
	h.t.Helper()
	id, ok := h.eng.Registry().ID(h.v, ph, packets.Serverbound, p.Kind())
	if !ok {
		h.t.Fatalf("no serverbound %v id for %v in %v", p.Kind(), h.v, ph)
	}
	var w protocol.Writer
	if err := p.Encode(&w, h.v); err != nil {
		h.t.Fatalf("encode %v: %v", p.Kind(), err)
	}
	h.sess.HandleFrame(&protocol.Frame{ID: id, Body: w.Bytes()})
}

// feedBody is feed for packets without a client-side encoder.
func (h *harness) feedBody(ph protocol.Phase, kind packets.Kind, body []byte) {
	h.t.Helper()
	id, ok := h.eng.Registry().ID(h.v, ph, packets.Serverbound, kind)
	if !ok {
		h.t.Fatalf("no serverbound %v id for %v in %v", kind, h.v, ph)
	}
	h.sess.HandleFrame(&protocol.Frame{ID: id, Body: body})
}

func (h *harness) verdict() error {
	h.t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(2 * time.Second):
		h.t.Fatal("session did not resolve")
		return nil
	}
}

func (h *harness) wantVerified() {
	h.t.Helper()
	if err := h.verdict(); err != nil {
		h.t.Fatalf("session failed: %v", err)
	}
	if got := h.sess.Stage(); got != StageSuccess {
		h.t.Fatalf("Stage() = %v, want %v", got, StageSuccess)
	}
}

func (h *harness) wantFail(kind Kind) *FailError {
	h.t.Helper()
	err := h.verdict()
	if err == nil {
		h.t.Fatal("session verified, want failure")
	}
	fe := Classify(err)
	if fe.Kind != kind {
		h.t.Fatalf("failed with %v (%q), want %v", fe.Kind, fe.Reason, kind)
	}
	if got := h.sess.Stage(); got != StageFailed {
		h.t.Fatalf("Stage() = %v, want %v", got, StageFailed)
	}
	return fe
}

func (h *harness) wantPending() {
	h.t.Helper()
	select {
	case err := <-h.done:
		h.t.Fatalf("session resolved early: %v", err)
	default:
	}
}

// wantKind resolves the frame's clientbound kind in the given phase.
func (h *harness) wantKind(f *protocol.Frame, ph protocol.Phase, want packets.Kind) {
	h.t.Helper()
	kind, ok := h.eng.Registry().Lookup(h.v, ph, packets.Clientbound, f.ID)
	if !ok {
		h.t.Fatalf("unknown clientbound id %#x in %v", f.ID, ph)
	}
	if kind != want {
		h.t.Fatalf("frame kind = %v, want %v", kind, want)
	}
}

// wantSent drains the sink and checks the clientbound kinds in order.
// All frames must belong to the same phase.
func (h *harness) wantSent(ph protocol.Phase, kinds ...packets.Kind) []*protocol.Frame {
	h.t.Helper()
	frames := h.sink.take()
	if len(frames) != len(kinds) {
		h.t.Fatalf("wrote %d frames, want %d", len(frames), len(kinds))
	}
	for i, f := range frames {
		h.wantKind(f, ph, kinds[i])
	}
	return frames
}

func kaNonce(t *testing.T, f *protocol.Frame, v protocol.Version) int64 {
	t.Helper()
	var ka packets.KeepAlive
	if err := ka.Decode(protocol.NewReader(f.Body), v); err != nil {
		t.Fatalf("decode keep-alive: %v", err)
	}
	if ka.ID == 0 {
		t.Fatal("challenge nonce is zero")
	}
	return ka.ID
}

func teleportIDOf(t *testing.T, f *protocol.Frame) int32 {
	t.Helper()
	r := protocol.NewReader(f.Body)
	for i := 0; i < 3; i++ {
		if _, err := r.Float64(); err != nil {
			t.Fatalf("position field %d: %v", i, err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := r.Float32(); err != nil {
			t.Fatalf("rotation field %d: %v", i, err)
		}
	}
	if _, err := r.Uint8(); err != nil {
		t.Fatalf("flags field: %v", err)
	}
	id, err := r.VarInt()
	if err != nil {
		t.Fatalf("teleport id: %v", err)
	}
	return id
}

func testSettings() *packets.ClientInformation {
	return &packets.ClientInformation{
		Locale:       "en_US",
		ViewDistance: 8,
		ChatColors:   true,
		SkinParts:    0x7F,
		MainHand:     1,
	}
}

func brandMessage(v protocol.Version, brand string) *packets.PluginMessage {
	var w protocol.Writer
	if v >= protocol.V1_8 {
		w.String(brand)
	} else {
		w.Raw([]byte(brand))
	}
	return &packets.PluginMessage{Channel: packets.BrandChannel(v), Data: w.Bytes()}
}

// startedHarness runs a 1.8 session through Start and returns the
// challenge nonce. The client has login success and one keep-alive in
// hand and owes the echo.
func startedHarness(t *testing.T, cfg Config, geyser bool) (*harness, int64) {
	t.Helper()
	h := newHarness(t, protocol.V1_8, cfg, geyser)
	h.sess.Start()
	frames := h.sink.take()
	if len(frames) != 2 {
		t.Fatalf("start wrote %d frames, want 2", len(frames))
	}
	h.wantKind(frames[0], protocol.PhaseLogin, packets.KindLoginSuccess)
	h.wantKind(frames[1], protocol.PhasePlay, packets.KindKeepAlive)
	return h, kaNonce(t, frames[1], h.v)
}

// fallingHarness additionally answers the challenge and consumes the
// world batch: the session is mid-fall with no metadata recorded yet.
func fallingHarness(t *testing.T, cfg Config, geyser bool) *harness {
	t.Helper()
	h, nonce := startedHarness(t, cfg, geyser)
	h.feed(protocol.PhasePlay, &packets.KeepAlive{ID: nonce})
	h.wantSent(protocol.PhasePlay, packets.KindJoinGame, packets.KindServerPositionLook)
	return h
}

// gravityHarness additionally reports valid metadata, leaving only the
// fall itself.
func gravityHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := fallingHarness(t, cfg, false)
	h.feed(protocol.PhasePlay, testSettings())
	h.feed(protocol.PhasePlay, brandMessage(h.v, "vanilla"))
	return h
}

// completeFall replays the precomputed trajectory tick by tick and
// resolves the landing.
func (h *harness) completeFall() {
	h.t.Helper()
	traj := h.eng.Trajectory()
	for tick := 0; tick < traj.LandingTick(); tick++ {
		y, ok := traj.ExpectedY(tick)
		if !ok {
			h.t.Fatalf("no expected y for tick %d", tick)
		}
		h.feed(protocol.PhasePlay, &packets.PlayerPosition{X: 8.5, Y: y, Z: 8.5})
	}
	h.feed(protocol.PhasePlay, &packets.PlayerPosition{
		X: 8.5, Y: traj.FloorY, Z: 8.5, OnGround: true,
	})
}

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		v    protocol.Version
		want strategy
	}{
		{protocol.V1_7_2, strategyDelay},
		{protocol.V1_8, strategyKeepAlive},
		{protocol.V1_12_2, strategyKeepAlive},
		{protocol.V1_20, strategyKeepAlive},
		{protocol.V1_20_2, strategyConfig},
		{protocol.V1_20_5, strategyConfig},
	}
	for _, tt := range tests {
		if got := strategyFor(tt.v); got != tt.want {
			t.Errorf("strategyFor(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestKeepAliveVerification(t *testing.T) {
	h, nonce := startedHarness(t, Config{}, false)

	h.feed(protocol.PhasePlay, &packets.KeepAlive{ID: nonce})
	h.wantSent(protocol.PhasePlay, packets.KindJoinGame, packets.KindServerPositionLook)
	if got := h.sess.Stage(); got != StageGravity {
		t.Fatalf("Stage() = %v, want %v", got, StageGravity)
	}

	h.feed(protocol.PhasePlay, testSettings())
	h.feed(protocol.PhasePlay, brandMessage(h.v, "vanilla"))

	// The client may restate the spawn position before physics starts.
	h.feed(protocol.PhasePlay, &packets.PlayerPositionLook{
		X: 8.5, Y: h.eng.Trajectory().SpawnY, Z: 8.5, Yaw: 90,
	})
	h.wantPending()

	h.completeFall()
	h.wantVerified()

	if got := h.calls.Load(); got != 1 {
		t.Fatalf("verdict callback ran %d times, want 1", got)
	}
}

func TestConfigVerification(t *testing.T) {
	h := newHarness(t, protocol.V1_20_5, Config{}, false)
	h.sess.Start()
	frames := h.sink.take()
	if len(frames) != 1 {
		t.Fatalf("start wrote %d frames, want 1", len(frames))
	}
	h.wantKind(frames[0], protocol.PhaseLogin, packets.KindLoginSuccess)

	// Acknowledging login opens configuration: registry payloads, the
	// nonce challenge, then the finish line, in one flush.
	h.feedBody(protocol.PhaseLogin, packets.KindLoginAcknowledged, nil)
	syncs := len(world.RegistrySync(h.v))
	if syncs == 0 {
		t.Fatal("no registry sync payloads for 1.20.5")
	}
	kinds := make([]packets.Kind, 0, syncs+2)
	for i := 0; i < syncs; i++ {
		kinds = append(kinds, packets.KindRegistryData)
	}
	kinds = append(kinds, packets.KindKeepAlive, packets.KindFinishConfiguration)
	frames = h.wantSent(protocol.PhaseConfig, kinds...)
	nonce := kaNonce(t, frames[syncs], h.v)

	h.feed(protocol.PhaseConfig, testSettings())
	h.feed(protocol.PhaseConfig, brandMessage(h.v, "vanilla"))
	h.feed(protocol.PhaseConfig, &packets.KeepAlive{ID: nonce})
	h.wantPending()

	h.feed(protocol.PhaseConfig, &packets.FinishConfiguration{})
	frames = h.wantSent(protocol.PhasePlay, packets.KindJoinGame, packets.KindServerPositionLook)
	tid := teleportIDOf(t, frames[1])

	h.feed(protocol.PhasePlay, &packets.TeleportConfirm{TeleportID: tid})
	h.completeFall()
	h.wantVerified()
}

func TestDelayAutoSuccess(t *testing.T) {
	h := newHarness(t, protocol.V1_7_2, Config{AutoSuccessDelay: 20 * time.Millisecond}, false)
	h.sess.Start()

	// Nothing is written to clients too old to challenge.
	if frames := h.sink.take(); len(frames) != 0 {
		t.Fatalf("wrote %d frames, want 0", len(frames))
	}
	h.wantVerified()
	if frames := h.sink.take(); len(frames) != 0 {
		t.Fatalf("wrote %d frames after verdict, want 0", len(frames))
	}
}

func TestDelayMisbehaviorBeatsTimer(t *testing.T) {
	h := newHarness(t, protocol.V1_7_2, Config{AutoSuccessDelay: 20 * time.Millisecond}, false)
	h.sess.Start()

	// A duplicate login start fails before the delayed success fires.
	h.feed(protocol.PhaseLogin, &packets.LoginStart{Username: "Steve"})
	h.wantFail(KindProtocol)

	time.Sleep(40 * time.Millisecond)
	if got := h.calls.Load(); got != 1 {
		t.Fatalf("verdict callback ran %d times, want 1", got)
	}
}

func TestDeadlineFailsAsChallenge(t *testing.T) {
	h := newHarness(t, protocol.V1_8, Config{Deadline: 15 * time.Millisecond}, false)
	h.sess.Start()
	h.sink.take()

	fe := h.wantFail(KindChallenge)
	if fe.Benign() {
		t.Fatal("deadline verdict is benign, want blacklisting")
	}
}

func TestKeepAliveMismatch(t *testing.T) {
	h, nonce := startedHarness(t, Config{}, false)

	h.feed(protocol.PhasePlay, &packets.KeepAlive{ID: nonce + 1})
	h.wantFail(KindChallenge)
}

func TestKeepAliveIdleTolerated(t *testing.T) {
	h := fallingHarness(t, Config{}, false)

	// 1.8 clients ping with ID zero while the world loads.
	h.feed(protocol.PhasePlay, &packets.KeepAlive{ID: 0})
	h.wantPending()

	// Any other ID after the challenge is answered is a replay.
	h.feed(protocol.PhasePlay, &packets.KeepAlive{ID: 7})
	h.wantFail(KindChallenge)
}

func TestFloodCeiling(t *testing.T) {
	h, _ := startedHarness(t, Config{MaxLoginPackets: 3}, false)

	// Unbound IDs are ignored but still counted.
	for i := 0; i < 3; i++ {
		h.sess.HandleFrame(&protocol.Frame{ID: 0x5E})
		h.wantPending()
	}
	h.sess.HandleFrame(&protocol.Frame{ID: 0x5E})
	h.wantFail(KindFlood)
}

func TestMovementBeforeWorld(t *testing.T) {
	h, _ := startedHarness(t, Config{}, false)

	h.feed(protocol.PhasePlay, &packets.PlayerPosition{X: 8.5, Y: 72, Z: 8.5})
	h.wantFail(KindProtocol)
}

func TestGravityDeviation(t *testing.T) {
	h := gravityHarness(t, Config{})
	y, _ := h.eng.Trajectory().ExpectedY(0)

	h.feed(protocol.PhasePlay, &packets.PlayerPosition{X: 8.5, Y: y + 0.01, Z: 8.5})
	h.wantFail(KindChallenge)
}

func TestGravityEarlyGrounding(t *testing.T) {
	h := gravityHarness(t, Config{})

	h.feed(protocol.PhasePlay, &packets.PlayerPosition{
		X: 8.5, Y: h.eng.Trajectory().FloorY, Z: 8.5, OnGround: true,
	})
	h.wantFail(KindChallenge)
}

func TestGravityOvershoot(t *testing.T) {
	h := gravityHarness(t, Config{})
	traj := h.eng.Trajectory()

	for tick := 0; tick < traj.LandingTick(); tick++ {
		y, _ := traj.ExpectedY(tick)
		h.feed(protocol.PhasePlay, &packets.PlayerPosition{X: 8.5, Y: y, Z: 8.5})
	}
	// The landing tick must come in grounded, not airborne.
	h.feed(protocol.PhasePlay, &packets.PlayerPosition{X: 8.5, Y: traj.FloorY, Z: 8.5})
	h.wantFail(KindChallenge)
}

// configGravityHarness runs a 1.20.5 session up to the spawn teleport
// and returns the pending teleport ID.
func configGravityHarness(t *testing.T) (*harness, int32) {
	t.Helper()
	h := newHarness(t, protocol.V1_20_5, Config{}, false)
	h.sess.Start()
	h.sink.take()
	h.feedBody(protocol.PhaseLogin, packets.KindLoginAcknowledged, nil)
	frames := h.sink.take()
	if len(frames) < 2 {
		t.Fatalf("configuration wrote %d frames, want at least 2", len(frames))
	}
	nonce := kaNonce(t, frames[len(frames)-2], h.v)
	h.feed(protocol.PhaseConfig, testSettings())
	h.feed(protocol.PhaseConfig, brandMessage(h.v, "vanilla"))
	h.feed(protocol.PhaseConfig, &packets.KeepAlive{ID: nonce})
	h.feed(protocol.PhaseConfig, &packets.FinishConfiguration{})
	frames = h.wantSent(protocol.PhasePlay, packets.KindJoinGame, packets.KindServerPositionLook)
	return h, teleportIDOf(t, frames[1])
}

func TestTeleportConfirmWrongID(t *testing.T) {
	h, tid := configGravityHarness(t)

	h.feed(protocol.PhasePlay, &packets.TeleportConfirm{TeleportID: tid + 1})
	h.wantFail(KindChallenge)
}

func TestTeleportConfirmDuplicate(t *testing.T) {
	h, tid := configGravityHarness(t)

	h.feed(protocol.PhasePlay, &packets.TeleportConfirm{TeleportID: tid})
	h.wantPending()
	h.feed(protocol.PhasePlay, &packets.TeleportConfirm{TeleportID: tid})
	h.wantFail(KindProtocol)
}

func TestMoveBeforeTeleportConfirm(t *testing.T) {
	h, _ := configGravityHarness(t)

	y, _ := h.eng.Trajectory().ExpectedY(0)
	h.feed(protocol.PhasePlay, &packets.PlayerPosition{X: 8.5, Y: y, Z: 8.5})
	h.wantFail(KindProtocol)
}

func TestConfigAckBeforeKeepAlive(t *testing.T) {
	h := newHarness(t, protocol.V1_20_5, Config{}, false)
	h.sess.Start()
	h.sink.take()
	h.feedBody(protocol.PhaseLogin, packets.KindLoginAcknowledged, nil)
	h.sink.take()

	// Leaving configuration without answering the nonce.
	h.feed(protocol.PhaseConfig, &packets.FinishConfiguration{})
	h.wantFail(KindChallenge)
}

func TestDuplicateLoginStart(t *testing.T) {
	h := newHarness(t, protocol.V1_20_5, Config{}, false)
	h.sess.Start()
	h.sink.take()

	h.feed(protocol.PhaseLogin, &packets.LoginStart{Username: "Steve"})
	h.wantFail(KindProtocol)
}

func TestDuplicateLoginAck(t *testing.T) {
	// The first ack moves the session into configuration, so the second
	// ack's wire ID is read under the configuration registry: an empty
	// keep-alive on 1.20.2, a premature finish-configuration on 1.20.5.
	// Either way the session dies.
	tests := []struct {
		v    protocol.Version
		want Kind
	}{
		{protocol.V1_20_2, KindProtocol},
		{protocol.V1_20_5, KindChallenge},
	}
	for _, tt := range tests {
		t.Run(tt.v.String(), func(t *testing.T) {
			h := newHarness(t, tt.v, Config{}, false)
			h.sess.Start()
			h.sink.take()

			h.feedBody(protocol.PhaseLogin, packets.KindLoginAcknowledged, nil)
			h.sink.take()

			h.feedBody(protocol.PhaseLogin, packets.KindLoginAcknowledged, nil)
			h.wantFail(tt.want)
		})
	}
}

func TestMetadataRejection(t *testing.T) {
	tests := []struct {
		name string
		pkt  func(v protocol.Version) packets.Packet
	}{
		{"low view distance", func(protocol.Version) packets.Packet {
			p := testSettings()
			p.ViewDistance = 1
			return p
		}},
		{"invalid locale", func(protocol.Version) packets.Packet {
			p := testSettings()
			p.Locale = "en US"
			return p
		}},
		{"reserved skin bit", func(protocol.Version) packets.Packet {
			p := testSettings()
			p.SkinParts = 0x80
			return p
		}},
		{"capitalized vanilla brand", func(v protocol.Version) packets.Packet {
			return brandMessage(v, "Vanilla")
		}},
		{"empty brand", func(v protocol.Version) packets.Packet {
			return brandMessage(v, "")
		}},
		{"oversized brand", func(v protocol.Version) packets.Packet {
			return brandMessage(v, string(make([]byte, 80)))
		}},
		{"namespaced channel on legacy version", func(v protocol.Version) packets.Packet {
			p := brandMessage(v, "vanilla")
			p.Channel = packets.BrandChannelModern
			return p
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := fallingHarness(t, Config{}, false)
			h.feed(protocol.PhasePlay, tt.pkt(h.v))
			h.wantFail(KindProtocol)
		})
	}
}

func TestLegacyChannelOnModernVersion(t *testing.T) {
	h, tid := configGravityHarness(t)
	h.feed(protocol.PhasePlay, &packets.TeleportConfirm{TeleportID: tid})

	p := brandMessage(h.v, "vanilla")
	p.Channel = packets.BrandChannelLegacy
	h.feed(protocol.PhasePlay, p)
	h.wantFail(KindProtocol)
}

func TestDuplicateBrand(t *testing.T) {
	h := gravityHarness(t, Config{})

	h.feed(protocol.PhasePlay, brandMessage(h.v, "fabric"))
	h.wantFail(KindProtocol)
}

func TestNoiseTolerated(t *testing.T) {
	h := gravityHarness(t, Config{})

	// Mod channels, resource pack responses, and unregistered IDs are
	// not part of the challenge.
	h.feed(protocol.PhasePlay, &packets.PluginMessage{
		Channel: "REGISTER", Data: []byte("mod:chan"),
	})
	h.feedBody(protocol.PhasePlay, packets.KindResourcePackResponse, nil)
	h.sess.HandleFrame(&protocol.Frame{ID: 0x5E})
	h.wantPending()

	h.completeFall()
	h.wantVerified()
}

func TestLandingRequiresSettings(t *testing.T) {
	h := fallingHarness(t, Config{}, false)
	h.feed(protocol.PhasePlay, brandMessage(h.v, "vanilla"))

	h.completeFall()
	h.wantFail(KindProtocol)
}

func TestLandingRequiresBrand(t *testing.T) {
	h := fallingHarness(t, Config{}, false)
	h.feed(protocol.PhasePlay, testSettings())

	h.completeFall()
	h.wantFail(KindProtocol)
}

func TestGeyserSkipsBrand(t *testing.T) {
	h := fallingHarness(t, Config{}, true)
	h.feed(protocol.PhasePlay, testSettings())

	h.completeFall()
	h.wantVerified()
}

func TestSkipBrandCheck(t *testing.T) {
	h := fallingHarness(t, Config{SkipBrandCheck: true}, false)
	h.feed(protocol.PhasePlay, testSettings())

	h.completeFall()
	h.wantVerified()
}

func TestMetadataOnlyVerification(t *testing.T) {
	// The world still goes out with the gravity check disabled, so a
	// real client reports its settings and brand.
	h := fallingHarness(t, Config{SkipGravityCheck: true}, false)

	h.feed(protocol.PhasePlay, testSettings())
	h.wantPending()

	// Movement reports are not validated in this mode.
	h.feed(protocol.PhasePlay, &packets.PlayerPosition{X: 8.5, Y: 71.0, Z: 8.5})
	h.wantPending()

	h.feed(protocol.PhasePlay, brandMessage(h.v, "vanilla"))
	h.wantVerified()
}

func TestAbortIsBenign(t *testing.T) {
	h, _ := startedHarness(t, Config{}, false)

	h.sess.Abort(io.EOF)
	fe := Classify(h.verdict())
	if !fe.Benign() {
		t.Fatalf("abort verdict kind = %v, want benign transport", fe.Kind)
	}

	// A late frame after resolution is swallowed.
	h.feed(protocol.PhasePlay, &packets.KeepAlive{ID: 1})
	if got := h.calls.Load(); got != 1 {
		t.Fatalf("verdict callback ran %d times, want 1", got)
	}
}

func TestSendDisconnectPhase(t *testing.T) {
	// Still in the login phase: the login-phase disconnect shape.
	h := newHarness(t, protocol.V1_20_5, Config{}, false)
	h.sess.Start()
	h.sink.take()
	h.sess.SendDisconnect("nope")
	frames := h.sink.take()
	if len(frames) != 1 {
		t.Fatalf("wrote %d frames, want 1", len(frames))
	}
	h.wantKind(frames[0], protocol.PhaseLogin, packets.KindLoginDisconnect)

	// After the world went out: the play-phase disconnect.
	h = gravityHarness(t, Config{})
	h.sess.SendDisconnect("nope")
	frames = h.sink.take()
	if len(frames) != 1 {
		t.Fatalf("wrote %d frames, want 1", len(frames))
	}
	h.wantKind(frames[0], protocol.PhasePlay, packets.KindDisconnect)
}

func TestNewEngineConfigErrors(t *testing.T) {
	lf := logging.NewDefaultLoggerFactory()

	if _, err := NewEngine(Config{BrandPattern: "("}, lf); !errors.Is(err, ErrBrandPattern) {
		t.Errorf("NewEngine(bad brand pattern) error = %v, want %v", err, ErrBrandPattern)
	}
	if _, err := NewEngine(Config{LocalePattern: "("}, lf); !errors.Is(err, ErrLocalePattern) {
		t.Errorf("NewEngine(bad locale pattern) error = %v, want %v", err, ErrLocalePattern)
	}
	if _, err := NewEngine(Config{SpawnY: 10, FloorY: 64}, lf); !errors.Is(err, world.ErrSpawnBelowFloor) {
		t.Errorf("NewEngine(sunken spawn) error = %v, want %v", err, world.ErrSpawnBelowFloor)
	}
}
