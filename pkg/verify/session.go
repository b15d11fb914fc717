package verify

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/bastionmc/bastion/pkg/protocol"
	"github.com/bastionmc/bastion/pkg/protocol/packets"
)

// Stage is the coarse position of a session in the verification flow.
type Stage uint8

const (
	// StagePreJoin covers login success through the liveness
	// challenge: keep-alive echo for 1.8+, the configuration exchange
	// for 1.20.2+, a plain delay for anything older.
	StagePreJoin Stage = iota

	// StageGravity is the fall: the world has been sent and movement
	// reports are matched against the precomputed trajectory.
	StageGravity

	// StageSuccess and StageFailed are terminal.
	StageSuccess
	StageFailed
)

var stageNames = [...]string{
	StagePreJoin: "PreJoin",
	StageGravity: "Gravity",
	StageSuccess: "Success",
	StageFailed:  "Failed",
}

// String returns a human-readable name for the stage.
func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "Unknown"
}

// errVerified is the internal sentinel a handler returns when the
// session just completed successfully.
var errVerified = errors.New("verify: session verified")

// SessionParams carries the per-connection inputs for a session.
type SessionParams struct {
	// Sink receives outbound frames.
	Sink Sink

	// Addr is the peer address, host only. Used for logging; callers
	// key their stores with fingerprints, not with this.
	Addr string

	// Username is the name from login start, already validated.
	Username string

	// Version is the protocol version from the handshake.
	Version protocol.Version

	// Geyser marks connections bridged from the Bedrock edition.
	// They carry no client brand.
	Geyser bool

	// OnDone receives the verdict: nil for verified, a *FailError
	// otherwise. Called exactly once, off the session lock.
	OnDone func(err error)
}

// Session is the verification state machine for one connection. The
// owning read loop feeds it frames; timers resolve it when the client
// goes quiet. All state is behind one mutex, and a session that has
// resolved swallows everything that arrives afterwards.
type Session struct {
	eng      *Engine
	sink     Sink
	addr     string
	username string
	version  protocol.Version
	geyser   bool
	strat    strategy
	onDone   func(error)

	mu          sync.Mutex
	stage       Stage
	phase       protocol.Phase
	finished    bool
	packetCount int

	// pre-join state
	expectedKA int64
	kaVerified bool
	ackedLogin bool
	settings   *packets.ClientInformation
	brand      string
	gotBrand   bool

	// gravity state
	awaitTeleport bool
	teleportID    int32
	tick          int
	metaOnly      bool

	timers []*time.Timer
}

// NewSession prepares a session. Nothing is written until Start.
func (e *Engine) NewSession(p SessionParams) *Session {
	return &Session{
		eng:      e,
		sink:     p.Sink,
		addr:     p.Addr,
		username: p.Username,
		version:  p.Version,
		geyser:   p.Geyser,
		strat:    strategyFor(p.Version),
		onDone:   p.OnDone,
		stage:    StagePreJoin,
		phase:    protocol.PhaseLogin,
	}
}

// Stage returns the session's current stage.
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Username returns the name the session is verifying.
func (s *Session) Username() string { return s.username }

// Version returns the session's protocol version.
func (s *Session) Version() protocol.Version { return s.version }

// Start sends the login response and arms the challenge for the
// session's version. Call once, before feeding any frames.
func (s *Session) Start() {
	s.mu.Lock()
	err := s.startLocked()
	cb := s.resolveLocked(err)
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (s *Session) startLocked() error {
	s.armVerdict(s.eng.cfg.Deadline, fail(KindChallenge, "took too long to verify"))
	s.eng.log.Debugf("%s: verifying %q, %s", s.addr, s.username, s.version)

	switch s.strat {
	case strategyDelay:
		// Nothing is written. The client sits on the login screen
		// until the timer verifies it or it misbehaves first.
		s.armAutoSuccess(s.eng.cfg.AutoSuccessDelay)
		return nil

	case strategyConfig:
		if err := s.send(protocol.PhaseLogin, s.loginSuccess()); err != nil {
			return err
		}
		return s.flush()

	default: // strategyKeepAlive
		if err := s.send(protocol.PhaseLogin, s.loginSuccess()); err != nil {
			return err
		}
		s.phase = protocol.PhasePlay
		nonce, err := randomNonce()
		if err != nil {
			return err
		}
		s.expectedKA = nonce
		if err := s.send(protocol.PhasePlay, &packets.KeepAlive{ID: nonce}); err != nil {
			return err
		}
		return s.flush()
	}
}

// HandleFrame feeds one inbound frame through the packet gate and the
// current stage handler. Late frames on a resolved session are
// dropped.
func (s *Session) HandleFrame(f *protocol.Frame) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	cb := s.resolveLocked(s.dispatchLocked(f))
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Abort resolves the session with an external error, typically a read
// failure from the connection loop. No-op once resolved.
func (s *Session) Abort(err error) {
	s.mu.Lock()
	cb := s.resolveLocked(err)
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// dispatchLocked is the packet gate: it counts the frame against the
// flood ceiling, resolves the ID for the session's phase, decodes, and
// hands the packet to the current stage. IDs the registry does not
// bind are noise the engine ignores; bound packets a stage does not
// expect fail the session.
func (s *Session) dispatchLocked(f *protocol.Frame) error {
	s.packetCount++
	if s.packetCount > s.eng.cfg.MaxLoginPackets {
		return fail(KindFlood, "too many packets")
	}
	kind, ok := s.eng.reg.Lookup(s.version, s.phase, packets.Serverbound, f.ID)
	if !ok {
		return nil
	}
	p := packets.New(kind)
	if err := p.Decode(protocol.NewReader(f.Body), s.version); err != nil {
		return failf(KindProtocol, "sent bad %v body: %v", kind, err)
	}

	switch s.stage {
	case StagePreJoin:
		return s.handlePreJoin(p)
	case StageGravity:
		return s.handleGravity(p)
	default:
		return nil
	}
}

// resolveLocked turns a handler result into a verdict callback. A nil
// error means the session continues. Idempotent: once a session is
// terminal, later resolutions are swallowed.
func (s *Session) resolveLocked(err error) func() {
	if err == nil || s.finished {
		return nil
	}
	s.finished = true
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil

	done := s.onDone
	if err == errVerified {
		s.stage = StageSuccess
		s.eng.log.Infof("%s: verified %q, %s", s.addr, s.username, s.version)
		if done == nil {
			return func() {}
		}
		return func() { done(nil) }
	}

	s.stage = StageFailed
	verdict := Classify(err)
	if verdict.Benign() {
		s.eng.log.Debugf("%s: dropped: %s", s.addr, verdict.Reason)
	} else {
		s.eng.log.Infof("%s: failed verification: %s (%s)", s.addr, verdict.Reason, verdict.Kind)
	}
	if done == nil {
		return func() {}
	}
	return func() { done(verdict) }
}

// armVerdict schedules a terminal verdict unless the session resolves
// first.
func (s *Session) armVerdict(d time.Duration, verdict *FailError) {
	t := time.AfterFunc(d, func() {
		s.mu.Lock()
		cb := s.resolveLocked(verdict)
		s.mu.Unlock()
		if cb != nil {
			cb()
		}
	})
	s.timers = append(s.timers, t)
}

// armAutoSuccess schedules the delayed verification used for clients
// that cannot be challenged. The callback re-checks liveness: a
// session that failed in the meantime stays failed.
func (s *Session) armAutoSuccess(d time.Duration) {
	t := time.AfterFunc(d, func() {
		s.mu.Lock()
		var cb func()
		if s.stage == StagePreJoin {
			cb = s.resolveLocked(errVerified)
		}
		s.mu.Unlock()
		if cb != nil {
			cb()
		}
	})
	s.timers = append(s.timers, t)
}

func (s *Session) loginSuccess() *packets.LoginSuccess {
	return &packets.LoginSuccess{
		UUID:     packets.OfflineUUID(s.username),
		Username: s.username,
	}
}

// send encodes p for the session's version and queues the frame on the
// sink. The write lands on the wire at the next flush.
func (s *Session) send(ph protocol.Phase, p packets.Packet) error {
	id, ok := s.eng.reg.ID(s.version, ph, packets.Clientbound, p.Kind())
	if !ok {
		return failf(KindTransport, "no %v id for %v at %v", ph, p.Kind(), s.version)
	}
	var w protocol.Writer
	if err := p.Encode(&w, s.version); err != nil {
		return failf(KindTransport, "encode %v: %v", p.Kind(), err)
	}
	if err := s.sink.WriteFrame(id, w.Bytes()); err != nil {
		return failf(KindTransport, "write %v: %v", p.Kind(), err)
	}
	return nil
}

func (s *Session) flush() error {
	if err := s.sink.Flush(); err != nil {
		return failf(KindTransport, "flush: %v", err)
	}
	return nil
}

// SendDisconnect writes a disconnect carrying the plain-text reason,
// phrased for whatever phase the session ended in. Best effort: the
// connection is about to be closed either way.
func (s *Session) SendDisconnect(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var p packets.Packet
	switch s.phase {
	case protocol.PhaseLogin:
		p = &packets.LoginDisconnect{ReasonJSON: packets.ChatJSON(reason)}
	default:
		p = &packets.Disconnect{Reason: reason}
	}
	if err := s.send(s.phase, p); err != nil {
		return
	}
	_ = s.flush()
}

// randomNonce returns a uniformly random value in [1, 2^31). Keep-alive
// IDs ride a VarInt on pre-1.12.2 wires, so the nonce stays in 32-bit
// range; zero is reserved for the client's own idle keep-alives.
func randomNonce() (int64, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, failf(KindTransport, "nonce source: %v", err)
	}
	n := int64(binary.BigEndian.Uint32(b[:]) & math.MaxInt32)
	if n == 0 {
		n = 1
	}
	return n, nil
}
