// Package verify drives the verification of one admitted connection:
// login emulation, a keep-alive nonce challenge, client metadata
// validation, and the gravity fall check. Each session ends in exactly
// one verdict, delivered through a callback so the owner can promote,
// blacklist, or silently drop the address.
package verify

import (
	"fmt"
	"regexp"

	"github.com/pion/logging"

	"github.com/bastionmc/bastion/pkg/protocol"
	"github.com/bastionmc/bastion/pkg/protocol/packets"
	"github.com/bastionmc/bastion/pkg/world"
)

// Sink receives the frames a session writes. Implementations batch
// writes until Flush; the engine flushes once per state transition so
// challenge packets leave in a single segment.
type Sink interface {
	WriteFrame(id int32, body []byte) error
	Flush() error
}

// strategy selects how a client of a given version proves liveness
// before the fall.
type strategy uint8

const (
	// strategyDelay verifies the session after a short hold without
	// exchanging a single packet. Clients below 1.8 answer no
	// keep-alive outside play, so there is nothing to challenge.
	strategyDelay strategy = iota

	// strategyKeepAlive sends a nonce keep-alive right after login
	// success and expects the echo before the world is sent.
	strategyKeepAlive

	// strategyConfig drives the 1.20.2+ two-phase login: registry
	// sync and the nonce challenge both happen in the configuration
	// phase, gated on the client's login acknowledgement.
	strategyConfig
)

func strategyFor(v protocol.Version) strategy {
	switch {
	case v.TwoPhaseLogin():
		return strategyConfig
	case v.PrePlayKeepAlive():
		return strategyKeepAlive
	default:
		return strategyDelay
	}
}

// Engine holds the immutable pieces every session shares: validated
// configuration, compiled patterns, the packet registry, and the
// precomputed fall trajectory.
type Engine struct {
	cfg      Config
	reg      *packets.Registry
	log      logging.LeveledLogger
	traj     *world.Trajectory
	brandRE  *regexp.Regexp
	localeRE *regexp.Regexp
}

// NewEngine validates cfg, compiles its patterns, and precomputes the
// fall trajectory. Configuration problems are returned here and never
// surface per-connection.
func NewEngine(cfg Config, lf logging.LoggerFactory) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg: cfg,
		reg: packets.NewRegistry(),
		log: lf.NewLogger("verify"),
	}
	var err error
	if e.brandRE, err = regexp.Compile(cfg.BrandPattern); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrandPattern, err)
	}
	if e.localeRE, err = regexp.Compile(cfg.LocalePattern); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocalePattern, err)
	}
	if !cfg.SkipGravityCheck {
		if e.traj, err = world.NewTrajectory(cfg.SpawnY, cfg.FloorY, cfg.MaxFallTicks); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Registry exposes the packet tables so the connection owner can
// decode handshake and login frames with the same bindings the
// sessions use.
func (e *Engine) Registry() *packets.Registry { return e.reg }

// Trajectory returns the precomputed fall table, or nil when the
// gravity check is disabled.
func (e *Engine) Trajectory() *world.Trajectory { return e.traj }
