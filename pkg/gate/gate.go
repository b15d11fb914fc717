// Package gate runs the verification front door: a TCP listener that
// answers status pings, admits unknown addresses into the verification
// pipeline, and splices verified ones through to the real server.
//
// A Gate owns the listener, the verified and blacklist stores, the
// admission queue, the verification engine, and the metric set. Each
// accepted connection is handled on its own goroutine and shares
// nothing with its siblings beyond those structures.
package gate

import (
	"context"
	"math"
	"net"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/pion/logging"

	"github.com/bastionmc/bastion/pkg/fingerprint"
	"github.com/bastionmc/bastion/pkg/obs"
	"github.com/bastionmc/bastion/pkg/protocol/packets"
	"github.com/bastionmc/bastion/pkg/queue"
	"github.com/bastionmc/bastion/pkg/store"
	"github.com/bastionmc/bastion/pkg/transport"
	"github.com/bastionmc/bastion/pkg/verify"
)

// Gate is the bot-verification layer in front of a game server.
type Gate struct {
	cfg        Config
	log        logging.LeveledLogger
	keyer      *fingerprint.Keyer
	verified   store.Store
	blacklist  store.Store
	queue      *queue.Queue
	engine     *verify.Engine
	reg        *packets.Registry
	server     *transport.Server
	metrics    *obs.Metrics
	usernameRE *regexp.Regexp

	ctx    context.Context
	cancel context.CancelFunc

	verifying atomic.Int64

	mu      sync.Mutex
	started bool
	stopped bool
}

// New builds a Gate from cfg. The context bounds store dialing only;
// the gate's own lifetime runs from Start to Stop.
func New(ctx context.Context, cfg Config) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	salt := cfg.Salt
	if len(salt) == 0 {
		var err error
		if salt, err = fingerprint.RandomSalt(); err != nil {
			return nil, err
		}
	}
	keyer, err := fingerprint.NewKeyer(salt)
	if err != nil {
		return nil, err
	}

	verified, err := store.New(ctx, store.Config{
		Backend: cfg.VerifiedBackend,
		TTL:     cfg.VerifiedTTL,
		Redis:   cfg.Redis,
		Mongo:   cfg.Mongo,
	})
	if err != nil {
		return nil, err
	}
	blacklist := store.NewMemory(cfg.BlacklistTTL)

	engine, err := verify.NewEngine(cfg.Verify, cfg.LoggerFactory)
	if err != nil {
		verified.Close()
		return nil, err
	}

	g := &Gate{
		cfg:        cfg,
		log:        cfg.LoggerFactory.NewLogger("gate"),
		keyer:      keyer,
		verified:   verified,
		blacklist:  blacklist,
		engine:     engine,
		reg:        engine.Registry(),
		usernameRE: regexp.MustCompile(cfg.UsernamePattern),
	}
	g.ctx, g.cancel = context.WithCancel(context.Background())
	g.queue = queue.New(verified, blacklist, keyer, cfg.Queue)
	g.metrics = obs.NewMetrics(cfg.Registerer, obs.GaugeSources{
		Queued:        func() float64 { return float64(g.queue.Len()) },
		Verifying:     func() float64 { return float64(g.verifying.Load()) },
		VerifiedSize:  storeSize(verified),
		BlacklistSize: storeSize(blacklist),
	})

	g.server, err = transport.NewServer(transport.ServerConfig{
		Listener:      cfg.Listener,
		ListenAddr:    cfg.ListenAddr,
		Handler:       g.handleConn,
		MaxFrameLen:   cfg.MaxFrameLen,
		LoggerFactory: cfg.LoggerFactory,
	})
	if err != nil {
		verified.Close()
		return nil, err
	}
	return g, nil
}

// storeSize adapts a store's estimate into a gauge source. Lookup
// failures scrape as NaN rather than a misleading zero.
func storeSize(s store.Store) func() float64 {
	return func() float64 {
		n, err := s.EstimatedSize(context.Background())
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
}

// Start begins accepting connections.
func (g *Gate) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return transport.ErrClosed
	}
	if g.started {
		return transport.ErrAlreadyStarted
	}
	g.started = true
	g.log.Infof("listening on %s, %s mode, backend %s",
		g.server.Addr(), g.cfg.Mode, g.cfg.Backend)
	return g.server.Start()
}

// Stop closes the listener, tears down open connections, and releases
// the stores. Safe to call more than once.
func (g *Gate) Stop() error {
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return nil
	}
	g.stopped = true
	g.mu.Unlock()

	err := g.server.Stop()
	g.cancel()
	if cerr := g.verified.Close(); err == nil {
		err = cerr
	}
	if cerr := g.blacklist.Close(); err == nil {
		err = cerr
	}
	return err
}

// Addr returns the bound listener address.
func (g *Gate) Addr() net.Addr {
	return g.server.Addr()
}

// IsVerified reports whether addr holds a live verified entry.
func (g *Gate) IsVerified(ctx context.Context, addr string) (bool, error) {
	return g.verified.Has(ctx, g.keyer.Address(addr))
}

// IsBlacklisted reports whether addr holds a live blacklist entry.
func (g *Gate) IsBlacklisted(ctx context.Context, addr string) (bool, error) {
	return g.blacklist.Has(ctx, g.keyer.Address(addr))
}

// Unverify drops addr's verified entry, forcing re-verification on its
// next connection.
func (g *Gate) Unverify(ctx context.Context, addr string) error {
	return g.verified.Delete(ctx, g.keyer.Address(addr))
}

// Blacklist inserts addr into the blacklist with the given reason.
func (g *Gate) Blacklist(ctx context.Context, addr, reason string) error {
	return g.blacklist.Put(ctx, g.keyer.Address(addr), reason)
}

// Pardon drops addr's blacklist entry.
func (g *Gate) Pardon(ctx context.Context, addr string) error {
	return g.blacklist.Delete(ctx, g.keyer.Address(addr))
}

// Stats is a point-in-time snapshot for operator tooling.
type Stats struct {
	// Queued is the number of admitted, mid-verification addresses.
	Queued int

	// Verifying is the number of open verification connections.
	Verifying int

	// Verified and Blacklisted are estimated store sizes.
	Verified    int64
	Blacklisted int64
}

// Stats snapshots the gate's live counters.
func (g *Gate) Stats(ctx context.Context) (Stats, error) {
	verified, err := g.verified.EstimatedSize(ctx)
	if err != nil {
		return Stats{}, err
	}
	blacklisted, err := g.blacklist.EstimatedSize(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Queued:      g.queue.Len(),
		Verifying:   int(g.verifying.Load()),
		Verified:    verified,
		Blacklisted: blacklisted,
	}, nil
}
