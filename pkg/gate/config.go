package gate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/pion/logging"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bastionmc/bastion/pkg/fingerprint"
	"github.com/bastionmc/bastion/pkg/queue"
	"github.com/bastionmc/bastion/pkg/store"
	"github.com/bastionmc/bastion/pkg/verify"
)

// HandoffMode selects what happens to connections from already verified
// addresses.
type HandoffMode uint8

const (
	// HandoffProxy splices verified connections through to the backend
	// server, replaying the captured handshake bytes so the backend
	// sees the original stream.
	HandoffProxy HandoffMode = iota

	// HandoffReconnect runs the gate as a verification-only service:
	// verified clients are disconnected with a rejoin message, and an
	// outer routing layer consults the shared verified store to send
	// their next attempt straight to the backend.
	HandoffReconnect
)

var handoffNames = [...]string{
	HandoffProxy:     "proxy",
	HandoffReconnect: "reconnect",
}

// String returns the mode's flag spelling.
func (m HandoffMode) String() string {
	if int(m) < len(handoffNames) {
		return handoffNames[m]
	}
	return fmt.Sprintf("HandoffMode(%d)", m)
}

// ParseHandoffMode parses a mode flag value.
func ParseHandoffMode(s string) (HandoffMode, error) {
	for m, name := range handoffNames {
		if s == name {
			return HandoffMode(m), nil
		}
	}
	return 0, fmt.Errorf("gate: unknown handoff mode %q", s)
}

// DialFunc opens backend connections. Tests swap it for a pipe dialer.
type DialFunc func(ctx context.Context, addr string) (net.Conn, error)

// Messages are the kick texts the gate sends. Plain text; they are
// wrapped into chat JSON on the wire. Every field has a default.
type Messages struct {
	// Verified is sent after a successful verification and, in
	// reconnect mode, to returning verified clients.
	Verified string

	// Failed is sent when a session ends in a blacklisting verdict.
	Failed string

	// Busy is sent when the admission queue is full or throttled, or
	// when an admission store lookup fails.
	Busy string

	// AlreadyVerifying is sent to a second connection from an address
	// with a verification already in flight.
	AlreadyVerifying string

	// UnsupportedVersion is sent to clients below the oldest supported
	// protocol version.
	UnsupportedVersion string

	// BackendDown is sent to verified clients when the backend cannot
	// be dialed in proxy mode.
	BackendDown string
}

func (m *Messages) applyDefaults() {
	if m.Verified == "" {
		m.Verified = "You are verified. Rejoin the server to play."
	}
	if m.Failed == "" {
		m.Failed = "Verification failed. Rejoin the server to try again."
	}
	if m.Busy == "" {
		m.Busy = "The server is busy right now. Try again in a moment."
	}
	if m.AlreadyVerifying == "" {
		m.AlreadyVerifying = "A connection from your address is already being verified."
	}
	if m.UnsupportedVersion == "" {
		m.UnsupportedVersion = "Your client version is not supported."
	}
	if m.BackendDown == "" {
		m.BackendDown = "The server is starting up. Try again in a moment."
	}
}

// Status is the server list document served to status pings. The
// reported protocol version always echoes the client's, so the entry
// renders as compatible.
type Status struct {
	// MOTD is the description line.
	MOTD string

	// VersionName is the version label, shown by clients the echoed
	// protocol number does not silence.
	VersionName string

	// MaxPlayers and Online fill the player counts. The gate does not
	// track real backend occupancy.
	MaxPlayers int
	Online     int
}

func (s *Status) applyDefaults() {
	if s.MOTD == "" {
		s.MOTD = "A Minecraft Server"
	}
	if s.VersionName == "" {
		s.VersionName = "bastion"
	}
	if s.MaxPlayers == 0 {
		s.MaxPlayers = 20
	}
}

// Gate defaults.
const (
	DefaultListenAddr       = ":25565"
	DefaultDialTimeout      = 5 * time.Second
	DefaultHandshakeTimeout = 5 * time.Second
	DefaultVerifiedTTL      = 12 * time.Hour
	DefaultBlacklistTTL     = 10 * time.Minute

	// DefaultUsernamePattern is the vanilla account-name shape.
	DefaultUsernamePattern = `^[a-zA-Z0-9_]{1,16}$`
)

// Config validation errors.
var (
	ErrBackendRequired = errors.New("gate: proxy mode requires a backend address")
	ErrUsernamePattern = errors.New("gate: username pattern does not compile")
)

// Config carries everything a Gate needs. The zero value plus a
// Backend address is a runnable proxy-mode gate; Validate fills in the
// rest.
type Config struct {
	// ListenAddr is the TCP address clients connect to. Ignored when
	// Listener is set.
	ListenAddr string

	// Listener, when non-nil, is used instead of opening ListenAddr.
	Listener net.Listener

	// Backend is the real server address verified traffic is spliced
	// to. Required in proxy mode.
	Backend string

	// Mode picks the verified-connection handoff behavior.
	Mode HandoffMode

	// Dial overrides how backend connections are opened.
	Dial DialFunc

	// DialTimeout bounds backend dials.
	DialTimeout time.Duration

	// HandshakeTimeout bounds how long a fresh connection may take to
	// deliver its handshake and login frames. Admitted sessions run
	// on the verification deadline instead.
	HandshakeTimeout time.Duration

	// MaxFrameLen caps inbound frame length. <= 0 selects the
	// protocol default.
	MaxFrameLen int32

	// UsernamePattern is the anchored expression login names must
	// match.
	UsernamePattern string

	// BridgeDetector marks connections from protocol-translating
	// bridges, which carry no client brand and get relaxed metadata
	// expectations. Nil treats every connection as a native client.
	BridgeDetector func(serverAddress, username string) bool

	// Status configures the server list response.
	Status Status

	// Verify configures the verification engine.
	Verify verify.Config

	// Queue configures the admission queue.
	Queue queue.Config

	// VerifiedTTL and BlacklistTTL bound how long verdicts are
	// honored.
	VerifiedTTL  time.Duration
	BlacklistTTL time.Duration

	// VerifiedBackend selects where verified verdicts live, so a
	// fleet can share them. The blacklist always stays in process
	// memory. Empty selects memory.
	VerifiedBackend store.Backend

	// Redis and Mongo parameterize the matching VerifiedBackend.
	Redis store.RedisConfig
	Mongo store.MongoConfig

	// Salt keys the store fingerprints. Empty draws a random salt,
	// which makes cached verdicts ephemeral across restarts. Must be
	// fingerprint.SaltSize bytes when set.
	Salt []byte

	// Messages are the kick texts.
	Messages Messages

	// LoggerFactory supplies scoped loggers. Nil selects the pion
	// default factory.
	LoggerFactory logging.LoggerFactory

	// Registerer receives the gate's metrics. Nil selects a private
	// registry, keeping counters live but unscraped.
	Registerer prometheus.Registerer
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.UsernamePattern == "" {
		c.UsernamePattern = DefaultUsernamePattern
	}
	if c.VerifiedTTL == 0 {
		c.VerifiedTTL = DefaultVerifiedTTL
	}
	if c.BlacklistTTL == 0 {
		c.BlacklistTTL = DefaultBlacklistTTL
	}
	if c.LoggerFactory == nil {
		c.LoggerFactory = logging.NewDefaultLoggerFactory()
	}
	if c.Registerer == nil {
		c.Registerer = prometheus.NewRegistry()
	}
	c.Status.applyDefaults()
	c.Messages.applyDefaults()
}

// Validate fills in defaults and checks the configuration. Engine,
// store, and queue configs are validated by their own constructors.
func (c *Config) Validate() error {
	c.applyDefaults()

	if int(c.Mode) >= len(handoffNames) {
		return fmt.Errorf("gate: unknown handoff mode %d", c.Mode)
	}
	if c.Mode == HandoffProxy && c.Backend == "" {
		return ErrBackendRequired
	}
	if _, err := regexp.Compile(c.UsernamePattern); err != nil {
		return fmt.Errorf("%w: %v", ErrUsernamePattern, err)
	}
	if len(c.Salt) != 0 && len(c.Salt) != fingerprint.SaltSize {
		return fingerprint.ErrSaltSize
	}
	if c.VerifiedTTL < 0 || c.BlacklistTTL < 0 {
		return store.ErrTTL
	}
	return nil
}
