package verify

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/bastionmc/bastion/pkg/world"
)

// Defaults for Config fields left at their zero value.
const (
	DefaultMaxLoginPackets  = 256
	DefaultAutoSuccessDelay = 100 * time.Millisecond
	DefaultDeadline         = 10 * time.Second
	DefaultMinViewDistance  = 2
	DefaultBrandMaxLength   = 64
	DefaultBrandPattern     = "^[ -~]+$"
	DefaultLocalePattern    = "^[a-zA-Z_]+$"
	DefaultFallTolerance    = 1e-7
)

// Config holds the per-engine verification knobs. The zero value is
// usable; Validate fills in defaults and compiles the patterns.
type Config struct {
	// MaxLoginPackets is the hard ceiling on serverbound packets per
	// session, counted before decoding. Exceeding it is a flood
	// failure.
	MaxLoginPackets int

	// AutoSuccessDelay is how long sessions from clients too old to
	// answer a pre-play keep-alive are held before being verified.
	AutoSuccessDelay time.Duration

	// Deadline is the overall wall-clock budget for a session. A
	// session still unresolved when it expires fails as an unanswered
	// challenge.
	Deadline time.Duration

	// MinViewDistance is the smallest client view distance accepted
	// in client settings. The vanilla client cannot go below 2.
	MinViewDistance int

	// SkipBrandCheck disables client-brand validation. Brand presence
	// is then no longer required for success.
	SkipBrandCheck bool

	// BrandMaxLength bounds the decoded client brand.
	BrandMaxLength int

	// BrandPattern and LocalePattern are anchored regular expressions
	// the client brand and settings locale must match.
	BrandPattern  string
	LocalePattern string

	// SkipGravityCheck disables fall-trajectory validation. Sessions
	// then verify on client metadata alone.
	SkipGravityCheck bool

	// SpawnY and FloorY define the fall column. MaxFallTicks bounds
	// the precomputed trajectory length.
	SpawnY       float64
	FloorY       float64
	MaxFallTicks int

	// FallTolerance is the permitted relative deviation between a
	// reported Y position and the precomputed trajectory. Client and
	// engine run the same double arithmetic, so the default only
	// absorbs decimal formatting loss.
	FallTolerance float64
}

// Config validation errors.
var (
	ErrBrandPattern  = errors.New("verify: brand pattern does not compile")
	ErrLocalePattern = errors.New("verify: locale pattern does not compile")
)

func (c *Config) applyDefaults() {
	if c.MaxLoginPackets == 0 {
		c.MaxLoginPackets = DefaultMaxLoginPackets
	}
	if c.AutoSuccessDelay == 0 {
		c.AutoSuccessDelay = DefaultAutoSuccessDelay
	}
	if c.Deadline == 0 {
		c.Deadline = DefaultDeadline
	}
	if c.MinViewDistance == 0 {
		c.MinViewDistance = DefaultMinViewDistance
	}
	if c.BrandMaxLength == 0 {
		c.BrandMaxLength = DefaultBrandMaxLength
	}
	if c.BrandPattern == "" {
		c.BrandPattern = DefaultBrandPattern
	}
	if c.LocalePattern == "" {
		c.LocalePattern = DefaultLocalePattern
	}
	if c.SpawnY == 0 {
		c.SpawnY = world.DefaultSpawnY
	}
	if c.FloorY == 0 {
		c.FloorY = world.DefaultFloorY
	}
	if c.MaxFallTicks == 0 {
		c.MaxFallTicks = world.DefaultMaxFallTicks
	}
	if c.FallTolerance == 0 {
		c.FallTolerance = DefaultFallTolerance
	}
}

// Validate fills in defaults and checks the configuration. The
// returned error, if any, wraps the offending field.
func (c *Config) Validate() error {
	c.applyDefaults()
	if c.MaxLoginPackets < 0 {
		return fmt.Errorf("verify: max login packets %d is negative", c.MaxLoginPackets)
	}
	if _, err := regexp.Compile(c.BrandPattern); err != nil {
		return fmt.Errorf("%w: %v", ErrBrandPattern, err)
	}
	if _, err := regexp.Compile(c.LocalePattern); err != nil {
		return fmt.Errorf("%w: %v", ErrLocalePattern, err)
	}
	if !c.SkipGravityCheck {
		if _, err := world.NewTrajectory(c.SpawnY, c.FloorY, c.MaxFallTicks); err != nil {
			return err
		}
	}
	return nil
}
