// Package world models the minimal synthetic world the gravity
// challenge runs in: the fall physics a compliant client must
// reproduce, and the canned world metadata packets that get it there.
package world

import "errors"

// World errors.
var (
	ErrSpawnBelowFloor = errors.New("world: spawn height not above the floor")
	ErrNeverLands      = errors.New("world: trajectory does not land within the tick budget")
)

// Free-fall physics constants. Each movement tick the vertical
// velocity picks up gravity and loses two percent to drag:
//
//	v' = (v - GravityAcceleration) * VerticalDrag
//	y' = y + v'
//
// The recurrence converges toward terminal velocity
// (GravityAcceleration * VerticalDrag / (1 - VerticalDrag) = 3.92), so
// every fall lands.
const (
	GravityAcceleration = 0.08
	VerticalDrag        = 0.98
)

// Default fall layout: an eight-block drop onto a flat platform,
// enough ticks to make trajectory forgery expensive while keeping the
// challenge under half a second of game time.
const (
	DefaultSpawnY       = 72.0
	DefaultFloorY       = 64.0
	DefaultMaxFallTicks = 128
)

// Trajectory is the precomputed free-fall path from a spawn height
// onto a floor. Position reports are validated against it tick by
// tick; the final entry is the floor itself, where the client must
// resolve its collision.
type Trajectory struct {
	SpawnY float64
	FloorY float64

	// positions[i] is the expected Y after movement tick i. The last
	// entry equals FloorY.
	positions []float64
}

// NewTrajectory computes the expected fall from spawnY onto floorY.
// maxTicks bounds the table size; <= 0 selects DefaultMaxFallTicks.
func NewTrajectory(spawnY, floorY float64, maxTicks int) (*Trajectory, error) {
	if spawnY <= floorY {
		return nil, ErrSpawnBelowFloor
	}
	if maxTicks <= 0 {
		maxTicks = DefaultMaxFallTicks
	}

	positions := make([]float64, 0, 32)
	y, v := spawnY, 0.0
	for {
		if len(positions) >= maxTicks {
			return nil, ErrNeverLands
		}
		v = (v - GravityAcceleration) * VerticalDrag
		y += v
		if y <= floorY {
			// The client resolves the collision by clamping onto the
			// floor surface.
			positions = append(positions, floorY)
			break
		}
		positions = append(positions, y)
	}

	return &Trajectory{SpawnY: spawnY, FloorY: floorY, positions: positions}, nil
}

// ExpectedY returns the Y the client must report after movement tick
// tick (zero-based). The second return is false past the landing tick.
func (t *Trajectory) ExpectedY(tick int) (float64, bool) {
	if tick < 0 || tick >= len(t.positions) {
		return 0, false
	}
	return t.positions[tick], true
}

// LandingTick is the zero-based tick on which the client must resolve
// its collision with the floor.
func (t *Trajectory) LandingTick() int {
	return len(t.positions) - 1
}

// Ticks is the total number of movement reports the challenge consumes.
func (t *Trajectory) Ticks() int {
	return len(t.positions)
}
