package world

import (
	"errors"
	"math"
	"testing"
)

func TestTrajectoryTable(t *testing.T) {
	tr, err := NewTrajectory(DefaultSpawnY, DefaultFloorY, 0)
	if err != nil {
		t.Fatalf("NewTrajectory() error: %v", err)
	}

	// First steps by hand: v picks up -0.08 then loses 2% each tick.
	want := []float64{71.9216, 71.766368, 71.53584064}
	for i, w := range want {
		got, ok := tr.ExpectedY(i)
		if !ok {
			t.Fatalf("ExpectedY(%d) ok = false, want true", i)
		}
		if math.Abs(got-w) > 1e-9 {
			t.Errorf("ExpectedY(%d) = %v, want %v", i, got, w)
		}
	}

	if got := tr.LandingTick(); got != 14 {
		t.Errorf("LandingTick() = %d, want 14", got)
	}
	if got := tr.Ticks(); got != 15 {
		t.Errorf("Ticks() = %d, want 15", got)
	}

	floor, ok := tr.ExpectedY(tr.LandingTick())
	if !ok || floor != DefaultFloorY {
		t.Errorf("ExpectedY(landing) = %v, %v, want %v, true", floor, ok, DefaultFloorY)
	}

	prev := tr.SpawnY
	for i := 0; i < tr.Ticks(); i++ {
		y, _ := tr.ExpectedY(i)
		if y >= prev {
			t.Fatalf("ExpectedY(%d) = %v, not below previous %v", i, y, prev)
		}
		prev = y
	}
}

func TestTrajectoryBounds(t *testing.T) {
	tr, err := NewTrajectory(DefaultSpawnY, DefaultFloorY, 0)
	if err != nil {
		t.Fatalf("NewTrajectory() error: %v", err)
	}

	if _, ok := tr.ExpectedY(-1); ok {
		t.Error("ExpectedY(-1) ok = true, want false")
	}
	if _, ok := tr.ExpectedY(tr.Ticks()); ok {
		t.Errorf("ExpectedY(%d) ok = true, want false", tr.Ticks())
	}
}

func TestTrajectoryErrors(t *testing.T) {
	if _, err := NewTrajectory(64, 64, 0); !errors.Is(err, ErrSpawnBelowFloor) {
		t.Errorf("NewTrajectory(64, 64) error = %v, want %v", err, ErrSpawnBelowFloor)
	}
	if _, err := NewTrajectory(50, 64, 0); !errors.Is(err, ErrSpawnBelowFloor) {
		t.Errorf("NewTrajectory(50, 64) error = %v, want %v", err, ErrSpawnBelowFloor)
	}
	if _, err := NewTrajectory(72, 64, 3); !errors.Is(err, ErrNeverLands) {
		t.Errorf("NewTrajectory(72, 64, 3) error = %v, want %v", err, ErrNeverLands)
	}
}

func TestTrajectoryTallDrop(t *testing.T) {
	// A 320-block drop still lands inside the default budget.
	tr, err := NewTrajectory(384, 64, 0)
	if err != nil {
		t.Fatalf("NewTrajectory() error: %v", err)
	}
	if tr.Ticks() >= DefaultMaxFallTicks {
		t.Errorf("Ticks() = %d, want < %d", tr.Ticks(), DefaultMaxFallTicks)
	}
}
