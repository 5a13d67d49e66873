package scape

import (
	"context"
	"fmt"

	"choreia/internal/genome"
)

// Walker dynamics constants. The surrogate is a crude kinematic stand-in
// for the external physics engine: deterministic, cheap, and just rich
// enough that alternating drive patterns out-travel idle or saturated ones.
const (
	walkerContractionRate = 4.0
	walkerStrideGain      = 1.6
	walkerDamping         = 2.5
	walkerLeanGain        = 0.9
	walkerLeanRecovery    = 1.2
	walkerFallLean        = 0.65
)

// WalkerScape is the built-in surrogate locomotion environment. The real
// articulated-body simulation lives outside this module behind the same
// Episode interface; the surrogate exists so runs and tests work offline.
type WalkerScape struct{}

func (WalkerScape) Name() string {
	return "surrogate-walker"
}

func (WalkerScape) NewEpisode(_ context.Context) (Episode, error) {
	return &walkerEpisode{active: -1}, nil
}

type walkerEpisode struct {
	x        float64
	velocity float64
	lean     float64
	fallen   bool

	contraction [genome.ActuatorCount]float64
	active      int
	direction   genome.Direction
}

// Apply sets or clears the single driven actuator for subsequent steps.
// The idle command releases the previous one and is idempotent.
func (w *walkerEpisode) Apply(cmd genome.ActuatorCommand) error {
	if cmd.None {
		w.active = -1
		return nil
	}
	if cmd.Actuator < 0 || cmd.Actuator >= genome.ActuatorCount {
		return fmt.Errorf("actuator out of range [0, %d): %d", genome.ActuatorCount, cmd.Actuator)
	}
	w.active = cmd.Actuator
	w.direction = cmd.Direction
	return nil
}

func (w *walkerEpisode) Step(dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("timestep must be > 0: %v", dt)
	}
	if w.fallen {
		return nil
	}

	if w.active >= 0 {
		target := 1.0
		if w.direction == genome.Extend {
			target = 0.0
		}
		prev := w.contraction[w.active]
		next := prev + clamp(target-prev, -walkerContractionRate*dt, walkerContractionRate*dt)
		w.contraction[w.active] = next
		delta := next - prev

		// Front legs propel on contraction, back legs on extension;
		// unbalanced drive tips the torso.
		sign := 1.0
		if w.active >= genome.ActuatorCount/2 {
			sign = -1.0
		}
		w.velocity += walkerStrideGain * delta * sign
		w.lean += walkerLeanGain * delta * sign
	}

	w.lean -= walkerLeanRecovery * w.lean * dt
	if w.lean > walkerFallLean || w.lean < -walkerFallLean {
		w.fallen = true
		return nil
	}

	w.x += w.velocity * dt
	w.velocity -= walkerDamping * w.velocity * dt
	return nil
}

func (w *walkerEpisode) State() (State, error) {
	return State{PositionX: w.x, Fallen: w.fallen}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
