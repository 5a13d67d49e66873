package scape

import (
	"context"

	"choreia/internal/genome"
)

// State is the minimal environment observation the optimizer needs: the
// creature's horizontal position and whether it has fallen over.
type State struct {
	PositionX float64
	Fallen    bool
}

// Episode is one live simulation of the creature, from reset to terminal
// condition. Commands are held until replaced; applying the idle command
// releases any previously commanded actuator and is idempotent.
type Episode interface {
	Apply(cmd genome.ActuatorCommand) error
	Step(dt float64) error
	State() (State, error)
}

// Scape owns the simulated world and creates fresh episodes. Parallel
// evaluators must hold one episode each; episodes from the same scape are
// independent.
type Scape interface {
	Name() string
	NewEpisode(ctx context.Context) (Episode, error)
}
