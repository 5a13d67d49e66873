package scape

import (
	"context"
	"fmt"

	"choreia/internal/genome"
	"choreia/internal/model"
)

const defaultStepDt = 1.0 / 60.0

// Evaluator drives a single genome through one episode and reduces the
// trajectory to fitness plus auxiliary metrics. One evaluation is
// authoritative for that individual in that generation; there is no
// re-evaluation for noise reduction.
type Evaluator struct {
	Weights model.FitnessWeights
	Dt      float64
}

// NewEvaluator returns an evaluator with the given weights and the
// reference fixed timestep.
func NewEvaluator(weights model.FitnessWeights) *Evaluator {
	return &Evaluator{Weights: weights, Dt: defaultStepDt}
}

// Evaluate runs the genome against a fresh episode until the creature falls
// or the frame limit is reached, then writes fitness and metrics onto the
// individual. Environment errors are fatal: frame and energy counters
// cannot be trusted after a partial step failure.
func (e *Evaluator) Evaluate(ctx context.Context, ep Episode, ind *model.Individual, limit int) error {
	if ep == nil {
		return fmt.Errorf("episode is required")
	}
	if ind == nil {
		return fmt.Errorf("individual is required")
	}
	if len(ind.Genome) == 0 {
		return fmt.Errorf("genome is empty")
	}
	if limit <= 0 {
		return fmt.Errorf("episode limit must be > 0: %d", limit)
	}
	dt := e.Dt
	if dt <= 0 {
		dt = defaultStepDt
	}

	start, err := ep.State()
	if err != nil {
		return fmt.Errorf("read initial state: %w", err)
	}

	frame := 0
	energy := 0
	current := start
	for !current.Fallen && frame < limit {
		if err := ctx.Err(); err != nil {
			return err
		}

		code := ind.Genome[min(frame, len(ind.Genome)-1)]
		cmd, err := genome.Decode(code)
		if err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		if !cmd.None {
			energy++
		}
		if err := ep.Apply(cmd); err != nil {
			return fmt.Errorf("apply command at frame %d: %w", frame, err)
		}
		if err := ep.Step(dt); err != nil {
			return fmt.Errorf("step at frame %d: %w", frame, err)
		}
		frame++

		current, err = ep.State()
		if err != nil {
			return fmt.Errorf("read state at frame %d: %w", frame, err)
		}
	}

	distance := current.PositionX - start.PositionX
	stability := 1.0
	if current.Fallen {
		stability = 0.0
	}

	ind.Distance = distance
	ind.Stability = stability
	ind.Energy = float64(energy)
	ind.TimeAlive = frame
	ind.Fitness = e.Score(distance, stability, float64(energy), frame)
	return nil
}

// Score applies the fitness formula to already-measured episode metrics.
// Negative scores are legal: falling immediately while moving backward must
// rank below surviving without moving.
func (e *Evaluator) Score(distance, stability, energy float64, timeAlive int) float64 {
	fitness := distance * e.Weights.Distance
	if stability > 0.5 {
		fitness += e.Weights.Stability
	} else {
		fitness += e.Weights.FallenPenalty
	}
	fitness -= energy * e.Weights.EnergyPenalty
	fitness += float64(timeAlive) * e.Weights.TimeBonus
	return fitness
}
