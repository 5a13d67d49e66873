package evo

import (
	"fmt"
	"math"
)

// LengthObservation is what an episode-length policy may react to at a
// generation boundary.
type LengthObservation struct {
	BestDistance    float64
	BestFitnessEver float64
}

// LengthPolicy decides the per-individual frame budget for the next
// generation. The two shipped policies must never be blended within one
// run: mixing them breaks the genome-length determinism the resize
// invariant relies on.
type LengthPolicy interface {
	Name() string
	NextLimit(obs LengthObservation, base, max int) int
}

// FixedLength keeps the budget at base forever (adaptive time disabled).
type FixedLength struct{}

func (FixedLength) Name() string { return "fixed" }

func (FixedLength) NextLimit(_ LengthObservation, base, _ int) int {
	return base
}

// DistanceReactiveLength follows the per-generation best distance: budgets
// grow with demonstrated travel and fall back to base on regression. This
// is the default policy.
type DistanceReactiveLength struct{}

func (DistanceReactiveLength) Name() string { return "distance" }

func (DistanceReactiveLength) NextLimit(obs LengthObservation, base, max int) int {
	if obs.BestDistance > 1.0 {
		limit := base + int(math.Floor(obs.BestDistance*50))
		if limit > max {
			limit = max
		}
		return limit
	}
	return base
}

// FitnessInterpolatedLength keys off the all-time best fitness,
// interpolating linearly from base to max as the record approaches the
// reward threshold. Driven by a monotonic record, it never regresses.
type FitnessInterpolatedLength struct {
	RewardThreshold float64
}

func (FitnessInterpolatedLength) Name() string { return "fitness" }

func (p FitnessInterpolatedLength) NextLimit(obs LengthObservation, base, max int) int {
	threshold := p.RewardThreshold
	if threshold <= 0 {
		threshold = 5000
	}
	progress := obs.BestFitnessEver / threshold
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	return base + int(progress*float64(max-base))
}

// NewLengthPolicy resolves a policy by its configuration name.
func NewLengthPolicy(name string) (LengthPolicy, error) {
	switch name {
	case "", "distance":
		return DistanceReactiveLength{}, nil
	case "fitness":
		return FitnessInterpolatedLength{}, nil
	case "fixed":
		return FixedLength{}, nil
	default:
		return nil, fmt.Errorf("unsupported episode-length policy: %s", name)
	}
}
