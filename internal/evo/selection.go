package evo

import (
	"fmt"
	"math/rand"
	"sort"

	"choreia/internal/model"
)

// Rank returns the population sorted descending by fitness. The sort is
// stable so ties keep their original population order, which fixes which
// individuals count as elites.
func Rank(population []model.Individual) []model.Individual {
	ranked := make([]model.Individual, len(population))
	copy(ranked, population)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	return ranked
}

// TournamentSelector picks parents by sampling a small subset of a
// candidate pool and taking its best member. The pool is the top fraction
// of the ranked population; shrinking the fraction raises selection
// pressure.
type TournamentSelector struct {
	TournamentSize int
	PoolFraction   float64
}

// DefaultTournamentSelector matches the reference driver: k=3 over the top
// half of the ranked population.
func DefaultTournamentSelector() TournamentSelector {
	return TournamentSelector{TournamentSize: 3, PoolFraction: 0.5}
}

// PickParent draws TournamentSize distinct candidates uniformly without
// replacement from the pool and returns the fittest. ranked must be sorted
// descending by fitness.
func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []model.Individual) (model.Individual, error) {
	if rng == nil {
		return model.Individual{}, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return model.Individual{}, fmt.Errorf("population is empty")
	}

	fraction := s.PoolFraction
	if fraction <= 0 || fraction > 1 {
		fraction = 0.5
	}
	poolSize := int(float64(len(ranked)) * fraction)
	if poolSize < 1 {
		poolSize = 1
	}

	size := s.TournamentSize
	if size <= 0 {
		size = 3
	}
	if size > poolSize {
		size = poolSize
	}

	// Partial Fisher-Yates over pool indices gives draws without
	// replacement.
	indices := make([]int, poolSize)
	for i := range indices {
		indices[i] = i
	}
	best := -1
	for i := 0; i < size; i++ {
		j := i + rng.Intn(poolSize-i)
		indices[i], indices[j] = indices[j], indices[i]
		if best == -1 || ranked[indices[i]].Fitness > ranked[best].Fitness {
			best = indices[i]
		}
	}
	return ranked[best], nil
}
