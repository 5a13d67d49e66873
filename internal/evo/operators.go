package evo

import (
	"fmt"
	"math/rand"

	"choreia/internal/genome"
)

// Crossover performs single-point recombination between two equal-length
// parents. With probability rate a cut point is drawn uniformly from
// [1, len-1] and the complementary children are spliced; otherwise the
// children are exact copies of each parent. Two children are always
// produced.
func Crossover(rng *rand.Rand, parent1, parent2 []int, rate float64) ([]int, []int, error) {
	if len(parent1) != len(parent2) {
		return nil, nil, fmt.Errorf("parent length mismatch: %d vs %d", len(parent1), len(parent2))
	}
	if len(parent1) < 2 {
		return nil, nil, fmt.Errorf("parents too short for crossover: %d", len(parent1))
	}

	if rng.Float64() > rate {
		return genome.Clone(parent1), genome.Clone(parent2), nil
	}

	cut := 1 + rng.Intn(len(parent1)-1)
	child1 := make([]int, 0, len(parent1))
	child1 = append(child1, parent1[:cut]...)
	child1 = append(child1, parent2[cut:]...)
	child2 := make([]int, 0, len(parent2))
	child2 = append(child2, parent2[:cut]...)
	child2 = append(child2, parent1[cut:]...)
	return child1, child2, nil
}

// Mutate replaces each gene independently with probability rate by a fresh
// uniform draw over the action alphabet. The genome is mutated in place.
func Mutate(rng *rand.Rand, g []int, rate float64) {
	for i := range g {
		if rng.Float64() < rate {
			g[i] = rng.Intn(genome.ActionCount)
		}
	}
}
