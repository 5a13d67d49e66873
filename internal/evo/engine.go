package evo

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sourcegraph/conc/pool"

	"choreia/internal/genome"
	"choreia/internal/model"
	"choreia/internal/scape"
	"choreia/internal/stats"
)

// Config carries everything the engine needs. It is passed explicitly at
// construction; the engine never reads ambient state.
type Config struct {
	Scape   scape.Scape
	Weights model.FitnessWeights

	PopulationSize int
	GenomeLength   int
	MutationRate   float64
	CrossoverRate  float64
	EliteSize      int

	Selector TournamentSelector

	AdaptiveTime bool
	BaseTime     int
	MaxTime      int
	LengthPolicy LengthPolicy

	Workers int
	Seed    int64
	Dt      float64
}

// Engine owns one population and drives it through generations: evaluate
// every individual, record telemetry, apply selection and variation, adapt
// the episode budget.
type Engine struct {
	cfg       Config
	rng       *rand.Rand
	evaluator *scape.Evaluator
	policy    LengthPolicy

	runID          string
	trainingNumber int
	generation     int
	timeLimit      int
	population     []model.Individual
	best           *model.Individual
}

// NewEngine validates the configuration and seeds a fresh random
// population. Configuration errors are fatal: nothing is evaluated before
// they are rejected.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Scape == nil {
		return nil, fmt.Errorf("scape is required")
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0: %d", cfg.PopulationSize)
	}
	if cfg.EliteSize < 1 || cfg.EliteSize >= cfg.PopulationSize {
		return nil, fmt.Errorf("elite size must be in [1, population size): %d", cfg.EliteSize)
	}
	if cfg.GenomeLength <= 1 {
		return nil, fmt.Errorf("genome length must be > 1: %d", cfg.GenomeLength)
	}
	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return nil, fmt.Errorf("mutation rate must be in [0, 1]: %v", cfg.MutationRate)
	}
	if cfg.CrossoverRate < 0 || cfg.CrossoverRate > 1 {
		return nil, fmt.Errorf("crossover rate must be in [0, 1]: %v", cfg.CrossoverRate)
	}
	if cfg.BaseTime <= 0 {
		cfg.BaseTime = cfg.GenomeLength
	}
	// A one-step budget leaves no room for a crossover cut once a length
	// policy resets genomes to the base.
	if cfg.BaseTime == 1 {
		return nil, fmt.Errorf("base time must be > 1: %d", cfg.BaseTime)
	}
	if cfg.MaxTime <= 0 {
		cfg.MaxTime = cfg.BaseTime
	}
	if cfg.MaxTime < cfg.BaseTime {
		return nil, fmt.Errorf("max time %d must be >= base time %d", cfg.MaxTime, cfg.BaseTime)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Selector.TournamentSize == 0 && cfg.Selector.PoolFraction == 0 {
		cfg.Selector = DefaultTournamentSelector()
	}

	policy := cfg.LengthPolicy
	if policy == nil {
		if cfg.AdaptiveTime {
			policy = DistanceReactiveLength{}
		} else {
			policy = FixedLength{}
		}
	}

	e := &Engine{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		evaluator: &scape.Evaluator{Weights: cfg.Weights, Dt: cfg.Dt},
		policy:    policy,
		timeLimit: cfg.GenomeLength,
	}
	e.population = make([]model.Individual, cfg.PopulationSize)
	for i := range e.population {
		e.population[i] = model.Individual{Genome: genome.Random(e.rng, cfg.GenomeLength)}
	}
	return e, nil
}

// SetRunIdentity stamps telemetry rows with the run's identifiers.
func (e *Engine) SetRunIdentity(runID string, trainingNumber int) {
	e.runID = runID
	e.trainingNumber = trainingNumber
}

// Restore replaces the engine state with a loaded checkpoint. Genomes are
// resized to the stored time limit so the length invariant holds from the
// first evaluation after resume.
func (e *Engine) Restore(population []model.Individual, generation int, best *model.Individual, timeLimit int) error {
	if len(population) != e.cfg.PopulationSize {
		return fmt.Errorf("population size mismatch: got=%d want=%d", len(population), e.cfg.PopulationSize)
	}
	if generation < 0 {
		return fmt.Errorf("generation must be >= 0: %d", generation)
	}
	if timeLimit <= 1 {
		return fmt.Errorf("time limit must be > 1: %d", timeLimit)
	}

	e.population = make([]model.Individual, len(population))
	for i, ind := range population {
		restored := ind.Clone()
		restored.Genome = genome.Resize(e.rng, restored.Genome, timeLimit)
		e.population[i] = restored
	}
	e.generation = generation
	e.timeLimit = timeLimit
	e.best = nil
	if best != nil {
		clone := best.Clone()
		e.best = &clone
	}
	return nil
}

func (e *Engine) Generation() int { return e.generation }

func (e *Engine) TimeLimit() int { return e.timeLimit }

// Best returns a copy of the all-time best individual of this run, if any
// generation has completed.
func (e *Engine) Best() (model.Individual, bool) {
	if e.best == nil {
		return model.Individual{}, false
	}
	return e.best.Clone(), true
}

// Population returns a deep copy of the current population.
func (e *Engine) Population() []model.Individual {
	out := make([]model.Individual, len(e.population))
	for i, ind := range e.population {
		out[i] = ind.Clone()
	}
	return out
}

// Params reports the hyperparameters active right now. GenomeLength tracks
// the adaptive budget.
func (e *Engine) Params() model.Params {
	return model.Params{
		PopulationSize: e.cfg.PopulationSize,
		GenomeLength:   e.timeLimit,
		MutationRate:   e.cfg.MutationRate,
		CrossoverRate:  e.cfg.CrossoverRate,
		EliteSize:      e.cfg.EliteSize,
	}
}

// RunGeneration evaluates the whole population, folds the results into the
// all-time record and telemetry, then evolves the next population and
// advances the generation counter. On return the engine is at the start of
// the next collection phase, which is the only state checkpoints may
// capture.
func (e *Engine) RunGeneration(ctx context.Context) (model.GenerationRecord, error) {
	started := time.Now()

	if err := e.evaluatePopulation(ctx); err != nil {
		return model.GenerationRecord{}, err
	}

	ranked := Rank(e.population)
	e.updateRecord(ranked[0])

	record := stats.BuildGenerationRecord(stats.GenerationInput{
		RunID:          e.runID,
		TrainingNumber: e.trainingNumber,
		Generation:     e.generation,
		Duration:       time.Since(started),
		Population:     e.population,
		Best:           e.best,
		Params:         e.Params(),
		TimeLimit:      e.timeLimit,
	})

	if err := e.evolve(ctx, ranked); err != nil {
		return model.GenerationRecord{}, err
	}
	e.generation++
	record.DurationSeconds = time.Since(started).Seconds()
	return record, nil
}

// evaluatePopulation scores every individual against its own fresh
// episode. Workers share nothing; results land in a staging slice and are
// copied back only once the whole generation is done.
func (e *Engine) evaluatePopulation(ctx context.Context) error {
	results := make([]model.Individual, len(e.population))

	workers := e.cfg.Workers
	if workers > len(e.population) {
		workers = len(e.population)
	}

	p := pool.New().WithErrors().WithMaxGoroutines(workers).WithContext(ctx)
	for i := range e.population {
		i := i
		candidate := e.population[i].Clone()
		p.Go(func(ctx context.Context) error {
			episode, err := e.cfg.Scape.NewEpisode(ctx)
			if err != nil {
				return fmt.Errorf("create episode for individual %d: %w", i, err)
			}
			if err := e.evaluator.Evaluate(ctx, episode, &candidate, e.timeLimit); err != nil {
				return fmt.Errorf("evaluate individual %d: %w", i, err)
			}
			results[i] = candidate
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	copy(e.population, results)
	return nil
}

func (e *Engine) updateRecord(generationBest model.Individual) {
	if e.best == nil || generationBest.Fitness > e.best.Fitness {
		clone := generationBest.Clone()
		e.best = &clone
	}
}

// evolve produces the next population: elites first as fresh copies, then
// tournament-selected parents recombined and mutated until the population
// is full. A surplus second child at the last slot is dropped. Genomes are
// resized afterwards if the episode-length policy moved the budget.
func (e *Engine) evolve(ctx context.Context, ranked []model.Individual) error {
	next := make([]model.Individual, 0, e.cfg.PopulationSize)
	for i := 0; i < e.cfg.EliteSize; i++ {
		next = append(next, ranked[i].Clone())
	}

	for len(next) < e.cfg.PopulationSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		parent1, err := e.cfg.Selector.PickParent(e.rng, ranked)
		if err != nil {
			return err
		}
		parent2, err := e.cfg.Selector.PickParent(e.rng, ranked)
		if err != nil {
			return err
		}

		child1, child2, err := Crossover(e.rng, parent1.Genome, parent2.Genome, e.cfg.CrossoverRate)
		if err != nil {
			return err
		}
		Mutate(e.rng, child1, e.cfg.MutationRate)
		Mutate(e.rng, child2, e.cfg.MutationRate)

		next = append(next, model.Individual{Genome: child1})
		if len(next) < e.cfg.PopulationSize {
			next = append(next, model.Individual{Genome: child2})
		}
	}

	newLimit := e.timeLimit
	if e.cfg.AdaptiveTime || e.cfg.LengthPolicy != nil {
		obs := LengthObservation{BestDistance: bestDistance(ranked)}
		if e.best != nil {
			obs.BestFitnessEver = e.best.Fitness
		}
		newLimit = e.policy.NextLimit(obs, e.cfg.BaseTime, e.cfg.MaxTime)
	}
	if newLimit != e.timeLimit {
		for i := range next {
			next[i].Genome = genome.Resize(e.rng, next[i].Genome, newLimit)
		}
		e.timeLimit = newLimit
	}

	e.population = next
	return nil
}

func bestDistance(population []model.Individual) float64 {
	best := 0.0
	for i, ind := range population {
		if i == 0 || ind.Distance > best {
			best = ind.Distance
		}
	}
	return best
}
