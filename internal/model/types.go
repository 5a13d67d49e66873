package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Individual is one candidate choreography together with the metrics of its
// most recent episode. Metrics are episode-scoped: every evaluation
// overwrites them.
type Individual struct {
	Genome    []int   `json:"genome"`
	Fitness   float64 `json:"fitness"`
	Distance  float64 `json:"distance"`
	Stability float64 `json:"stability"`
	Energy    float64 `json:"energy"`
	TimeAlive int     `json:"time_alive"`
}

// Clone returns a deep copy of the individual.
func (ind Individual) Clone() Individual {
	out := ind
	out.Genome = append([]int(nil), ind.Genome...)
	return out
}

// FitnessWeights configures the scalar reduction of an episode.
type FitnessWeights struct {
	Distance      float64 `json:"distance_weight" yaml:"distance_weight"`
	Stability     float64 `json:"stability_weight" yaml:"stability_weight"`
	FallenPenalty float64 `json:"fallen_penalty" yaml:"fallen_penalty"`
	EnergyPenalty float64 `json:"energy_penalty" yaml:"energy_penalty"`
	TimeBonus     float64 `json:"time_bonus" yaml:"time_bonus"`
}

// DefaultFitnessWeights returns the reference weighting.
func DefaultFitnessWeights() FitnessWeights {
	return FitnessWeights{
		Distance:      100.0,
		Stability:     50.0,
		FallenPenalty: -100.0,
		EnergyPenalty: 0.1,
		TimeBonus:     0.5,
	}
}

// Params is the hyperparameter set that produced a population. It is stored
// inside checkpoints and stamped onto every telemetry row.
type Params struct {
	PopulationSize int     `json:"population_size"`
	GenomeLength   int     `json:"genome_length"`
	MutationRate   float64 `json:"mutation_rate"`
	CrossoverRate  float64 `json:"crossover_rate"`
	EliteSize      int     `json:"elite_size"`
}

// Checkpoint is a point-in-time snapshot of a run, taken only between
// generations. TrainingNumber identifies the run the snapshot belongs to.
type Checkpoint struct {
	VersionedRecord
	RunID            string       `json:"run_id"`
	TrainingNumber   int          `json:"training_number"`
	Generation       int          `json:"generation"`
	Population       []Individual `json:"population"`
	Best             *Individual  `json:"best_individual,omitempty"`
	Params           Params       `json:"parameters"`
	CurrentTimeLimit int          `json:"current_time_limit"`
	SavedAtUTC       string       `json:"saved_at_utc"`
}

// MetricStats holds the five summary statistics reported per metric per
// generation.
type MetricStats struct {
	Best   float64 `json:"best"`
	Worst  float64 `json:"worst"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}

// GenerationRecord is one telemetry row. The feed is for offline analysis
// only and is never read back by the optimizer.
type GenerationRecord struct {
	RunID            string      `json:"run_id"`
	TrainingNumber   int         `json:"training_number"`
	Generation       int         `json:"generation"`
	DurationSeconds  float64     `json:"duration_seconds"`
	Fitness          MetricStats `json:"fitness"`
	Distance         MetricStats `json:"distance"`
	Stability        MetricStats `json:"stability"`
	Energy           MetricStats `json:"energy"`
	TimeAlive        MetricStats `json:"time_alive"`
	BestFitnessEver  float64     `json:"best_fitness_ever"`
	BestDistanceEver float64     `json:"best_distance_ever"`
	Params           Params      `json:"parameters"`
	TimeLimit        int         `json:"time_limit"`
}

// TrainingSummary aggregates a whole training's telemetry rows.
type TrainingSummary struct {
	TrainingNumber   int     `json:"training_number"`
	TotalGenerations int     `json:"total_generations"`
	TotalDurationSec float64 `json:"total_duration_seconds"`
	AvgDurationSec   float64 `json:"avg_generation_duration_seconds"`
	FirstBestFitness float64 `json:"first_best_fitness"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	BestFitnessEver  float64 `json:"best_fitness_ever"`
	BestDistanceEver float64 `json:"best_distance_ever"`
	AvgFitness       float64 `json:"avg_fitness"`
	AvgDistance      float64 `json:"avg_distance"`
	FinalTimeLimit   int     `json:"final_time_limit"`
}
