package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"choreia/internal/model"
	choreiaapi "choreia/pkg/choreia"
)

// runConfig is the YAML shape of a run configuration file. Every field is
// a pointer so absent keys can be told apart from zero values.
type runConfig struct {
	Scape          *string  `yaml:"scape"`
	PopulationSize *int     `yaml:"population_size"`
	GenomeLength   *int     `yaml:"genome_length"`
	MutationRate   *float64 `yaml:"mutation_rate"`
	CrossoverRate  *float64 `yaml:"crossover_rate"`
	EliteSize      *int     `yaml:"elite_size"`

	TournamentSize         *int     `yaml:"tournament_size"`
	TournamentPoolFraction *float64 `yaml:"tournament_pool_fraction"`

	AdaptiveTime *bool   `yaml:"adaptive_time"`
	BaseTime     *int    `yaml:"base_time"`
	MaxTime      *int    `yaml:"max_time"`
	TimePolicy   *string `yaml:"time_policy"`

	Weights *model.FitnessWeights `yaml:"weights"`

	Generations  *int   `yaml:"generations"`
	SaveEvery    *int   `yaml:"save_every"`
	Workers      *int   `yaml:"workers"`
	Seed         *int64 `yaml:"seed"`
	AutoContinue *bool  `yaml:"auto_continue"`
	MaxTrainings *int   `yaml:"max_trainings"`
}

func loadRunConfig(path string) (runConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return runConfig{}, fmt.Errorf("read run config: %w", err)
	}
	var cfg runConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return runConfig{}, fmt.Errorf("parse run config %s: %w", path, err)
	}
	return cfg, nil
}

// mergeRunConfig layers a config file under the flag values: file keys win
// over flag defaults, explicitly set flags win over the file.
func mergeRunConfig(cfg runConfig, flags choreiaapi.RunRequest, setFlags map[string]bool) choreiaapi.RunRequest {
	req := flags

	if cfg.Scape != nil && !setFlags["scape"] {
		req.Scape = *cfg.Scape
	}
	if cfg.PopulationSize != nil && !setFlags["pop"] {
		req.PopulationSize = *cfg.PopulationSize
	}
	if cfg.GenomeLength != nil && !setFlags["genome-length"] {
		req.GenomeLength = *cfg.GenomeLength
	}
	if cfg.MutationRate != nil && !setFlags["mutation-rate"] {
		req.MutationRate = *cfg.MutationRate
	}
	if cfg.CrossoverRate != nil && !setFlags["crossover-rate"] {
		req.CrossoverRate = *cfg.CrossoverRate
	}
	if cfg.EliteSize != nil && !setFlags["elite"] {
		req.EliteSize = *cfg.EliteSize
	}
	if cfg.TournamentSize != nil && !setFlags["tournament"] {
		req.TournamentSize = *cfg.TournamentSize
	}
	if cfg.TournamentPoolFraction != nil && !setFlags["pool-fraction"] {
		req.TournamentPoolFraction = *cfg.TournamentPoolFraction
	}
	if cfg.AdaptiveTime != nil && !setFlags["adaptive-time"] {
		req.AdaptiveTime = *cfg.AdaptiveTime
	}
	if cfg.BaseTime != nil && !setFlags["base-time"] {
		req.BaseTime = *cfg.BaseTime
	}
	if cfg.MaxTime != nil && !setFlags["max-time"] {
		req.MaxTime = *cfg.MaxTime
	}
	if cfg.TimePolicy != nil && !setFlags["time-policy"] {
		req.TimePolicy = *cfg.TimePolicy
	}
	if cfg.Weights != nil {
		weights := *cfg.Weights
		req.Weights = &weights
	}
	if cfg.Generations != nil && !setFlags["gens"] {
		req.Generations = *cfg.Generations
	}
	if cfg.SaveEvery != nil && !setFlags["save-every"] {
		req.SaveEvery = *cfg.SaveEvery
	}
	if cfg.Workers != nil && !setFlags["workers"] {
		req.Workers = *cfg.Workers
	}
	if cfg.Seed != nil && !setFlags["seed"] {
		req.Seed = *cfg.Seed
	}
	if cfg.AutoContinue != nil && !setFlags["auto-continue"] {
		req.AutoContinue = *cfg.AutoContinue
	}
	if cfg.MaxTrainings != nil && !setFlags["max-trainings"] {
		req.MaxTrainings = *cfg.MaxTrainings
	}
	return req
}
