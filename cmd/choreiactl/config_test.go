package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	choreiaapi "choreia/pkg/choreia"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRunConfig(t *testing.T) {
	path := writeConfig(t, `
population_size: 30
genome_length: 250
mutation_rate: 0.2
elite_size: 3
adaptive_time: true
max_time: 1500
time_policy: fitness
weights:
  distance_weight: 80
  stability_weight: 40
  fallen_penalty: -120
  energy_penalty: 0.2
  time_bonus: 1.0
`)

	cfg, err := loadRunConfig(path)
	require.NoError(t, err)
	require.Equal(t, 30, *cfg.PopulationSize)
	require.Equal(t, 250, *cfg.GenomeLength)
	require.Equal(t, 0.2, *cfg.MutationRate)
	require.Equal(t, "fitness", *cfg.TimePolicy)
	require.Equal(t, 80.0, cfg.Weights.Distance)
	require.Equal(t, -120.0, cfg.Weights.FallenPenalty)
	require.Nil(t, cfg.CrossoverRate)
	require.Nil(t, cfg.Seed)
}

func TestLoadRunConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "population: 30\n")

	_, err := loadRunConfig(path)
	require.ErrorContains(t, err, "parse run config")
}

func TestMergeRunConfigPrecedence(t *testing.T) {
	path := writeConfig(t, `
population_size: 30
genome_length: 250
seed: 99
`)
	cfg, err := loadRunConfig(path)
	require.NoError(t, err)

	flags := choreiaapi.RunRequest{
		PopulationSize: 50,
		GenomeLength:   500,
		Seed:           1,
		Generations:    100,
	}
	// -pop passed explicitly on the command line, seed left at default.
	merged := mergeRunConfig(cfg, flags, map[string]bool{"pop": true})

	require.Equal(t, 50, merged.PopulationSize)
	require.Equal(t, 250, merged.GenomeLength)
	require.Equal(t, int64(99), merged.Seed)
	require.Equal(t, 100, merged.Generations)
	require.Nil(t, merged.Weights)
}
