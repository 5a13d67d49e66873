package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"choreia/internal/model"
)

func TestSummarize(t *testing.T) {
	stats := Summarize([]float64{4, 1, 3, 2})

	require.Equal(t, 4.0, stats.Best)
	require.Equal(t, 1.0, stats.Worst)
	require.Equal(t, 2.5, stats.Mean)
	require.Equal(t, 2.5, stats.Median)
	require.InDelta(t, 1.1180, stats.Std, 1e-4)
}

func TestSummarizeOddLengthAndEmpty(t *testing.T) {
	stats := Summarize([]float64{7, -2, 5})
	require.Equal(t, 5.0, stats.Median)
	require.Equal(t, -2.0, stats.Worst)

	require.Equal(t, model.MetricStats{}, Summarize(nil))
}

func TestBuildGenerationRecord(t *testing.T) {
	population := []model.Individual{
		{Fitness: 10, Distance: 1, Stability: 1, Energy: 50, TimeAlive: 100},
		{Fitness: 30, Distance: 3, Stability: 0, Energy: 70, TimeAlive: 200},
	}
	best := model.Individual{Fitness: 42, Distance: 3.5}

	record := BuildGenerationRecord(GenerationInput{
		RunID:          "run-1",
		TrainingNumber: 2,
		Generation:     5,
		Duration:       1500 * time.Millisecond,
		Population:     population,
		Best:           &best,
		Params:         model.Params{PopulationSize: 2, GenomeLength: 500},
		TimeLimit:      500,
	})

	require.Equal(t, "run-1", record.RunID)
	require.Equal(t, 2, record.TrainingNumber)
	require.Equal(t, 5, record.Generation)
	require.Equal(t, 1.5, record.DurationSeconds)
	require.Equal(t, 30.0, record.Fitness.Best)
	require.Equal(t, 10.0, record.Fitness.Worst)
	require.Equal(t, 20.0, record.Fitness.Mean)
	require.Equal(t, 2.0, record.Distance.Mean)
	require.Equal(t, 150.0, record.TimeAlive.Median)
	require.Equal(t, 42.0, record.BestFitnessEver)
	require.Equal(t, 3.5, record.BestDistanceEver)
	require.Equal(t, 500, record.TimeLimit)
}

func TestBuildGenerationRecordWithoutBest(t *testing.T) {
	record := BuildGenerationRecord(GenerationInput{
		Population: []model.Individual{{Fitness: -5}},
	})
	require.Equal(t, 0.0, record.BestFitnessEver)
}

func TestSummarizeTraining(t *testing.T) {
	records := []model.GenerationRecord{
		{
			TrainingNumber:  3,
			DurationSeconds: 2,
			Fitness:         model.MetricStats{Best: -50, Mean: -80},
			Distance:        model.MetricStats{Mean: 0.1},
			BestFitnessEver: -50,
			TimeLimit:       500,
		},
		{
			TrainingNumber:   3,
			DurationSeconds:  4,
			Fitness:          model.MetricStats{Best: 120, Mean: 40},
			Distance:         model.MetricStats{Mean: 0.7},
			BestFitnessEver:  120,
			BestDistanceEver: 1.2,
			TimeLimit:        560,
		},
	}

	summary, ok := SummarizeTraining(records)
	require.True(t, ok)
	require.Equal(t, 3, summary.TrainingNumber)
	require.Equal(t, 2, summary.TotalGenerations)
	require.Equal(t, 6.0, summary.TotalDurationSec)
	require.Equal(t, 3.0, summary.AvgDurationSec)
	require.Equal(t, -50.0, summary.FirstBestFitness)
	require.Equal(t, 120.0, summary.FinalBestFitness)
	require.Equal(t, 120.0, summary.BestFitnessEver)
	require.Equal(t, 1.2, summary.BestDistanceEver)
	require.Equal(t, -20.0, summary.AvgFitness)
	require.InDelta(t, 0.4, summary.AvgDistance, 1e-12)
	require.Equal(t, 560, summary.FinalTimeLimit)
}

func TestSummarizeTrainingAllNegative(t *testing.T) {
	records := []model.GenerationRecord{
		{BestFitnessEver: -99.5},
		{BestFitnessEver: -42},
	}

	summary, ok := SummarizeTraining(records)
	require.True(t, ok)
	require.Equal(t, -42.0, summary.BestFitnessEver)
}

func TestSummarizeTrainingEmpty(t *testing.T) {
	_, ok := SummarizeTraining(nil)
	require.False(t, ok)
}
