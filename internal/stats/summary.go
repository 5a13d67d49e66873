package stats

import (
	"math"
	"sort"
	"time"

	"choreia/internal/model"
)

// Summarize computes the five per-metric statistics reported in telemetry.
// Std is the population standard deviation.
func Summarize(values []float64) model.MetricStats {
	if len(values) == 0 {
		return model.MetricStats{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	total := 0.0
	for _, v := range sorted {
		total += v
	}
	mean := total / float64(len(sorted))

	variance := 0.0
	for _, v := range sorted {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(sorted))

	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	return model.MetricStats{
		Best:   sorted[len(sorted)-1],
		Worst:  sorted[0],
		Mean:   mean,
		Median: median,
		Std:    math.Sqrt(variance),
	}
}

// GenerationInput is everything needed to build one telemetry row.
type GenerationInput struct {
	RunID          string
	TrainingNumber int
	Generation     int
	Duration       time.Duration
	Population     []model.Individual
	Best           *model.Individual
	Params         model.Params
	TimeLimit      int
}

// BuildGenerationRecord reduces a fully-scored population to its telemetry
// row.
func BuildGenerationRecord(in GenerationInput) model.GenerationRecord {
	n := len(in.Population)
	fitness := make([]float64, n)
	distance := make([]float64, n)
	stability := make([]float64, n)
	energy := make([]float64, n)
	timeAlive := make([]float64, n)
	for i, ind := range in.Population {
		fitness[i] = ind.Fitness
		distance[i] = ind.Distance
		stability[i] = ind.Stability
		energy[i] = ind.Energy
		timeAlive[i] = float64(ind.TimeAlive)
	}

	record := model.GenerationRecord{
		RunID:           in.RunID,
		TrainingNumber:  in.TrainingNumber,
		Generation:      in.Generation,
		DurationSeconds: in.Duration.Seconds(),
		Fitness:         Summarize(fitness),
		Distance:        Summarize(distance),
		Stability:       Summarize(stability),
		Energy:          Summarize(energy),
		TimeAlive:       Summarize(timeAlive),
		Params:          in.Params,
		TimeLimit:       in.TimeLimit,
	}
	if in.Best != nil {
		record.BestFitnessEver = in.Best.Fitness
		record.BestDistanceEver = in.Best.Distance
	}
	return record
}

// SummarizeTraining folds one training's telemetry rows into its summary
// line. Rows must belong to the same training and be in generation order.
func SummarizeTraining(records []model.GenerationRecord) (model.TrainingSummary, bool) {
	if len(records) == 0 {
		return model.TrainingSummary{}, false
	}

	summary := model.TrainingSummary{
		TrainingNumber:   records[0].TrainingNumber,
		TotalGenerations: len(records),
		FirstBestFitness: records[0].Fitness.Best,
		FinalBestFitness: records[len(records)-1].Fitness.Best,
		FinalTimeLimit:   records[len(records)-1].TimeLimit,
		BestFitnessEver:  records[0].BestFitnessEver,
		BestDistanceEver: records[0].BestDistanceEver,
	}
	for _, rec := range records {
		summary.TotalDurationSec += rec.DurationSeconds
		summary.AvgFitness += rec.Fitness.Mean
		summary.AvgDistance += rec.Distance.Mean
		if rec.BestFitnessEver > summary.BestFitnessEver {
			summary.BestFitnessEver = rec.BestFitnessEver
		}
		if rec.BestDistanceEver > summary.BestDistanceEver {
			summary.BestDistanceEver = rec.BestDistanceEver
		}
	}
	summary.AvgDurationSec = summary.TotalDurationSec / float64(len(records))
	summary.AvgFitness /= float64(len(records))
	summary.AvgDistance /= float64(len(records))
	return summary, true
}
