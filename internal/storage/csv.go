package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"choreia/internal/model"
)

var telemetryCSVHeader = []string{
	"run_id", "training_number", "generation", "duration_seconds",
	"fitness_best", "fitness_worst", "fitness_avg", "fitness_median", "fitness_std",
	"distance_best", "distance_worst", "distance_avg", "distance_median", "distance_std",
	"stability_best", "stability_worst", "stability_avg", "stability_median", "stability_std",
	"energy_best", "energy_worst", "energy_avg", "energy_median", "energy_std",
	"time_alive_best", "time_alive_worst", "time_alive_avg", "time_alive_median", "time_alive_std",
	"absolute_best_fitness", "absolute_best_distance",
	"population_size", "genome_length", "current_time_limit",
	"mutation_rate", "crossover_rate", "elite_size",
}

// WriteTelemetryCSV renders telemetry rows as the flat tabular feed used
// for offline analysis.
func WriteTelemetryCSV(w io.Writer, records []model.GenerationRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(telemetryCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.RunID,
			strconv.Itoa(rec.TrainingNumber),
			strconv.Itoa(rec.Generation),
			formatFloat(rec.DurationSeconds),
		}
		for _, stats := range []model.MetricStats{rec.Fitness, rec.Distance, rec.Stability, rec.Energy, rec.TimeAlive} {
			row = append(row,
				formatFloat(stats.Best),
				formatFloat(stats.Worst),
				formatFloat(stats.Mean),
				formatFloat(stats.Median),
				formatFloat(stats.Std),
			)
		}
		row = append(row,
			formatFloat(rec.BestFitnessEver),
			formatFloat(rec.BestDistanceEver),
			strconv.Itoa(rec.Params.PopulationSize),
			strconv.Itoa(rec.Params.GenomeLength),
			strconv.Itoa(rec.TimeLimit),
			formatFloat(rec.Params.MutationRate),
			formatFloat(rec.Params.CrossoverRate),
			strconv.Itoa(rec.Params.EliteSize),
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for generation %d: %w", rec.Generation, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
