package storage

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"

	"choreia/internal/model"
)

func TestWriteTelemetryCSV(t *testing.T) {
	records := []model.GenerationRecord{
		{
			RunID:            "run-a",
			TrainingNumber:   1,
			Generation:       0,
			DurationSeconds:  1.25,
			Fitness:          model.MetricStats{Best: 300, Worst: -99.5, Mean: 100.25, Median: 99, Std: 12.5},
			Distance:         model.MetricStats{Best: 2.5},
			BestFitnessEver:  300,
			BestDistanceEver: 2.5,
			Params:           model.Params{PopulationSize: 50, GenomeLength: 500, MutationRate: 0.1, CrossoverRate: 0.7, EliteSize: 5},
			TimeLimit:        625,
		},
		{RunID: "run-a", TrainingNumber: 1, Generation: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTelemetryCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, telemetryCSVHeader, rows[0])
	for _, row := range rows[1:] {
		require.Len(t, row, len(telemetryCSVHeader))
	}

	require.Equal(t, "run-a", rows[1][0])
	require.Equal(t, "1", rows[1][1])
	require.Equal(t, "0", rows[1][2])
	require.Equal(t, "1.25", rows[1][3])
	require.Equal(t, "300", rows[1][4])
	require.Equal(t, "-99.5", rows[1][5])
	require.Equal(t, "2.5", rows[1][9])
	require.Equal(t, "300", rows[1][29])
	require.Equal(t, "50", rows[1][31])
	require.Equal(t, "625", rows[1][33])
	require.Equal(t, "0.1", rows[1][34])
	require.Equal(t, "5", rows[1][36])

	require.Equal(t, "1", rows[2][2])
}

func TestWriteTelemetryCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTelemetryCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
