package choreia

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"choreia/internal/genome"
	"choreia/internal/scape"
)

// sprintScape covers ground fast no matter what is commanded, so any
// active episode-length policy would move the budget immediately.
type sprintScape struct{}

func (sprintScape) Name() string { return "sprint" }

func (sprintScape) NewEpisode(_ context.Context) (scape.Episode, error) {
	return &sprintEpisode{}, nil
}

type sprintEpisode struct {
	x float64
}

func (e *sprintEpisode) Apply(_ genome.ActuatorCommand) error { return nil }

func (e *sprintEpisode) Step(_ float64) error {
	e.x += 0.5
	return nil
}

func (e *sprintEpisode) State() (scape.State, error) {
	return scape.State{PositionX: e.x}, nil
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{
		StoreKind: "memory",
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClientRunTelemetryAndExport(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{
		PopulationSize: 8,
		GenomeLength:   20,
		EliteSize:      2,
		Generations:    3,
		Workers:        2,
		Seed:           42,
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.TrainingsCompleted)
	require.Equal(t, 1, summary.TrainingNumber)
	require.NotEmpty(t, summary.RunID)
	require.True(t, summary.BestFound)

	trainings, err := client.Trainings(ctx)
	require.NoError(t, err)
	require.Equal(t, []int{1}, trainings)

	records, err := client.Telemetry(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, rec := range records {
		require.Equal(t, i, rec.Generation)
		require.Equal(t, summary.RunID, rec.RunID)
	}

	report, err := client.Summary(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 3, report.TotalGenerations)
	require.Equal(t, summary.BestFitness, report.BestFitnessEver)

	var buf bytes.Buffer
	require.NoError(t, client.ExportCSV(ctx, 1, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	require.True(t, strings.HasPrefix(lines[0], "run_id,training_number,generation"))
}

func TestClientRunUnknownScape(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Run(context.Background(), RunRequest{Scape: "hexapod"})
	require.ErrorContains(t, err, "unsupported scape")
}

func TestClientRunAcceptsScapeAlias(t *testing.T) {
	client := newTestClient(t)

	summary, err := client.Run(context.Background(), RunRequest{
		Scape:          "Walker",
		PopulationSize: 4,
		GenomeLength:   8,
		EliteSize:      1,
		Generations:    1,
		Seed:           2,
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.TrainingsCompleted)
}

func TestClientAdaptiveTimeOffPinsBudget(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	summary, err := client.RunWithScape(ctx, RunRequest{
		PopulationSize: 6,
		GenomeLength:   20,
		EliteSize:      1,
		Generations:    3,
		MaxTime:        2000,
		AdaptiveTime:   false,
		Seed:           9,
	}, sprintScape{})
	require.NoError(t, err)
	// The scape travels far, so an active policy would have grown the
	// budget already.
	require.Greater(t, summary.BestDistance, 1.0)

	checkpoint, ok, err := client.Checkpoint(ctx, summary.TrainingNumber)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 20, checkpoint.CurrentTimeLimit)
	for _, ind := range checkpoint.Population {
		require.Len(t, ind.Genome, 20)
	}
}

func TestClientAdaptiveTimeOnGrowsBudget(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	summary, err := client.RunWithScape(ctx, RunRequest{
		PopulationSize: 6,
		GenomeLength:   20,
		EliteSize:      1,
		Generations:    3,
		MaxTime:        2000,
		AdaptiveTime:   true,
		Seed:           9,
	}, sprintScape{})
	require.NoError(t, err)

	checkpoint, ok, err := client.Checkpoint(ctx, summary.TrainingNumber)
	require.NoError(t, err)
	require.True(t, ok)
	require.Greater(t, checkpoint.CurrentTimeLimit, 20)
}

func TestClientBestAndUsage(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{
		PopulationSize: 6,
		GenomeLength:   15,
		EliteSize:      1,
		Generations:    2,
		Seed:           7,
	})
	require.NoError(t, err)

	best, err := client.BestIndividual(ctx, summary.TrainingNumber)
	require.NoError(t, err)
	require.Equal(t, summary.BestFitness, best.Fitness)
	require.NotEmpty(t, best.Genome)

	usage, err := client.Usage(ctx, UsageRequest{Latest: true})
	require.NoError(t, err)
	require.Equal(t, summary.TrainingNumber, usage.TrainingNumber)
	require.Equal(t, 6*15, usage.Stats.TotalActions)

	_, err = client.Usage(ctx, UsageRequest{TrainingNumber: 1, Latest: true})
	require.ErrorContains(t, err, "either training number or latest")
}

func TestClientResumeContinuesTraining(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first, err := client.Run(ctx, RunRequest{
		PopulationSize: 6,
		GenomeLength:   12,
		EliteSize:      1,
		Generations:    2,
		Seed:           3,
	})
	require.NoError(t, err)

	second, err := client.Run(ctx, RunRequest{
		PopulationSize: 6,
		GenomeLength:   12,
		EliteSize:      1,
		Generations:    4,
		Seed:           3,
		Resume:         true,
	})
	require.NoError(t, err)
	require.Equal(t, first.TrainingNumber, second.TrainingNumber)

	records, err := client.Telemetry(ctx, second.TrainingNumber)
	require.NoError(t, err)
	require.Len(t, records, 4)
}

func TestClientReset(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Run(ctx, RunRequest{
		PopulationSize: 6,
		GenomeLength:   10,
		EliteSize:      1,
		Generations:    1,
		Seed:           1,
	})
	require.NoError(t, err)

	require.NoError(t, client.Reset(ctx))

	trainings, err := client.Trainings(ctx)
	require.NoError(t, err)
	require.Empty(t, trainings)
}
