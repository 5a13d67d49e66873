package scape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"choreia/internal/genome"
	"choreia/internal/model"
)

// scriptedEpisode replays a fixed trajectory regardless of commands, and
// records what was applied.
type scriptedEpisode struct {
	positions []float64
	fallAt    int
	frame     int
	applied   []genome.ActuatorCommand
}

func (s *scriptedEpisode) Apply(cmd genome.ActuatorCommand) error {
	s.applied = append(s.applied, cmd)
	return nil
}

func (s *scriptedEpisode) Step(float64) error {
	s.frame++
	return nil
}

func (s *scriptedEpisode) State() (State, error) {
	x := 0.0
	if len(s.positions) > 0 {
		idx := min(s.frame, len(s.positions)-1)
		x = s.positions[idx]
	}
	fallen := s.fallAt > 0 && s.frame >= s.fallAt
	return State{PositionX: x, Fallen: fallen}, nil
}

func TestScoreReferenceScenarios(t *testing.T) {
	ev := NewEvaluator(model.DefaultFitnessWeights())

	tests := []struct {
		name      string
		distance  float64
		stability float64
		energy    float64
		timeAlive int
		want      float64
	}{
		{"fall immediately", 0, 0, 0, 1, -99.5},
		{"survive stationary", 0, 1, 0, 500, 300},
		{"good mover", 5, 1, 200, 500, 780},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ev.Score(tt.distance, tt.stability, tt.energy, tt.timeAlive)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluateRunsToFrameLimit(t *testing.T) {
	ev := NewEvaluator(model.DefaultFitnessWeights())
	ep := &scriptedEpisode{positions: []float64{0, 1, 2, 3, 4, 5}}
	ind := &model.Individual{Genome: []int{1, 0, 2, 0, 1}}

	require.NoError(t, ev.Evaluate(context.Background(), ep, ind, 5))

	assert.Equal(t, 5, ind.TimeAlive)
	assert.InDelta(t, 5.0, ind.Distance, 1e-9)
	assert.InDelta(t, 1.0, ind.Stability, 1e-9)
	assert.InDelta(t, 3.0, ind.Energy, 1e-9, "three non-idle codes issued")
	assert.InDelta(t, ev.Score(5, 1, 3, 5), ind.Fitness, 1e-9)
}

func TestEvaluateStopsWhenFallen(t *testing.T) {
	ev := NewEvaluator(model.DefaultFitnessWeights())
	ep := &scriptedEpisode{positions: []float64{0, 0.5, 1.0, 1.5}, fallAt: 2}
	ind := &model.Individual{Genome: []int{1, 1, 1, 1, 1, 1}}

	require.NoError(t, ev.Evaluate(context.Background(), ep, ind, 100))

	assert.Equal(t, 2, ind.TimeAlive)
	assert.InDelta(t, 0.0, ind.Stability, 1e-9)
	assert.InDelta(t, 1.0, ind.Distance, 1e-9)
	assert.Less(t, ind.Fitness, ev.Score(1.0, 1.0, 2, 2), "fallen must score below upright")
}

func TestEvaluateHoldsLastGeneBeyondGenome(t *testing.T) {
	ev := NewEvaluator(model.DefaultFitnessWeights())
	ep := &scriptedEpisode{positions: []float64{0}}
	ind := &model.Individual{Genome: []int{0, 3}}

	require.NoError(t, ev.Evaluate(context.Background(), ep, ind, 4))

	require.Len(t, ep.applied, 4)
	want, err := genome.Decode(3)
	require.NoError(t, err)
	assert.Equal(t, want, ep.applied[1])
	assert.Equal(t, want, ep.applied[2], "last gene repeats past genome end")
	assert.Equal(t, want, ep.applied[3])
	assert.InDelta(t, 3.0, ind.Energy, 1e-9)
}

func TestEvaluateOverwritesPreviousMetrics(t *testing.T) {
	ev := NewEvaluator(model.DefaultFitnessWeights())
	ep := &scriptedEpisode{positions: []float64{0}}
	ind := &model.Individual{
		Genome:   []int{0, 0, 0},
		Fitness:  999,
		Distance: 42,
		Energy:   17,
	}

	require.NoError(t, ev.Evaluate(context.Background(), ep, ind, 3))

	assert.InDelta(t, 0.0, ind.Distance, 1e-9)
	assert.InDelta(t, 0.0, ind.Energy, 1e-9)
	assert.InDelta(t, ev.Score(0, 1, 0, 3), ind.Fitness, 1e-9)
}

func TestEvaluateValidation(t *testing.T) {
	ev := NewEvaluator(model.DefaultFitnessWeights())
	ctx := context.Background()

	err := ev.Evaluate(ctx, nil, &model.Individual{Genome: []int{0}}, 1)
	assert.Error(t, err)

	err = ev.Evaluate(ctx, &scriptedEpisode{}, &model.Individual{}, 1)
	assert.Error(t, err)

	err = ev.Evaluate(ctx, &scriptedEpisode{}, &model.Individual{Genome: []int{0}}, 0)
	assert.Error(t, err)
}
