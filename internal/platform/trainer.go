package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"choreia/internal/evo"
	"choreia/internal/model"
	"choreia/internal/storage"
)

const defaultSaveEvery = 5

// TrainerConfig wires the engine to persistence and controls the outer
// training loop.
type TrainerConfig struct {
	Store  storage.Store
	Engine evo.Config
	Logger *slog.Logger

	MaxGenerations int
	SaveEvery      int

	// Resume picks up the latest compatible checkpoint; ResumeTraining
	// pins resumption to one specific training number.
	Resume         bool
	ResumeTraining int

	// AutoContinue starts a brand-new training (fresh population, next
	// training number) each time a training reaches MaxGenerations.
	// MaxTrainings bounds how many trainings run in total; zero means
	// one without AutoContinue, unlimited with it.
	AutoContinue bool
	MaxTrainings int
}

// RunReport summarizes what a Run call did.
type RunReport struct {
	TrainingsCompleted int
	LastTrainingNumber int
	LastRunID          string
	GenerationsRun     int
	Best               model.Individual
	BestFound          bool
}

// Trainer owns the whole lifecycle of one or more trainings: checkpoint
// resolution, the generational loop, telemetry and periodic snapshots, and
// the best-effort final save on cancellation.
type Trainer struct {
	cfg    TrainerConfig
	logger *slog.Logger
}

func NewTrainer(cfg TrainerConfig) (*Trainer, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.MaxGenerations <= 0 {
		return nil, fmt.Errorf("max generations must be > 0: %d", cfg.MaxGenerations)
	}
	if cfg.SaveEvery <= 0 {
		cfg.SaveEvery = defaultSaveEvery
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{cfg: cfg, logger: logger}, nil
}

// Run executes trainings until the configured limit is hit or the context
// is cancelled. Cancellation triggers one last snapshot before returning
// the context error.
func (t *Trainer) Run(ctx context.Context) (RunReport, error) {
	report := RunReport{}

	for {
		checkpoint, trainingNumber, err := t.resolveTraining(ctx, report.TrainingsCompleted == 0)
		if err != nil {
			return report, err
		}

		engine, resumed, err := t.buildEngine(ctx, checkpoint, &trainingNumber)
		if err != nil {
			return report, err
		}
		runID := uuid.NewString()
		engine.SetRunIdentity(runID, trainingNumber)
		report.LastTrainingNumber = trainingNumber
		report.LastRunID = runID

		t.logger.Info("training started",
			"training", trainingNumber,
			"run_id", runID,
			"resumed", resumed,
			"generation", engine.Generation(),
			"population", t.cfg.Engine.PopulationSize,
		)

		if err := t.runTraining(ctx, engine, runID, trainingNumber, &report); err != nil {
			return report, err
		}
		report.TrainingsCompleted++

		if best, ok := engine.Best(); ok {
			if !report.BestFound || best.Fitness > report.Best.Fitness {
				report.Best = best
				report.BestFound = true
			}
		}

		if !t.cfg.AutoContinue {
			return report, nil
		}
		if t.cfg.MaxTrainings > 0 && report.TrainingsCompleted >= t.cfg.MaxTrainings {
			return report, nil
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
	}
}

// resolveTraining decides which training this run belongs to: a resumed
// checkpoint on the first iteration when requested, otherwise a freshly
// allocated number. Checkpoint problems are informational; the run
// proceeds with a fresh population.
func (t *Trainer) resolveTraining(ctx context.Context, firstTraining bool) (*model.Checkpoint, int, error) {
	if firstTraining && (t.cfg.Resume || t.cfg.ResumeTraining > 0) {
		checkpoint, ok, err := t.loadCheckpoint(ctx)
		if err != nil {
			if errors.Is(err, storage.ErrVersionMismatch) || errors.Is(err, storage.ErrTrainingMismatch) {
				t.logger.Info("no compatible checkpoint, starting fresh", "reason", err)
			} else {
				return nil, 0, err
			}
		} else if ok {
			return &checkpoint, checkpoint.TrainingNumber, nil
		} else {
			t.logger.Info("no checkpoint found, starting fresh")
		}
	}

	number, err := t.cfg.Store.NextTrainingNumber(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("allocate training number: %w", err)
	}
	return nil, number, nil
}

// buildEngine constructs the engine for one training and restores the
// resolved checkpoint onto it. An incompatible snapshot is informational:
// the run proceeds fresh under a newly allocated training number.
func (t *Trainer) buildEngine(ctx context.Context, checkpoint *model.Checkpoint, trainingNumber *int) (*evo.Engine, bool, error) {
	engine, err := evo.NewEngine(t.engineConfig(*trainingNumber))
	if err != nil {
		return nil, false, err
	}
	if checkpoint == nil {
		return engine, false, nil
	}

	restoreErr := engine.Restore(checkpoint.Population, checkpoint.Generation, checkpoint.Best, checkpoint.CurrentTimeLimit)
	if restoreErr == nil {
		return engine, true, nil
	}
	t.logger.Info("checkpoint incompatible with configuration, starting fresh", "reason", restoreErr)

	number, err := t.cfg.Store.NextTrainingNumber(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("allocate training number: %w", err)
	}
	*trainingNumber = number
	engine, err = evo.NewEngine(t.engineConfig(number))
	if err != nil {
		return nil, false, err
	}
	return engine, false, nil
}

// engineConfig derives the engine configuration for one training. Each
// training gets its own rng stream; reusing the base seed would replay the
// first training exactly on a deterministic scape.
func (t *Trainer) engineConfig(trainingNumber int) evo.Config {
	cfg := t.cfg.Engine
	cfg.Seed += int64(trainingNumber-1) * 7919
	return cfg
}

func (t *Trainer) loadCheckpoint(ctx context.Context) (model.Checkpoint, bool, error) {
	if t.cfg.ResumeTraining > 0 {
		checkpoint, ok, err := t.cfg.Store.GetCheckpoint(ctx, t.cfg.ResumeTraining)
		if err != nil || !ok {
			return model.Checkpoint{}, ok, err
		}
		if err := storage.ValidateTraining(checkpoint, t.cfg.ResumeTraining); err != nil {
			return model.Checkpoint{}, false, err
		}
		return checkpoint, true, nil
	}
	return t.cfg.Store.LatestCheckpoint(ctx)
}

func (t *Trainer) runTraining(ctx context.Context, engine *evo.Engine, runID string, trainingNumber int, report *RunReport) error {
	for engine.Generation() < t.cfg.MaxGenerations {
		if err := ctx.Err(); err != nil {
			t.finalSave(engine, runID, trainingNumber)
			return err
		}

		record, err := engine.RunGeneration(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.finalSave(engine, runID, trainingNumber)
				return ctx.Err()
			}
			return err
		}
		report.GenerationsRun = engine.Generation()

		t.logger.Info("generation complete",
			"training", trainingNumber,
			"generation", record.Generation,
			"best", record.Fitness.Best,
			"avg", record.Fitness.Mean,
			"record", record.BestFitnessEver,
			"limit", engine.TimeLimit(),
		)

		if err := t.cfg.Store.AppendTelemetry(ctx, record); err != nil {
			return fmt.Errorf("append telemetry: %w", err)
		}
		if engine.Generation()%t.cfg.SaveEvery == 0 {
			if err := t.saveCheckpoint(ctx, engine, runID, trainingNumber); err != nil {
				return err
			}
		}
	}

	return t.saveCheckpoint(ctx, engine, runID, trainingNumber)
}

// saveCheckpoint snapshots the engine between generations; by
// construction this is always a collection-start state.
func (t *Trainer) saveCheckpoint(ctx context.Context, engine *evo.Engine, runID string, trainingNumber int) error {
	checkpoint := model.Checkpoint{
		RunID:            runID,
		TrainingNumber:   trainingNumber,
		Generation:       engine.Generation(),
		Population:       engine.Population(),
		Params:           engine.Params(),
		CurrentTimeLimit: engine.TimeLimit(),
		SavedAtUTC:       time.Now().UTC().Format(time.RFC3339),
	}
	if best, ok := engine.Best(); ok {
		checkpoint.Best = &best
	}
	storage.StampVersion(&checkpoint)

	if err := t.cfg.Store.SaveCheckpoint(ctx, checkpoint); err != nil {
		return fmt.Errorf("save checkpoint for training %d: %w", trainingNumber, err)
	}
	return nil
}

// finalSave is the best-effort snapshot on cancellation. It runs on a
// detached context so an already-cancelled run can still persist.
func (t *Trainer) finalSave(engine *evo.Engine, runID string, trainingNumber int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := t.saveCheckpoint(ctx, engine, runID, trainingNumber); err != nil {
		t.logger.Warn("final checkpoint failed", "training", trainingNumber, "error", err)
	}
}
