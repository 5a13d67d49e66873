// Package choreia is the embedding surface for the choreography trainer:
// it wires storage, the evolutionary engine, and the training supervisor
// behind a single client so callers do not touch internal packages.
package choreia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"choreia/internal/evo"
	"choreia/internal/genome"
	"choreia/internal/model"
	"choreia/internal/platform"
	"choreia/internal/scape"
	"choreia/internal/scapeid"
	"choreia/internal/stats"
	"choreia/internal/storage"
)

const defaultDBPath = "choreia.db"

type Options struct {
	StoreKind string
	DBPath    string
	Logger    *slog.Logger
}

type Client struct {
	store  storage.Store
	logger *slog.Logger
}

type RunRequest struct {
	Scape          string
	PopulationSize int
	GenomeLength   int
	MutationRate   float64
	CrossoverRate  float64
	EliteSize      int

	TournamentSize         int
	TournamentPoolFraction float64

	AdaptiveTime bool
	BaseTime     int
	MaxTime      int
	TimePolicy   string

	Weights *model.FitnessWeights

	Generations int
	SaveEvery   int
	Workers     int
	Seed        int64

	Resume         bool
	ResumeTraining int
	AutoContinue   bool
	MaxTrainings   int
}

type RunSummary struct {
	TrainingsCompleted int
	TrainingNumber     int
	RunID              string
	GenerationsRun     int
	BestFitness        float64
	BestDistance       float64
	BestFound          bool
}

type UsageRequest struct {
	TrainingNumber int
	Latest         bool
}

type UsageSummary struct {
	TrainingNumber int
	Generation     int
	Stats          genome.UsageStats
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, logger: logger}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// Run executes one or more trainings on the named scape and blocks until
// they finish or ctx is cancelled. Cancellation still snapshots progress
// before returning.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	sc, err := scapeFromName(req.Scape)
	if err != nil {
		return RunSummary{}, err
	}
	return c.RunWithScape(ctx, req, sc)
}

// RunWithScape is Run with a caller-supplied environment, for embedders
// that bind a real physics backend instead of a built-in scape.
func (c *Client) RunWithScape(ctx context.Context, req RunRequest, sc scape.Scape) (RunSummary, error) {
	if sc == nil {
		return RunSummary{}, errors.New("scape is required")
	}
	if req.PopulationSize <= 0 {
		req.PopulationSize = 50
	}
	if req.GenomeLength <= 0 {
		req.GenomeLength = 500
	}
	if req.MutationRate == 0 {
		req.MutationRate = 0.1
	}
	if req.CrossoverRate == 0 {
		req.CrossoverRate = 0.7
	}
	if req.EliteSize <= 0 {
		req.EliteSize = 5
	}
	if req.Generations <= 0 {
		req.Generations = 100
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.BaseTime <= 0 {
		req.BaseTime = req.GenomeLength
	}
	if req.MaxTime <= 0 {
		req.MaxTime = 4 * req.BaseTime
	}

	weights := model.DefaultFitnessWeights()
	if req.Weights != nil {
		weights = *req.Weights
	}
	selector := evo.DefaultTournamentSelector()
	if req.TournamentSize > 0 {
		selector.TournamentSize = req.TournamentSize
	}
	if req.TournamentPoolFraction > 0 {
		selector.PoolFraction = req.TournamentPoolFraction
	}
	policy, err := evo.NewLengthPolicy(req.TimePolicy)
	if err != nil {
		return RunSummary{}, err
	}
	// A named policy always wins; with adaptive time off and no policy
	// named, the budget stays pinned for the whole run.
	if !req.AdaptiveTime && req.TimePolicy == "" {
		policy = evo.FixedLength{}
	}

	if err := c.store.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	trainer, err := platform.NewTrainer(platform.TrainerConfig{
		Store: c.store,
		Engine: evo.Config{
			Scape:          sc,
			Weights:        weights,
			PopulationSize: req.PopulationSize,
			GenomeLength:   req.GenomeLength,
			MutationRate:   req.MutationRate,
			CrossoverRate:  req.CrossoverRate,
			EliteSize:      req.EliteSize,
			Selector:       selector,
			AdaptiveTime:   req.AdaptiveTime,
			BaseTime:       req.BaseTime,
			MaxTime:        req.MaxTime,
			LengthPolicy:   policy,
			Workers:        req.Workers,
			Seed:           req.Seed,
		},
		Logger:         c.logger,
		MaxGenerations: req.Generations,
		SaveEvery:      req.SaveEvery,
		Resume:         req.Resume,
		ResumeTraining: req.ResumeTraining,
		AutoContinue:   req.AutoContinue,
		MaxTrainings:   req.MaxTrainings,
	})
	if err != nil {
		return RunSummary{}, err
	}

	report, err := trainer.Run(ctx)
	summary := RunSummary{
		TrainingsCompleted: report.TrainingsCompleted,
		TrainingNumber:     report.LastTrainingNumber,
		RunID:              report.LastRunID,
		GenerationsRun:     report.GenerationsRun,
		BestFound:          report.BestFound,
	}
	if report.BestFound {
		summary.BestFitness = report.Best.Fitness
		summary.BestDistance = report.Best.Distance
	}
	return summary, err
}

// Trainings lists every training number known to the store.
func (c *Client) Trainings(ctx context.Context) ([]int, error) {
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	return c.store.TrainingNumbers(ctx)
}

// Telemetry returns the per-generation records of one training in
// generation order.
func (c *Client) Telemetry(ctx context.Context, trainingNumber int) ([]model.GenerationRecord, error) {
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	records, ok, err := c.store.GetTelemetry(ctx, trainingNumber)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no telemetry for training %d", trainingNumber)
	}
	return records, nil
}

// Summary aggregates one training's telemetry into a single report.
func (c *Client) Summary(ctx context.Context, trainingNumber int) (model.TrainingSummary, error) {
	records, err := c.Telemetry(ctx, trainingNumber)
	if err != nil {
		return model.TrainingSummary{}, err
	}
	summary, ok := stats.SummarizeTraining(records)
	if !ok {
		return model.TrainingSummary{}, fmt.Errorf("no telemetry for training %d", trainingNumber)
	}
	return summary, nil
}

// ExportCSV writes one training's telemetry as CSV to w.
func (c *Client) ExportCSV(ctx context.Context, trainingNumber int, w io.Writer) error {
	records, err := c.Telemetry(ctx, trainingNumber)
	if err != nil {
		return err
	}
	return storage.WriteTelemetryCSV(w, records)
}

// Checkpoint returns the stored snapshot of one training.
func (c *Client) Checkpoint(ctx context.Context, trainingNumber int) (model.Checkpoint, bool, error) {
	if err := c.store.Init(ctx); err != nil {
		return model.Checkpoint{}, false, err
	}
	return c.store.GetCheckpoint(ctx, trainingNumber)
}

// BestIndividual returns the all-time best of one training, taken from its
// checkpoint.
func (c *Client) BestIndividual(ctx context.Context, trainingNumber int) (model.Individual, error) {
	checkpoint, ok, err := c.Checkpoint(ctx, trainingNumber)
	if err != nil {
		return model.Individual{}, err
	}
	if !ok {
		return model.Individual{}, fmt.Errorf("no checkpoint for training %d", trainingNumber)
	}
	if checkpoint.Best == nil {
		return model.Individual{}, fmt.Errorf("training %d has no evaluated best yet", trainingNumber)
	}
	return checkpoint.Best.Clone(), nil
}

// Usage tallies action usage over the checkpointed population of a
// training, answering which actuators the evolved choreographies lean on.
func (c *Client) Usage(ctx context.Context, req UsageRequest) (UsageSummary, error) {
	if req.Latest && req.TrainingNumber != 0 {
		return UsageSummary{}, errors.New("use either training number or latest")
	}

	var (
		checkpoint model.Checkpoint
		ok         bool
		err        error
	)
	if req.Latest {
		if err = c.store.Init(ctx); err != nil {
			return UsageSummary{}, err
		}
		checkpoint, ok, err = c.store.LatestCheckpoint(ctx)
	} else {
		checkpoint, ok, err = c.Checkpoint(ctx, req.TrainingNumber)
	}
	if err != nil {
		return UsageSummary{}, err
	}
	if !ok {
		return UsageSummary{}, errors.New("no checkpoint available")
	}

	genomes := make([][]int, 0, len(checkpoint.Population))
	for _, ind := range checkpoint.Population {
		genomes = append(genomes, ind.Genome)
	}
	return UsageSummary{
		TrainingNumber: checkpoint.TrainingNumber,
		Generation:     checkpoint.Generation,
		Stats:          genome.CountUsage(genomes),
	}, nil
}

// Reset drops all persisted trainings and telemetry.
func (c *Client) Reset(ctx context.Context) error {
	resetter, ok := c.store.(storage.Resetter)
	if !ok {
		return errors.New("store does not support reset")
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	return resetter.Reset(ctx)
}

func scapeFromName(name string) (scape.Scape, error) {
	switch scapeid.Normalize(name) {
	case "", "surrogate-walker":
		return scape.WalkerScape{}, nil
	default:
		return nil, fmt.Errorf("unsupported scape: %s", name)
	}
}
