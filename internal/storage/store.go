package storage

import (
	"context"

	"choreia/internal/model"
)

// Store persists run checkpoints and the per-generation telemetry feed.
type Store interface {
	Init(ctx context.Context) error
	SaveCheckpoint(ctx context.Context, checkpoint model.Checkpoint) error
	GetCheckpoint(ctx context.Context, trainingNumber int) (model.Checkpoint, bool, error)
	LatestCheckpoint(ctx context.Context) (model.Checkpoint, bool, error)
	AppendTelemetry(ctx context.Context, record model.GenerationRecord) error
	GetTelemetry(ctx context.Context, trainingNumber int) ([]model.GenerationRecord, bool, error)
	TrainingNumbers(ctx context.Context) ([]int, error)
	NextTrainingNumber(ctx context.Context) (int, error)
}

// Resetter is implemented by stores that can drop all persisted state.
type Resetter interface {
	Reset(ctx context.Context) error
}

// CloseIfSupported closes stores that hold external resources.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
