package storage

import (
	"context"
	"sort"
	"sync"

	"choreia/internal/model"
)

// MemoryStore keeps all state in process. It backs tests and throwaway
// runs.
type MemoryStore struct {
	mu          sync.RWMutex
	checkpoints map[int]model.Checkpoint
	telemetry   map[int][]model.GenerationRecord
	nextNumber  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		checkpoints: make(map[int]model.Checkpoint),
		telemetry:   make(map[int][]model.GenerationRecord),
	}
}

// Init is idempotent: state written before a repeated Init survives it.
func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkpoints == nil {
		s.checkpoints = make(map[int]model.Checkpoint)
	}
	if s.telemetry == nil {
		s.telemetry = make(map[int][]model.GenerationRecord)
	}
	return nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkpoints = make(map[int]model.Checkpoint)
	s.telemetry = make(map[int][]model.GenerationRecord)
	s.nextNumber = 0
	return nil
}

func (s *MemoryStore) SaveCheckpoint(_ context.Context, checkpoint model.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkpoints[checkpoint.TrainingNumber] = checkpoint
	if checkpoint.TrainingNumber > s.nextNumber {
		s.nextNumber = checkpoint.TrainingNumber
	}
	return nil
}

func (s *MemoryStore) GetCheckpoint(_ context.Context, trainingNumber int) (model.Checkpoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checkpoint, ok := s.checkpoints[trainingNumber]
	return checkpoint, ok, nil
}

func (s *MemoryStore) LatestCheckpoint(_ context.Context) (model.Checkpoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := -1
	for number := range s.checkpoints {
		if number > latest {
			latest = number
		}
	}
	if latest < 0 {
		return model.Checkpoint{}, false, nil
	}
	return s.checkpoints[latest], true, nil
}

func (s *MemoryStore) AppendTelemetry(_ context.Context, record model.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.telemetry[record.TrainingNumber] = append(s.telemetry[record.TrainingNumber], record)
	if record.TrainingNumber > s.nextNumber {
		s.nextNumber = record.TrainingNumber
	}
	return nil
}

func (s *MemoryStore) GetTelemetry(_ context.Context, trainingNumber int) ([]model.GenerationRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.telemetry[trainingNumber]
	if !ok {
		return nil, false, nil
	}
	return append([]model.GenerationRecord(nil), records...), true, nil
}

func (s *MemoryStore) TrainingNumbers(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int]struct{}, len(s.checkpoints)+len(s.telemetry))
	for number := range s.checkpoints {
		seen[number] = struct{}{}
	}
	for number := range s.telemetry {
		seen[number] = struct{}{}
	}
	numbers := make([]int, 0, len(seen))
	for number := range seen {
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)
	return numbers, nil
}

// NextTrainingNumber allocates a monotonic run identifier: one past the
// highest number ever observed by this store.
func (s *MemoryStore) NextTrainingNumber(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextNumber++
	return s.nextNumber, nil
}
