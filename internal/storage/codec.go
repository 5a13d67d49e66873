package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"choreia/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

// ErrVersionMismatch marks a checkpoint written by an incompatible schema.
// Callers treat it as "no compatible checkpoint", not as a fatal error.
var ErrVersionMismatch = errors.New("checkpoint version mismatch")

// ErrTrainingMismatch marks a checkpoint that belongs to a different run
// than the caller intended to resume.
var ErrTrainingMismatch = errors.New("checkpoint training number mismatch")

// StampVersion fills in the current schema/codec versions.
func StampVersion(checkpoint *model.Checkpoint) {
	checkpoint.SchemaVersion = CurrentSchemaVersion
	checkpoint.CodecVersion = CurrentCodecVersion
}

func EncodeCheckpoint(checkpoint model.Checkpoint) ([]byte, error) {
	return json.Marshal(checkpoint)
}

// DecodeCheckpoint parses a stored checkpoint and dispatches on its schema
// version. Unknown versions are reported as ErrVersionMismatch; adding a
// CheckpointV2 means adding an explicit migration branch here, never
// shape-sniffing the payload.
func DecodeCheckpoint(data []byte) (model.Checkpoint, error) {
	var versioned model.VersionedRecord
	if err := json.Unmarshal(data, &versioned); err != nil {
		return model.Checkpoint{}, fmt.Errorf("parse checkpoint header: %w", err)
	}

	switch versioned.SchemaVersion {
	case CurrentSchemaVersion:
		return decodeCheckpointV1(data)
	default:
		return model.Checkpoint{}, fmt.Errorf("schema version %d: %w", versioned.SchemaVersion, ErrVersionMismatch)
	}
}

func decodeCheckpointV1(data []byte) (model.Checkpoint, error) {
	var checkpoint model.Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return model.Checkpoint{}, err
	}
	if checkpoint.CodecVersion != CurrentCodecVersion {
		return model.Checkpoint{}, fmt.Errorf("codec version %d: %w", checkpoint.CodecVersion, ErrVersionMismatch)
	}
	return checkpoint, nil
}

// ValidateTraining confirms a loaded checkpoint belongs to the intended
// run.
func ValidateTraining(checkpoint model.Checkpoint, trainingNumber int) error {
	if checkpoint.TrainingNumber != trainingNumber {
		return fmt.Errorf("stored=%d requested=%d: %w", checkpoint.TrainingNumber, trainingNumber, ErrTrainingMismatch)
	}
	return nil
}

func EncodeTelemetry(record model.GenerationRecord) ([]byte, error) {
	return json.Marshal(record)
}

func DecodeTelemetry(data []byte) (model.GenerationRecord, error) {
	var record model.GenerationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.GenerationRecord{}, err
	}
	return record, nil
}
