package outlier

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
)

var (
	ErrCheckpointNotFound = errors.New("checkpoint file not found")
	ErrCheckpointCorrupt  = errors.New("checkpoint file corrupt")
)

// State is a network state dictionary: flattened parameter tensors
// keyed by parameter name. Shape checking against the constructed
// network is the model's job, at LoadState time.
type State map[string][]float64

// ReadCheckpoint loads a State written by WriteCheckpoint.
func ReadCheckpoint(path string) (State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCheckpointNotFound, path)
	}
	defer f.Close()
	var st State
	if err := gob.NewDecoder(f).Decode(&st); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCheckpointCorrupt, path, err)
	}
	return st, nil
}

// WriteCheckpoint stores a State on disk.
func WriteCheckpoint(path string, st State) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(st); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
