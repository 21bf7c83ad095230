// Package store persists pipeline run artifacts for audit and debugging.
// Each run is one directory holding the full PipelineState and the output
// envelope as JSON documents, each written with a single atomic rename.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"storyboard-pipeline/types"
)

// Store receives run artifacts at completion (or at failure).
type Store interface {
	SaveState(state *types.PipelineState) error
	SaveEnvelope(scriptID string, envelope *types.OutputEnvelope) error
}

// FileStore writes run artifacts under a base directory, one subdirectory
// per script id.
type FileStore struct {
	baseDir string
}

// NewFileStore creates the base directory if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// SaveState writes the full state document for the run.
func (fs *FileStore) SaveState(state *types.PipelineState) error {
	return fs.writeJSON(state.ScriptID, "pipeline_state.json", state)
}

// SaveEnvelope writes the terminal output envelope for the run.
func (fs *FileStore) SaveEnvelope(scriptID string, envelope *types.OutputEnvelope) error {
	return fs.writeJSON(scriptID, "envelope.json", envelope)
}

// LoadState reads a persisted state back. The round-trip reproduces the
// state field for field, with history and metrics order preserved.
func (fs *FileStore) LoadState(scriptID string) (*types.PipelineState, error) {
	data, err := os.ReadFile(filepath.Join(fs.baseDir, scriptID, "pipeline_state.json"))
	if err != nil {
		return nil, err
	}
	var state types.PipelineState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	return &state, nil
}

// writeJSON marshals v and writes it via temp file + rename so readers never
// observe a partial document.
func (fs *FileStore) writeJSON(scriptID, name string, v interface{}) error {
	dir := filepath.Join(fs.baseDir, scriptID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(dir, name+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}
