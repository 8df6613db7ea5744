package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/futig/mcq-reasoner/internal/entity"
)

// CheckpointStore persists the result collection of a run
type CheckpointStore interface {
	Load(ctx context.Context, key entity.RunKey) ([]entity.InferenceResult, error)
	Save(ctx context.Context, key entity.RunKey, results []entity.InferenceResult) error
}

var _ CheckpointStore = &CheckpointFile{}

// CheckpointFile keeps one indented JSON document per run key in dir
type CheckpointFile struct {
	dir string
}

func NewCheckpointFile(dir string) *CheckpointFile {
	return &CheckpointFile{dir: dir}
}

// Path returns the results file for key
func (r *CheckpointFile) Path(key entity.RunKey) string {
	return filepath.Join(r.dir, "results_"+key.String()+".json")
}

// Load returns the saved results for key, or nil when nothing was saved yet.
// An unreadable document yields ErrCheckpointCorrupt.
func (r *CheckpointFile) Load(_ context.Context, key entity.RunKey) ([]entity.InferenceResult, error) {
	results, err := ReadResults(r.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return results, err
}

// Save replaces the document for key. The write goes to a temp file that is
// renamed over the old one, so readers never observe a partial document.
func (r *CheckpointFile) Save(_ context.Context, key entity.RunKey, results []entity.InferenceResult) error {
	if results == nil {
		results = []entity.InferenceResult{}
	}
	return writeJSONAtomic(r.Path(key), results)
}

// ReadResults decodes a results document
func ReadResults(path string) ([]entity.InferenceResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results %s: %w", path, err)
	}

	var results []entity.InferenceResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrCheckpointCorrupt, path, err)
	}
	return results, nil
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
