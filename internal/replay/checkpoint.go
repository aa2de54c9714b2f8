package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Checkpoint records replay progress. Every operation with a sequence number
// up to LastAppliedSeq has been applied or rejected; AppliedAbove lists the
// ones beyond it that finished while earlier operations were still pending.
type Checkpoint struct {
	LastAppliedSeq uint64   `json:"last_applied_seq"`
	AppliedAbove   []uint64 `json:"applied_above,omitempty"`
	UpdatedAt      string   `json:"updated_at"`
}

// finished reports whether seq was completed by the run that wrote cp.
func (cp Checkpoint) finished(seq uint64) bool {
	if seq <= cp.LastAppliedSeq {
		return true
	}
	for _, s := range cp.AppliedAbove {
		if s == seq {
			return true
		}
	}
	return false
}

// CheckpointStore persists checkpoints as a JSON file. A store without a
// path is disabled: Load finds nothing and Save is a no-op.
type CheckpointStore struct {
	path string
	mu   sync.Mutex
}

func NewCheckpointStore(path string, enabled bool) *CheckpointStore {
	if !enabled {
		path = ""
	}
	return &CheckpointStore{path: path}
}

// Load returns the stored checkpoint and whether one exists.
func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	if c.path == "" {
		return Checkpoint{}, false, nil
	}
	data, err := os.ReadFile(c.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Checkpoint{}, false, nil
	case err != nil:
		return Checkpoint{}, false, fmt.Errorf("read checkpoint %s: %w", c.path, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint %s: %w", c.path, err)
	}
	return cp, true, nil
}

// Save replaces the stored checkpoint. The file is written beside the target
// and renamed over it, so readers see either the old or the new checkpoint.
func (c *CheckpointStore) Save(cp Checkpoint) error {
	if c.path == "" {
		return nil
	}
	cp.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create checkpoint tmp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}
