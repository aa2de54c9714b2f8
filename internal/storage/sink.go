package storage

import (
	"sync"

	"pairSwap/internal/model"
)

// Recorder keeps event records in memory.
type Recorder struct {
	mu      sync.Mutex
	records []model.EventRecord
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) PutEventBatch(records []model.EventRecord) error {
	r.mu.Lock()
	r.records = append(r.records, records...)
	r.mu.Unlock()
	return nil
}

// Records returns a copy of everything recorded so far.
func (r *Recorder) Records() []model.EventRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventRecord, len(r.records))
	copy(out, r.records)
	return out
}
