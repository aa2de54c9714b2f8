package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"pairSwap/internal/model"
)

// JsonlStorage appends event records to a JSONL file. The file is opened on
// the first batch and stays open until Close.
type JsonlStorage struct {
	path string

	mu   sync.Mutex
	file *os.File
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutEventBatch appends records as JSON lines. A batch is written in one call
// so concurrent batches never interleave.
func (s *JsonlStorage) PutEventBatch(records []model.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	var buf []byte
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", record.Seq, err)
		}
		buf = append(append(buf, line...), '\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return fmt.Errorf("create event dir: %w", err)
		}
		file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		s.file = file
	}
	if _, err := s.file.Write(buf); err != nil {
		return fmt.Errorf("append events: %w", err)
	}
	return nil
}

// Close releases the underlying file.
func (s *JsonlStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// LastEventSeq returns the highest sequence number recorded in the event log
// at path, or zero when the log does not exist yet.
func LastEventSeq(path string) (uint64, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open event log: %w", err)
	}
	defer file.Close()

	var last uint64
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var head struct {
			Seq uint64 `json:"seq"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &head); err != nil {
			return 0, fmt.Errorf("event log line %d: %w", line, err)
		}
		last = max(last, head.Seq)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan event log: %w", err)
	}
	return last, nil
}
