package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"pairSwap/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events", "out.jsonl")
	sink := NewJsonlStorage(path)

	if err := sink.PutEventBatch([]model.EventRecord{{Seq: 1, EventName: model.EventSwapExecuted, Data: json.RawMessage(`{}`)}}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := sink.PutEventBatch([]model.EventRecord{{Seq: 2, EventName: model.EventSwapExecuted, Data: json.RawMessage(`{}`)}}); err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if err := sink.PutEventBatch(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var seqs []uint64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var record model.EventRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		seqs = append(seqs, record.Seq)
	}
	if len(seqs) != 2 || seqs[0] != 1 || seqs[1] != 2 {
		t.Fatalf("unexpected seqs: %v", seqs)
	}
}

func TestLastEventSeq(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	if seq, err := LastEventSeq(path); err != nil || seq != 0 {
		t.Fatalf("missing log: seq=%d err=%v", seq, err)
	}

	sink := NewJsonlStorage(path)
	defer sink.Close()
	if err := sink.PutEventBatch([]model.EventRecord{{Seq: 3}, {Seq: 9}, {Seq: 4}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if seq, err := LastEventSeq(path); err != nil || seq != 9 {
		t.Fatalf("expected 9, got seq=%d err=%v", seq, err)
	}

	if err := os.WriteFile(path, []byte("not json\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LastEventSeq(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
