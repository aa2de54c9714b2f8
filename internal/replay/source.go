package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"pairSwap/internal/model"
)

const maxLineSize = 1 << 20

// ReadOperations decodes a JSONL operation log. Blank lines are skipped and
// sequence numbers must be positive and strictly increasing.
func ReadOperations(r io.Reader) ([]model.Operation, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		ops  []model.Operation
		last uint64
		line int
	)
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var op model.Operation
		if err := json.Unmarshal(text, &op); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := op.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if op.Seq <= last {
			return nil, fmt.Errorf("line %d: seq %d must be greater than %d", line, op.Seq, last)
		}
		last = op.Seq
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan operations: %w", err)
	}
	return ops, nil
}

// ReadOperationsFile reads the operation log at path.
func ReadOperationsFile(path string) ([]model.Operation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open operations: %w", err)
	}
	defer f.Close()
	return ReadOperations(f)
}

// schedule splits ops into fund operations, which run first, and ordered
// groups of the rest. Two operations share a group when they touch the same
// unordered token pair or the same user token account, so groups never race
// on shared state. Groups keep the order of their first operation.
func schedule(ops []model.Operation) (funds []model.Operation, groups [][]model.Operation) {
	sets := newDisjointSet()
	for _, op := range ops {
		key := op.PairKey()
		if key == "" {
			continue
		}
		sets.add(key)
		if op.User == (common.Address{}) {
			continue
		}
		sets.union(key, accountKey(op.User, op.TokenA))
		sets.union(key, accountKey(op.User, op.TokenB))
	}

	index := make(map[string]int)
	for _, op := range ops {
		key := op.PairKey()
		if key == "" {
			funds = append(funds, op)
			continue
		}
		root := sets.find(key)
		i, ok := index[root]
		if !ok {
			i = len(groups)
			index[root] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], op)
	}
	return funds, groups
}

func accountKey(user, mint common.Address) string {
	return user.Hex() + "@" + mint.Hex()
}

func countPairs(ops []model.Operation) int {
	pairs := make(map[string]struct{})
	for _, op := range ops {
		if key := op.PairKey(); key != "" {
			pairs[key] = struct{}{}
		}
	}
	return len(pairs)
}

type disjointSet struct {
	parent map[string]string
}

func newDisjointSet() *disjointSet {
	return &disjointSet{parent: make(map[string]string)}
}

func (d *disjointSet) add(key string) {
	if _, ok := d.parent[key]; !ok {
		d.parent[key] = key
	}
}

func (d *disjointSet) find(key string) string {
	d.add(key)
	root := key
	for d.parent[root] != root {
		root = d.parent[root]
	}
	for key != root {
		next := d.parent[key]
		d.parent[key] = root
		key = next
	}
	return root
}

func (d *disjointSet) union(a, b string) {
	ra, rb := d.find(a), d.find(b)
	if ra != rb {
		d.parent[rb] = ra
	}
}
