package replay

import (
	"sort"
	"sync"
)

// progress tracks which operations have finished and derives the checkpoint
// watermark: the highest sequence number below which nothing is pending.
type progress struct {
	mu        sync.Mutex
	order     []uint64
	next      int
	done      map[uint64]struct{}
	watermark uint64

	applied  int
	rejected int
}

func newProgress(watermark uint64, seqs []uint64) *progress {
	order := append([]uint64(nil), seqs...)
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return &progress{order: order, done: make(map[uint64]struct{}), watermark: watermark}
}

func (p *progress) markApplied(seq uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applied++
	p.finish(seq)
}

func (p *progress) markRejected(seq uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejected++
	p.finish(seq)
}

// markSkipped records an operation already applied by an earlier run.
func (p *progress) markSkipped(seq uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finish(seq)
}

func (p *progress) finish(seq uint64) {
	p.done[seq] = struct{}{}
	for p.next < len(p.order) {
		head := p.order[p.next]
		if _, ok := p.done[head]; !ok {
			break
		}
		delete(p.done, head)
		p.watermark = head
		p.next++
	}
}

func (p *progress) checkpoint() Checkpoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := Checkpoint{LastAppliedSeq: p.watermark}
	for seq := range p.done {
		cp.AppliedAbove = append(cp.AppliedAbove, seq)
	}
	sort.Slice(cp.AppliedAbove, func(i, j int) bool { return cp.AppliedAbove[i] < cp.AppliedAbove[j] })
	return cp
}

func (p *progress) counts() (applied, rejected int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.applied, p.rejected
}
