package mining

import (
	"math/big"
	"sync/atomic"
	"time"

	"github.com/Shion-Kamoto/BTPC-sub008/consensus"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
)

// templateBox holds the current search target behind an atomic.Value
// so every worker sees a newly published Template without the
// controller fanning it out over per-worker channels -- a template
// change is a broadcast, not a one-shot message, and only the latest
// one ever matters.
type templateBox struct {
	v atomic.Value // holds *Template
}

func (b *templateBox) set(t *Template) { b.v.Store(t) }

func (b *templateBox) get() *Template {
	v := b.v.Load()
	if v == nil {
		return nil
	}
	return v.(*Template)
}

// Solver searches a fixed nonce range of header for a value producing
// hash2(header) <= target, per spec.md §4.9's CPU search contract. The
// search must return promptly (within cancelCheckInterval) once cancel
// is closed, the cooperative-cancellation bound of spec.md §4.9 (5s).
// GPU-backed implementations satisfy the same interface so the
// controller's dispatch loop doesn't care which backend ran.
type Solver interface {
	// Search scans header starting at nonceStart to nonceStart+nonceCount-1,
	// returning the first nonce whose header hash satisfies target, or
	// ok=false if the range was exhausted (or cancel fired) without a hit.
	Search(header domain.BlockHeader, target *big.Int, nonceStart, nonceCount uint64, cancel <-chan struct{}) (nonce uint64, ok bool)
}

// cancelCheckInterval bounds how often a CPU solver checks for
// cancellation mid-range, keeping shutdown/retemplate latency well
// under spec.md §4.9's 5-second cooperative-cancellation ceiling.
const cancelCheckInterval = 1 << 16

// CPUSolver is the default, dependency-free nonce search: a tight loop
// over the header's Nonce field, re-hashing and comparing against
// target. Grounded on mining/mining.go's solveBlock, generalized from
// btcd's sha256d-then-compare loop to BTPC's chainhash double-SHA-512.
type CPUSolver struct {
	// HashesDone is incremented for every nonce tried, read by the
	// controller's hashrate aggregator. Safe for concurrent use.
	HashesDone uint64
}

func (s *CPUSolver) Search(header domain.BlockHeader, target *big.Int, nonceStart, nonceCount uint64, cancel <-chan struct{}) (uint64, bool) {
	h := header
	for i := uint64(0); i < nonceCount; i++ {
		if i%cancelCheckInterval == 0 {
			select {
			case <-cancel:
				return 0, false
			default:
			}
		}
		nonce := nonceStart + i
		h.Nonce = nonce
		hash := h.BlockHash()
		atomic.AddUint64(&s.HashesDone, 1)
		if consensus.HashToBig(hash[:]).Cmp(target) <= 0 {
			return nonce, true
		}
	}
	return 0, false
}

// nonceRangeSize is how many nonces a single Search call covers before
// the controller checks the template for staleness and re-dispatches,
// bounding how long a worker can spend on a template that's already
// gone stale.
const nonceRangeSize = 1 << 22

// workerLoop repeatedly searches nonce ranges of whatever template
// templates currently holds, noticing a swap by comparing pointers
// between rounds, until stop fires. Each worker starts its slice of
// the nonce space at a distinct offset so concurrent workers don't
// retread each other's ranges within one round.
func workerLoop(solver Solver, workerIndex, workerCount int, templates *templateBox, found chan<- foundBlock, stop <-chan struct{}) {
	var current *Template
	var nonceCursor uint64

	for {
		select {
		case <-stop:
			return
		default:
		}

		tpl := templates.get()
		if tpl == nil {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if tpl != current {
			current = tpl
			nonceCursor = uint64(workerIndex) * (nonceRangeSize / uint64(maxInt(workerCount, 1)))
		}

		target := consensus.CompactToBig(tpl.Target)
		nonce, ok := solver.Search(tpl.Block.Header, target, nonceCursor, nonceRangeSize, stop)
		nonceCursor += nonceRangeSize
		if ok {
			select {
			case found <- foundBlock{template: tpl, nonce: nonce}:
			case <-stop:
				return
			}
			current = nil
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type foundBlock struct {
	template *Template
	nonce    uint64
}

// hashrateWindow is the rolling window hashrate is averaged over, per
// spec.md §4.9.
const hashrateWindow = 5 * time.Second
