package mempool

import (
	"sort"

	"github.com/Shion-Kamoto/BTPC-sub008/domain"
)

// AssembleTemplate builds a candidate block body for height: the
// pooled transactions selected highest fee-rate first (FIFO tie-break
// on admission time, per spec.md §3's MempoolEntry ordering), skipping
// any transaction that would double-spend an outpoint already claimed
// earlier in this same template, and skipping any transaction that
// would push the total size past maxSize while still trying the
// smaller ones after it. The caller is responsible for prepending the coinbase and
// computing the merkle root; AssembleTemplate returns the
// non-coinbase transaction list plus the total fees collected, which
// the caller uses to bound the coinbase's reward via
// consensus.CheckCoinbase.
func (p *Pool) AssembleTemplate(maxSize int64) (txs []*domain.Transaction, totalFees uint64) {
	p.mu.RLock()
	entries := make([]*Entry, 0, len(p.byTxID))
	for _, e := range p.byTxID {
		entries = append(entries, e)
	}
	p.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].FeeRate != entries[j].FeeRate {
			return entries[i].FeeRate > entries[j].FeeRate
		}
		return entries[i].AddedAt.Before(entries[j].AddedAt)
	})

	claimed := make(map[domain.OutPoint]struct{})
	var size int64

	for _, e := range entries {
		if size+e.Size > maxSize {
			continue
		}

		conflict := false
		for _, in := range e.Tx.Inputs {
			if _, ok := claimed[in.PreviousOutpoint]; ok {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}

		for _, in := range e.Tx.Inputs {
			claimed[in.PreviousOutpoint] = struct{}{}
		}
		txs = append(txs, e.Tx)
		totalFees += e.Fee
		size += e.Size
	}

	return txs, totalFees
}
