// Package mempool implements BTPC's transaction memory pool: admission
// pipeline, fee-rate priority ordering, DoS guards, expiry/eviction and
// block-template assembly, per spec.md §4.6. Grounded on
// domain/miningmanager/mempool's transactions_pool.go (fee-ordered
// pool, parent/child outpoint bookkeeping) and orphan_pool.go
// (expire-scan idiom), adapted from kaspad's DAA-score-driven expiry to
// BTPC's wall-clock 72-hour rule.
package mempool

import (
	"container/heap"
	"encoding/hex"
	"sync"
	"time"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/consensus"
	"github.com/Shion-Kamoto/BTPC-sub008/crypto"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/eventbus"
	"github.com/Shion-Kamoto/BTPC-sub008/logger"
	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
)

// Config bundles the tunable admission/eviction policy knobs, per
// spec.md §4.6.
type Config struct {
	// MinRelayFeeRate is the minimum fee per serialized byte (base
	// units/byte) a transaction must pay to be admitted.
	MinRelayFeeRate uint64
	// MaxPoolBytes is the total serialized-size cap before lowest
	// fee-rate eviction kicks in. Default 50 MiB.
	MaxPoolBytes int64
	// MaxAge is how long a transaction may sit in the pool before
	// unconditional eviction. Default 72h.
	MaxAge time.Duration
	// MaxPerAddressPerWindow bounds admissions from a single spending
	// identity within AddressWindow, the DoS ceiling of spec.md §4.6.
	MaxPerAddressPerWindow int
	AddressWindow          time.Duration
}

// DefaultConfig returns spec.md §4.6's stated defaults: 50 MiB pool
// cap, 72-hour unconditional expiry, 1000 tx / 10 min per-address DoS
// ceiling.
func DefaultConfig() Config {
	return Config{
		MinRelayFeeRate:        1,
		MaxPoolBytes:           50 * 1024 * 1024,
		MaxAge:                 72 * time.Hour,
		MaxPerAddressPerWindow: 1000,
		AddressWindow:          10 * time.Minute,
	}
}

// UTXOView is the read-only chain-state view the admission pipeline
// checks inputs against; utxo.Set satisfies this directly.
type UTXOView interface {
	Get(op domain.OutPoint) (*domain.UTXO, bool)
	TipHeight() uint32
}

// Entry is spec.md §3's MempoolEntry: a transaction plus its admission
// bookkeeping.
type Entry struct {
	Tx          *domain.Transaction
	AddedAt     time.Time
	Size        int64
	Fee         uint64
	FeeRate     float64 // fee per byte
	heapIndex   int
}

// Pool is BTPC's mempool: an admission pipeline in front of a fee-rate
// priority queue, protected by a single mutex (spec.md §5: "write
// sections are brief"). Admissions are linearizable with respect to
// block application: callers must hold the chain manager's read lock
// (or equivalent "no block commit in progress" guarantee) while calling
// Admit, per the lock order chain-manager -> storage -> UTXO -> mempool.
type Pool struct {
	cfg    Config
	params *netparams.Params
	view   UTXOView
	bus    *eventbus.Bus

	mu             sync.RWMutex
	byTxID         map[chainhash.Hash]*Entry
	spentBy        map[domain.OutPoint]chainhash.Hash
	feeRateIndex   feeRateHeap
	totalBytes     int64
	addressWindows map[string][]time.Time
}

// New creates an empty mempool bound to view for UTXO lookups and
// params for fork-id/network enforcement.
func New(cfg Config, params *netparams.Params, view UTXOView, bus *eventbus.Bus) *Pool {
	return &Pool{
		cfg:            cfg,
		params:         params,
		view:           view,
		bus:            bus,
		byTxID:         make(map[chainhash.Hash]*Entry),
		spentBy:        make(map[domain.OutPoint]chainhash.Hash),
		addressWindows: make(map[string][]time.Time),
	}
}

// MaxTxSize is the largest serialized transaction the mempool admits,
// per spec.md §4.8's tx message cap.
const MaxTxSize = 100 * 1024

// senderIdentity derives the DoS-ceiling bucket key for tx: the hex of
// its first input's public key. A transaction with no inputs (which
// cannot happen for a non-coinbase transaction per consensus sanity
// checks) falls back to its txid so it still buckets somewhere.
func senderIdentity(tx *domain.Transaction) string {
	if len(tx.Inputs) > 0 && len(tx.Inputs[0].PublicKey) > 0 {
		return hex.EncodeToString(tx.Inputs[0].PublicKey)
	}
	txid := tx.TxID()
	return hex.EncodeToString(txid[:])
}

// Admit runs the ordered admission pipeline of spec.md §4.6 and, on
// success, inserts tx into the pool and emits
// mempool:transaction_added.
func (p *Pool) Admit(tx *domain.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	txID := tx.TxID()
	if _, exists := p.byTxID[txID]; exists {
		return ruleError(ErrDuplicateTx, "transaction is already in the mempool")
	}

	size := int64(len(tx.Bytes()))
	if size > MaxTxSize {
		return ruleError(ErrTxTooBig, "transaction exceeds the maximum relay size")
	}
	if tx.ForkID != p.params.ForkID {
		return ruleError(ErrForkIDMismatch, "transaction fork id does not match network")
	}
	if err := consensus.CheckTransactionSanity(tx, p.params); err != nil {
		return err
	}

	for _, in := range tx.Inputs {
		if other, claimed := p.spentBy[in.PreviousOutpoint]; claimed && other != txID {
			return ruleError(ErrAlreadyClaimed, "input already spent by another mempool transaction")
		}
	}

	fee, err := p.checkInputs(tx)
	if err != nil {
		return err
	}

	feeRate := float64(fee) / float64(size)
	if fee < p.cfg.MinRelayFeeRate*uint64(size) {
		return ruleError(ErrFeeTooLow, "transaction fee rate is below the minimum relay fee")
	}

	if !p.verifySignatures(tx) {
		return ruleError(ErrBadSignature, "one or more transaction input signatures failed verification")
	}

	identity := senderIdentity(tx)
	now := time.Now()
	if !p.admitDoSCheck(identity, now) {
		return ruleError(ErrDoSLimitExceeded, "sender exceeded the admission rate ceiling")
	}

	entry := &Entry{Tx: tx, AddedAt: now, Size: size, Fee: fee, FeeRate: feeRate}
	p.byTxID[txID] = entry
	for _, in := range tx.Inputs {
		p.spentBy[in.PreviousOutpoint] = txID
	}
	heap.Push(&p.feeRateIndex, entry)
	p.totalBytes += size

	logger.MempoolLog.Debugf("admitted transaction %s (fee-rate %.2f, size %d)", txID, feeRate, size)
	if p.bus != nil {
		p.bus.Publish(eventbus.EventMempoolTransactionAdded, &eventbus.MempoolEvent{
			TxID: txID.String(), EntryCount: len(p.byTxID), TotalBytes: p.totalBytes,
		})
	}

	p.evictOverCapLocked()
	return nil
}

// Validate runs the same checks Admit would, without inserting tx or
// touching any admission-rate bookkeeping, for validatetransaction.
func (p *Pool) Validate(tx *domain.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	txID := tx.TxID()
	if _, exists := p.byTxID[txID]; exists {
		return ruleError(ErrDuplicateTx, "transaction is already in the mempool")
	}

	size := int64(len(tx.Bytes()))
	if size > MaxTxSize {
		return ruleError(ErrTxTooBig, "transaction exceeds the maximum relay size")
	}
	if tx.ForkID != p.params.ForkID {
		return ruleError(ErrForkIDMismatch, "transaction fork id does not match network")
	}
	if err := consensus.CheckTransactionSanity(tx, p.params); err != nil {
		return err
	}

	for _, in := range tx.Inputs {
		if other, claimed := p.spentBy[in.PreviousOutpoint]; claimed && other != txID {
			return ruleError(ErrAlreadyClaimed, "input already spent by another mempool transaction")
		}
	}

	fee, err := p.checkInputs(tx)
	if err != nil {
		return err
	}

	if fee < p.cfg.MinRelayFeeRate*uint64(size) {
		return ruleError(ErrFeeTooLow, "transaction fee rate is below the minimum relay fee")
	}

	if !p.verifySignatures(tx) {
		return ruleError(ErrBadSignature, "one or more transaction input signatures failed verification")
	}

	return nil
}

// checkInputs validates tx's inputs against the pool's UTXO view:
// existence, maturity, and that each input's public key owns the
// address of the output it spends -- otherwise a spender could name
// someone else's outpoint, supply a freshly generated keypair, and
// self-sign a transfer of funds they never controlled.
func (p *Pool) checkInputs(tx *domain.Transaction) (uint64, error) {
	var totalIn, totalOut uint64
	for _, in := range tx.Inputs {
		utxo, ok := p.view.Get(in.PreviousOutpoint)
		if !ok {
			return 0, ruleError(ErrMissingTxOut, "transaction spends a nonexistent or already-spent output")
		}
		if !domain.PublicKeyOwnsAddress(in.PublicKey, utxo.Address) {
			return 0, ruleError(ErrUnownedSpend, "input public key does not own the output's address")
		}
		if !utxo.IsMature(p.view.TipHeight()) {
			return 0, ruleError(ErrImmatureSpend, "transaction spends an immature coinbase output")
		}
		totalIn += utxo.Amount
	}
	for _, out := range tx.Outputs {
		totalOut += out.Amount
	}
	if totalOut > totalIn {
		return 0, ruleError(ErrFeeTooLow, "transaction spends more than its inputs provide")
	}
	return totalIn - totalOut, nil
}

func (p *Pool) verifySignatures(tx *domain.Transaction) bool {
	items := make([]crypto.VerificationItem, len(tx.Inputs))
	for i, in := range tx.Inputs {
		preimage, err := tx.SigningPreimage(i)
		if err != nil {
			return false
		}
		digest := chainhash.Sum(preimage)
		items[i] = crypto.VerificationItem{PublicKey: in.PublicKey, Message: digest[:], Signature: in.Signature}
	}
	return crypto.BatchVerify(items)
}

func (p *Pool) admitDoSCheck(identity string, now time.Time) bool {
	window := p.addressWindows[identity]
	cutoff := now.Add(-p.cfg.AddressWindow)
	kept := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= p.cfg.MaxPerAddressPerWindow {
		p.addressWindows[identity] = kept
		return false
	}
	p.addressWindows[identity] = append(kept, now)
	return true
}

// Remove deletes txID from the pool, e.g. because it was mined into a
// block or explicitly cancelled. Returns false if txID was not present.
func (p *Pool) Remove(txID chainhash.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removeLocked(txID)
}

func (p *Pool) removeLocked(txID chainhash.Hash) bool {
	entry, ok := p.byTxID[txID]
	if !ok {
		return false
	}
	delete(p.byTxID, txID)
	for _, in := range entry.Tx.Inputs {
		if p.spentBy[in.PreviousOutpoint] == txID {
			delete(p.spentBy, in.PreviousOutpoint)
		}
	}
	heap.Remove(&p.feeRateIndex, entry.heapIndex)
	p.totalBytes -= entry.Size

	if p.bus != nil {
		p.bus.Publish(eventbus.EventMempoolTransactionRemoved, &eventbus.MempoolEvent{
			TxID: txID.String(), EntryCount: len(p.byTxID), TotalBytes: p.totalBytes,
		})
	}
	return true
}

// RemoveMined drops every transaction block confirms from the pool,
// called by the chain manager after a block is applied.
func (p *Pool) RemoveMined(block *domain.Block) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tx := range block.Transactions {
		p.removeLocked(tx.TxID())
	}
}

// Get returns the pooled entry for txID, if present.
func (p *Pool) Get(txID chainhash.Hash) (*Entry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.byTxID[txID]
	return e, ok
}

// Count returns the number of pooled transactions.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byTxID)
}

// TotalBytes returns the pool's total serialized size.
func (p *Pool) TotalBytes() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.totalBytes
}

// MinFeeRate returns the lowest fee-rate currently held in the pool, or
// 0 if the pool is empty -- used by getmempoolinfo.
func (p *Pool) MinFeeRate() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.feeRateIndex) == 0 {
		return 0
	}
	min := p.feeRateIndex[0].FeeRate
	for _, e := range p.feeRateIndex {
		if e.FeeRate < min {
			min = e.FeeRate
		}
	}
	return min
}

// ExpireOld unconditionally evicts every transaction older than
// cfg.MaxAge, per spec.md §4.6.
func (p *Pool) ExpireOld() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	cutoff := time.Now().Add(-p.cfg.MaxAge)
	var expired []chainhash.Hash
	for id, e := range p.byTxID {
		if e.AddedAt.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		p.removeLocked(id)
	}
	return len(expired)
}

// evictOverCapLocked evicts lowest fee-rate entries (oldest first on a
// tie) until the pool is at or below cfg.MaxPoolBytes, per spec.md
// §4.6. Must be called with p.mu held.
func (p *Pool) evictOverCapLocked() {
	for p.totalBytes > p.cfg.MaxPoolBytes && len(p.feeRateIndex) > 0 {
		victim := p.feeRateIndex[0]
		p.removeLocked(victim.Tx.TxID())
	}
}
