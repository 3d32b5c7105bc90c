// Package utxo implements BTPC's UTXO set: apply/undo of block state
// transitions, balance and unspent-output queries, and the wallet-send
// reservation discipline of spec.md §4.5. Grounded on
// blockdag/utxoset.go's diff-apply/undo shape, generalized off DAG
// blue-score bookkeeping down to simple block height plus coinbase
// maturity.
package utxo

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"

	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/logger"
	"github.com/Shion-Kamoto/BTPC-sub008/storage"
)

// ErrNotFound is returned by Get when the outpoint has no UTXO (either
// never existed or already spent).
var ErrNotFound = errors.New("utxo: outpoint not found")

// Set is the UTXO set, backed by storage.CFUTXO and protected by a
// reader-preferring lock per spec.md §5's shared-resource policy: the
// UTXO set is read far more often (every mempool admission, every
// block validation) than it is written (once per applied block).
type Set struct {
	store *storage.Store

	mu         sync.RWMutex
	tipHeight  uint32
	reservedBy map[domain.OutPoint]*ReservationToken
}

// New wraps store with a UTXO set view whose tip height starts at
// tipHeight; no stored height is read.
func New(store *storage.Store, tipHeight uint32) *Set {
	return &Set{
		store:      store,
		tipHeight:  tipHeight,
		reservedBy: make(map[domain.OutPoint]*ReservationToken),
	}
}

// encodeOutPoint is the CF_UTXO key: the 64-byte txid followed by the
// 4-byte big-endian vout, big-endian so lexicographic key order groups
// a transaction's outputs together.
func encodeOutPoint(op domain.OutPoint) []byte {
	key := make([]byte, len(op.TxID)+4)
	copy(key, op.TxID[:])
	binary.BigEndian.PutUint32(key[len(op.TxID):], op.Vout)
	return key
}

// TipHeight returns the height of the chain tip the set is built
// against, used by UTXO.IsMature checks.
func (s *Set) TipHeight() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tipHeight
}

// SetTipHeight updates the height used for coinbase-maturity checks.
// The chain manager calls this after every apply/undo, under its own
// write lock (see spec.md §5's chain-manager -> storage -> UTXO lock
// order).
func (s *Set) SetTipHeight(height uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tipHeight = height
}

// Get returns the UTXO at op, if it exists and is unspent.
func (s *Set) Get(op domain.OutPoint) (*domain.UTXO, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(op)
}

func (s *Set) getLocked(op domain.OutPoint) (*domain.UTXO, bool) {
	raw, err := s.store.Get(storage.CFUTXO, encodeOutPoint(op))
	if err != nil {
		return nil, false
	}
	u, err := domain.DeserializeUTXO(bytes.NewReader(raw))
	if err != nil {
		return nil, false
	}
	return u, true
}

// Balance sums the amount of every unspent, non-reserved-irrelevant
// UTXO owned by address. Reservations do not affect balance: a
// reserved output is still owned by the address until it is actually
// spent.
func (s *Set) Balance(address []byte) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total uint64
	cur := s.store.NewCursor(storage.CFUTXO)
	defer cur.Release()
	for ok := cur.First(); ok; ok = cur.Next() {
		u, err := domain.DeserializeUTXO(bytes.NewReader(cur.Value()))
		if err != nil {
			continue
		}
		if bytesEqual(u.Address, address) {
			total += u.Amount
		}
	}
	return total
}

// UnspentFor returns every unspent UTXO (with its outpoint) owned by
// address, excluding outputs currently held by a reservation, including
// an expired one the sweep has not yet released -- the wallet send path
// must not select an output someone else already locked.
func (s *Set) UnspentFor(address []byte) []OutPointUTXO {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []OutPointUTXO
	cur := s.store.NewCursor(storage.CFUTXO)
	defer cur.Release()
	for ok := cur.First(); ok; ok = cur.Next() {
		u, err := domain.DeserializeUTXO(bytes.NewReader(cur.Value()))
		if err != nil {
			continue
		}
		if !bytesEqual(u.Address, address) {
			continue
		}
		op := decodeOutPoint(cur.Key())
		if _, locked := s.reservedBy[op]; locked {
			continue
		}
		out = append(out, OutPointUTXO{OutPoint: op, UTXO: u})
	}
	return out
}

// OutPointUTXO pairs a UTXO with the outpoint it lives at, the shape
// UnspentFor and the mempool template assembler need.
type OutPointUTXO struct {
	OutPoint domain.OutPoint
	UTXO     *domain.UTXO
}

func decodeOutPoint(key []byte) domain.OutPoint {
	var op domain.OutPoint
	copy(op.TxID[:], key[:len(op.TxID)])
	op.Vout = binary.BigEndian.Uint32(key[len(op.TxID):])
	return op
}

// ApplyBlock applies block's state transition at height: every
// non-coinbase input's referenced UTXO is deleted, and every output
// (including the coinbase's) becomes a new UTXO. The whole operation is
// one atomic storage batch, per spec.md §4.3/§4.5.
func (s *Set) ApplyBlock(block *domain.Block, height uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.store.NewBatch()
	for txIdx, tx := range block.Transactions {
		isCoinbase := txIdx == 0
		if !isCoinbase {
			for _, in := range tx.Inputs {
				batch.Delete(storage.CFUTXO, encodeOutPoint(in.PreviousOutpoint))
			}
		}
		txID := tx.TxID()
		for vout, out := range tx.Outputs {
			// The recipient's public key is unknown until they spend
			// this output (only its address -- a hash of that key --
			// is visible here), so PublicKey stays unset; ownership is
			// verified against Address when the output is later spent,
			// per domain.PublicKeyOwnsAddress.
			u := &domain.UTXO{
				Amount:      out.Amount,
				Address:     out.Address,
				BlockHeight: height,
				IsCoinbase:  isCoinbase,
			}
			op := domain.OutPoint{TxID: txID, Vout: uint32(vout)}
			batch.Put(storage.CFUTXO, encodeOutPoint(op), u.Bytes())
		}
	}
	if err := s.store.Apply(batch); err != nil {
		return errors.Wrap(err, "utxo: applying block")
	}
	s.tipHeight = height
	logger.UTXOLog.Debugf("applied block %s at height %d (%d transactions)", block.BlockHash(), height, len(block.Transactions))
	return nil
}

// UndoBlock reverses block's effect on the UTXO set: its created
// outputs are deleted and its spent outputs restored from the supplied
// undo set, per spec.md §4.5's reorg-undo lifecycle. restored maps each
// input outpoint the block spent back to the UTXO it consumed --
// callers obtain this from the chain manager's stored undo log
// (storage.UndoEntry), since the UTXO set itself no longer has the
// spent value once ApplyBlock has deleted it.
func (s *Set) UndoBlock(block *domain.Block, newTipHeight uint32, restored map[domain.OutPoint]*domain.UTXO) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.store.NewBatch()
	for _, tx := range block.Transactions {
		txID := tx.TxID()
		for vout := range tx.Outputs {
			op := domain.OutPoint{TxID: txID, Vout: uint32(vout)}
			batch.Delete(storage.CFUTXO, encodeOutPoint(op))
		}
	}
	for op, u := range restored {
		batch.Put(storage.CFUTXO, encodeOutPoint(op), u.Bytes())
	}
	if err := s.store.Apply(batch); err != nil {
		return errors.Wrap(err, "utxo: undoing block")
	}
	s.tipHeight = newTipHeight
	logger.UTXOLog.Debugf("undid block %s, tip now at height %d", block.BlockHash(), newTipHeight)
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
