package storage

import "github.com/syndtr/goleveldb/leveldb"

// Batch accumulates writes across column families for atomic
// application. goleveldb's own write-ahead log gives the batch crash
// consistency: either every operation lands or none does, matching
// spec.md §4.3's WAL-backed durability requirement without BTPC having
// to implement its own WAL.
type Batch struct {
	b *leveldb.Batch
}

// NewBatch starts an empty batch.
func (s *Store) NewBatch() *Batch {
	return &Batch{b: new(leveldb.Batch)}
}

func (batch *Batch) Put(cf ColumnFamily, key, value []byte) {
	batch.b.Put(namespacedKey(cf, key), value)
}

func (batch *Batch) Delete(cf ColumnFamily, key []byte) {
	batch.b.Delete(namespacedKey(cf, key))
}

// Apply commits the batch atomically.
func (s *Store) Apply(batch *Batch) error {
	return s.db.Write(batch.b, nil)
}

// UndoEntry records the column family, key, and prior value (nil if
// the key didn't previously exist) needed to reverse a single write,
// used by the chain manager to roll back a block's UTXO mutations on
// reorg.
type UndoEntry struct {
	CF       ColumnFamily
	Key      []byte
	WasSet   bool
	PrevData []byte
}

// ApplyWithUndo commits batch atomically and returns the undo log
// needed to reverse it, captured by reading the pre-batch value of
// every touched key before Apply runs.
func (s *Store) ApplyWithUndo(cf ColumnFamily, ops []UndoableOp) ([]UndoEntry, error) {
	undo := make([]UndoEntry, 0, len(ops))
	batch := s.NewBatch()

	for _, op := range ops {
		prev, err := s.Get(op.CF, op.Key)
		switch err {
		case nil:
			undo = append(undo, UndoEntry{CF: op.CF, Key: op.Key, WasSet: true, PrevData: prev})
		case ErrNotFound:
			undo = append(undo, UndoEntry{CF: op.CF, Key: op.Key, WasSet: false})
		default:
			return nil, err
		}

		if op.Delete {
			batch.Delete(op.CF, op.Key)
		} else {
			batch.Put(op.CF, op.Key, op.Value)
		}
	}

	if err := s.Apply(batch); err != nil {
		return nil, err
	}
	return undo, nil
}

// UndoableOp is a single put or delete to be applied with undo
// tracking.
type UndoableOp struct {
	CF     ColumnFamily
	Key    []byte
	Value  []byte
	Delete bool
}

// Undo reverses a previously captured undo log, restoring each key to
// its pre-batch state.
func (s *Store) Undo(entries []UndoEntry) error {
	batch := s.NewBatch()
	for _, e := range entries {
		if e.WasSet {
			batch.Put(e.CF, e.Key, e.PrevData)
		} else {
			batch.Delete(e.CF, e.Key)
		}
	}
	return s.Apply(batch)
}
