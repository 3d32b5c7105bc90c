// Package storage provides the on-disk key-value layer BTPC's chain,
// UTXO set, and mempool restore path are built on. It emulates the
// column-family separation spec.md §4.3 asks for on top of a single
// goleveldb database by namespacing every key with a column-family
// prefix byte, grounded on dbaccess.DatabaseContext's wrapping of
// ldb.NewLevelDB and the LevelDBCursor prefix-iteration idiom in
// database/ffldb/ldb/cursor.go.
package storage

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound is returned when a requested key does not exist in its
// column family.
var ErrNotFound = errors.New("storage: key not found")

// ColumnFamily is a single-byte namespace prefix emulating LevelDB
// column families, per spec.md §4.3.
type ColumnFamily byte

const (
	CFBlocks     ColumnFamily = 0x01
	CFHeaders    ColumnFamily = 0x02
	CFUTXO       ColumnFamily = 0x03
	CFChainState ColumnFamily = 0x04
	CFUndo       ColumnFamily = 0x05
	CFMempool    ColumnFamily = 0x06
	// CFWallets holds embedded-wallet records keyed "wallet:{uuid}" and
	// "wallet:{uuid}:key:{address}", per spec.md §6.
	CFWallets ColumnFamily = 0x07
)

// Store wraps a goleveldb database with column-family namespacing.
// One bloom filter covers the keys of every column family, CF_UTXO's
// included; CF_UTXO is the hottest, point-lookup-heavy column family
// (every transaction input check is a CF_UTXO Get), per spec.md §4.3.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if absent) the LevelDB database at path.
func Open(path string) (*Store, error) {
	opts := &opt.Options{
		Filter: filter.NewBloomFilter(10),
	}
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening storage database at %s", path)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func namespacedKey(cf ColumnFamily, key []byte) []byte {
	out := make([]byte, 1+len(key))
	out[0] = byte(cf)
	copy(out[1:], key)
	return out
}

// Get reads a single value from cf.
func (s *Store) Get(cf ColumnFamily, key []byte) ([]byte, error) {
	val, err := s.db.Get(namespacedKey(cf, key), nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Has reports whether key exists in cf.
func (s *Store) Has(cf ColumnFamily, key []byte) (bool, error) {
	return s.db.Has(namespacedKey(cf, key), nil)
}

// Put writes a single key/value pair to cf outside of a batch.
func (s *Store) Put(cf ColumnFamily, key, value []byte) error {
	return s.db.Put(namespacedKey(cf, key), value, nil)
}

// Delete removes key from cf outside of a batch.
func (s *Store) Delete(cf ColumnFamily, key []byte) error {
	return s.db.Delete(namespacedKey(cf, key), nil)
}

// Cursor iterates every key in cf in ascending key order. Grounded on
// LevelDBCursor's prefix-bound iterator pattern.
type Cursor struct {
	it     iterator.Iterator
	prefix []byte
}

// NewCursor opens a cursor over every key in cf.
func (s *Store) NewCursor(cf ColumnFamily) *Cursor {
	prefix := []byte{byte(cf)}
	return &Cursor{it: s.db.NewIterator(util.BytesPrefix(prefix), nil), prefix: prefix}
}

func (c *Cursor) Next() bool { return c.it.Next() }
func (c *Cursor) First() bool { return c.it.First() }

func (c *Cursor) Key() []byte {
	return bytes.TrimPrefix(c.it.Key(), c.prefix)
}

func (c *Cursor) Value() []byte { return c.it.Value() }

func (c *Cursor) Release() { c.it.Release() }
