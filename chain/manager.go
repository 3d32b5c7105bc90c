// Package chain implements BTPC's chain manager: best-tip selection,
// block application/undo against the UTXO set, and chain
// reorganization, per spec.md §3/§4.4. Grounded on blockdag/dag.go and
// blockdag/process.go, generalized from a GHOSTDAG blue-score DAG down
// to a single best chain ranked purely by cumulative proof-of-work.
package chain

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/consensus"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/eventbus"
	"github.com/Shion-Kamoto/BTPC-sub008/logger"
	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
	"github.com/Shion-Kamoto/BTPC-sub008/storage"
)

// chainStateTipKey is the CF_CHAIN_STATE key holding the current best
// tip's block hash, per spec.md §4.3's CF_METADATA "chain_tip" entry.
var chainStateTipKey = []byte("tip")

// UTXOApplier is the subset of utxo.Set the chain manager drives: block
// apply/undo and the tip-height bookkeeping those checks depend on.
// Matching against an interface (rather than importing package utxo
// directly) keeps chain's dependency surface to what it actually calls.
type UTXOApplier interface {
	Get(op domain.OutPoint) (*domain.UTXO, bool)
	TipHeight() uint32
	SetTipHeight(height uint32)
	ApplyBlock(block *domain.Block, height uint32) error
	UndoBlock(block *domain.Block, newTipHeight uint32, restored map[domain.OutPoint]*domain.UTXO) error
}

// MempoolPruner is the subset of mempool.Pool the chain manager needs:
// dropping newly confirmed transactions after a block is applied.
type MempoolPruner interface {
	RemoveMined(block *domain.Block)
}

// Manager owns the best-tip selection and block-application pipeline.
// Block application is serialized by mu, BTPC's single chain-manager
// write lock, per spec.md §5's "chain-manager -> storage -> UTXO ->
// mempool" lock order: Manager takes mu, then calls into storage and
// utxos (which take their own locks) while still holding it.
type Manager struct {
	store   *storage.Store
	utxos   UTXOApplier
	mempool MempoolPruner
	bus     *eventbus.Bus
	params  *netparams.Params

	mu      sync.RWMutex
	index   map[chainhash.Hash]*blockNode
	tip     *blockNode
	genesis *blockNode
}

// New creates a chain manager over store, restoring the header index
// and best tip from CF_HEADERS/CF_CHAIN_STATE if present, or
// bootstrapping from params.GenesisBlock on a fresh store.
func New(store *storage.Store, params *netparams.Params, utxos UTXOApplier, pool MempoolPruner, bus *eventbus.Bus) (*Manager, error) {
	m := &Manager{
		store:   store,
		utxos:   utxos,
		mempool: pool,
		bus:     bus,
		params:  params,
		index:   make(map[chainhash.Hash]*blockNode),
	}

	if err := m.loadIndex(); err != nil {
		return nil, err
	}

	if m.tip == nil {
		if err := m.bootstrapGenesis(); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// loadIndex rebuilds the in-memory header index from CF_HEADERS,
// linking each node to its already-seen parent, and restores the tip
// pointer from CF_CHAIN_STATE's tip key. Stored headers are attached
// in repeated passes, each pass indexing every header whose parent is
// already indexed, so a parent is always linked before its child.
func (m *Manager) loadIndex() error {
	cur := m.store.NewCursor(storage.CFHeaders)
	defer cur.Release()

	headers := make(map[chainhash.Hash]domain.BlockHeader)
	for ok := cur.First(); ok; ok = cur.Next() {
		var hash chainhash.Hash
		copy(hash[:], cur.Key())
		header, err := domain.DeserializeHeader(bytes.NewReader(cur.Value()))
		if err != nil {
			return errors.Wrap(err, "chain: decoding stored header")
		}
		headers[hash] = *header
	}
	if len(headers) == 0 {
		return nil
	}

	// Repeatedly pass over the remaining headers, attaching every node
	// whose parent is already indexed, until no more progress is made.
	// Avoids requiring a separate height-ordered index just to
	// topologically sort what is, in steady state, a small delta since
	// the last restart.
	for len(headers) > 0 {
		progressed := false
		for hash, header := range headers {
			if header.PrevHash == chainhash.ZeroHash {
				m.index[hash] = newBlockNode(header, nil)
				m.genesis = m.index[hash]
				delete(headers, hash)
				progressed = true
				continue
			}
			if parent, ok := m.index[header.PrevHash]; ok {
				m.index[hash] = newBlockNode(header, parent)
				delete(headers, hash)
				progressed = true
			}
		}
		if !progressed {
			return errors.New("chain: stored headers contain a gap (missing parent)")
		}
	}

	tipHashBytes, err := m.store.Get(storage.CFChainState, chainStateTipKey)
	if err == storage.ErrNotFound {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "chain: reading stored chain tip")
	}
	var tipHash chainhash.Hash
	copy(tipHash[:], tipHashBytes)
	node, ok := m.index[tipHash]
	if !ok {
		return errors.New("chain: stored chain tip references an unknown header")
	}
	m.tip = node
	return nil
}

// bootstrapGenesis indexes and persists params.GenesisBlock as height 0
// on a store with no prior chain state.
func (m *Manager) bootstrapGenesis() error {
	genesis := m.params.GenesisBlock
	node := newBlockNode(genesis.Header, nil)
	m.index[node.Hash] = node
	m.genesis = node
	m.tip = node

	batch := m.store.NewBatch()
	batch.Put(storage.CFHeaders, node.Hash[:], genesis.Header.Bytes())
	batch.Put(storage.CFBlocks, node.Hash[:], genesis.Bytes())
	batch.Put(storage.CFBlocks, heightIndexKey(0), node.Hash[:])
	batch.Put(storage.CFChainState, chainStateTipKey, node.Hash[:])
	if err := m.store.Apply(batch); err != nil {
		return errors.Wrap(err, "chain: persisting genesis block")
	}
	m.utxos.SetTipHeight(0)
	logger.ChainLog.Infof("bootstrapped genesis block %s", node.Hash)
	return nil
}

func heightIndexKey(height uint32) []byte {
	key := make([]byte, 5)
	key[0] = 0xff
	binary.BigEndian.PutUint32(key[1:], height)
	return key
}

// Tip returns the current best tip's hash, height and cumulative work.
func (m *Manager) Tip() (hash chainhash.Hash, height uint32, work string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tip.Hash, m.tip.Height, m.tip.Work.String()
}

// TipHeight returns the current best tip's height.
func (m *Manager) TipHeight() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tip.Height
}

// TipHash returns the current best tip's block hash.
func (m *Manager) TipHash() chainhash.Hash {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tip.Hash
}

// HaveBlock reports whether hash is already indexed, regardless of
// whether it lies on the best chain.
func (m *Manager) HaveBlock(hash chainhash.Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.index[hash]
	return ok
}

// HeaderByHash returns the header for hash, if indexed.
func (m *Manager) HeaderByHash(hash chainhash.Hash) (domain.BlockHeader, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, ok := m.index[hash]
	if !ok {
		return domain.BlockHeader{}, false
	}
	return node.Header, true
}

// HeightByHash returns the indexed height of hash, if indexed.
func (m *Manager) HeightByHash(hash chainhash.Hash) (uint32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, ok := m.index[hash]
	if !ok {
		return 0, false
	}
	return node.Height, true
}

// BlockByHash loads the full block body for hash from CF_BLOCKS.
func (m *Manager) BlockByHash(hash chainhash.Hash) (*domain.Block, error) {
	raw, err := m.store.Get(storage.CFBlocks, hash[:])
	if err != nil {
		return nil, err
	}
	return domain.DeserializeBlock(bytes.NewReader(raw))
}

// HashAtHeight returns the best chain's block hash at height.
func (m *Manager) HashAtHeight(height uint32) (chainhash.Hash, error) {
	raw, err := m.store.Get(storage.CFBlocks, heightIndexKey(height))
	if err != nil {
		return chainhash.Hash{}, err
	}
	var hash chainhash.Hash
	copy(hash[:], raw)
	return hash, nil
}

// RequiredDifficulty returns the bits the next block built on the
// current best tip must carry.
func (m *Manager) RequiredDifficulty() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return consensus.RequiredDifficulty(nodeTimeSource{tip: m.tip}, m.params)
}
