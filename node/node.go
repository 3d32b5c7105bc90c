// Package node wires BTPC's storage, UTXO set, mempool, chain manager,
// P2P manager, and optional miner into one process-wide handle, and
// implements the wallet-send path and RPC method set (spec.md §6) as
// direct calls against that handle rather than an inter-process HTTP/
// JSON loopback -- the re-architecture spec.md §9 calls for: "the RPC
// method set becomes an internal trait plus an optional transport
// shim." Grounded on kaspad.go's newKaspad/start/stop wiring, adapted
// from kaspad's DAG/mempool/netAdapter/connectionManager/rpcServer
// quintet to BTPC's chain/mempool/p2p/mining quartet plus an embedded
// wallet component the source binary split into a separate process.
package node

import (
	"sync"

	"github.com/Shion-Kamoto/BTPC-sub008/chain"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/eventbus"
	"github.com/Shion-Kamoto/BTPC-sub008/mempool"
	"github.com/Shion-Kamoto/BTPC-sub008/mining"
	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
	"github.com/Shion-Kamoto/BTPC-sub008/p2p"
	"github.com/Shion-Kamoto/BTPC-sub008/p2p/wire"
	"github.com/Shion-Kamoto/BTPC-sub008/storage"
	"github.com/Shion-Kamoto/BTPC-sub008/utxo"
)

// Config bundles the parameters needed to assemble a Node.
type Config struct {
	DataDir    string
	Params     *netparams.Params
	ListenAddr string // empty disables inbound P2P listening
	EnableP2P  bool

	// Mining, when enabled, starts a Controller against MinerPublicKey
	// once the node is up.
	EnableMining   bool
	MinerPublicKey []byte
	MinerCoinbase  []byte
	MinerWorkers   int
}

// Node is the single process-wide handle every component (wallet, RPC
// dispatch, miner) is built from, replacing the source stack's global
// mutable state (open wallet, current network, active peers) with an
// explicit reference passed around, per spec.md §9.
type Node struct {
	cfg   Config
	bus   *eventbus.Bus
	store *storage.Store
	utxos *utxo.Set
	pool  *mempool.Pool
	chain *chain.Manager
	p2p   *p2p.Manager
	miner *mining.Controller

	sweeper  interface{ Stop() }
	syncStop chan struct{}
	wallets  *walletRegistry

	started int32
	wg      sync.WaitGroup
}

// Bus returns the node's event bus, the one channel every subscriber
// (UI, logger, test harness) observes node activity through.
func (n *Node) Bus() *eventbus.Bus { return n.bus }

// Chain returns the node's chain manager.
func (n *Node) Chain() *chain.Manager { return n.chain }

// Mempool returns the node's transaction pool.
func (n *Node) Mempool() *mempool.Pool { return n.pool }

// UTXOSet returns the node's UTXO set.
func (n *Node) UTXOSet() *utxo.Set { return n.utxos }

// P2P returns the node's peer manager, or nil if P2P was disabled.
func (n *Node) P2P() *p2p.Manager { return n.p2p }

// Params returns the node's network parameters.
func (n *Node) Params() *netparams.Params { return n.cfg.Params }

// New assembles a Node's components without starting any background
// activity; call Start to bring it up per the ordering of §4.11.
func New(cfg Config) (*Node, error) {
	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()
	utxos := utxo.New(store, 0)
	pool := mempool.New(mempool.DefaultConfig(), cfg.Params, utxos, bus)

	chainMgr, err := chain.New(store, cfg.Params, utxos, pool, bus)
	if err != nil {
		return nil, err
	}

	n := &Node{
		cfg:     cfg,
		bus:     bus,
		store:   store,
		utxos:   utxos,
		pool:    pool,
		chain:   chainMgr,
		wallets: newWalletRegistry(),
	}

	if cfg.EnableP2P {
		n.p2p = p2p.NewManager(cfg.Params, chainMgr, pool, bus)
	}

	if cfg.EnableMining {
		n.miner = mining.New(mining.Config{
			Chain:          chainMgr,
			Pool:           pool,
			Submitter:      chainMgr,
			Broadcaster:    n,
			Params:         cfg.Params,
			Bus:            bus,
			MinerPublicKey: cfg.MinerPublicKey,
			CoinbaseData:   cfg.MinerCoinbase,
			Workers:        cfg.MinerWorkers,
		})
	}

	return n, nil
}

// AnnounceBlock implements mining.Broadcaster: it relays a locally
// mined block to connected peers as an inv announcement, the same way
// a block received from one peer is relayed to the rest -- a local
// block earns its place on the chain through ProcessBlock like any
// other, and is announced the same way once accepted.
func (n *Node) AnnounceBlock(block *domain.Block) {
	if n.p2p == nil {
		return
	}
	hash := block.BlockHash()
	n.p2p.Broadcast(&wire.MsgInv{
		InvList: []wire.InvVect{{Type: wire.InvTypeBlock, Hash: hash}},
	})
}
