package node

import (
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/Shion-Kamoto/BTPC-sub008/eventbus"
	"github.com/Shion-Kamoto/BTPC-sub008/logger"
)

// shutdownBudget is the overall wall-clock target for Stop, per
// spec.md §4.11's ordered-shutdown bound. Each step's elapsed time is
// published via EventNodeShutdownProgress so a caller can log when a
// step runs long; Stop itself does not forcibly cut a slow step short.
const shutdownBudget = 30 * time.Second

// snapshotFileName is the mempool persistence file named in spec.md
// §6: "<data_dir>/<network>/mempool.snapshot".
const snapshotFileName = "mempool.snapshot"

func (n *Node) snapshotPath() string {
	return filepath.Join(n.cfg.DataDir, snapshotFileName)
}

// Start brings the node's background activity up in the order spec.md
// §4.11 specifies: storage and chain reconstruction already happened
// in New (loadIndex/bootstrapGenesis); here the remaining steps run --
// mempool restore, the UTXO reservation sweep, P2P, and an optional
// miner. Grounded on kaspad.start's ordered bring-up (network adapter,
// DNS seed, connection manager, RPC server).
func (n *Node) Start() error {
	if !atomic.CompareAndSwapInt32(&n.started, 0, 1) {
		return nil
	}

	if err := n.pool.LoadSnapshot(n.snapshotPath()); err != nil {
		logger.BTPCLog.Warnf("mempool snapshot restore failed, starting with an empty pool: %v", err)
	}

	n.sweeper = n.utxos.RunSweepLoop(n.bus)

	if n.p2p != nil {
		if n.cfg.ListenAddr != "" {
			if err := n.p2p.Listen(n.cfg.ListenAddr); err != nil {
				return err
			}
		}
		n.syncStop = make(chan struct{})
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.p2p.StartSync(n.syncStop)
		}()
	}

	if n.miner != nil {
		n.miner.Start()
	}

	n.bus.Publish(eventbus.EventNodeInitialized, &eventbus.NodeEvent{Step: "start", Detail: "node started"})
	logger.BTPCLog.Infof("node started (network=%s)", n.cfg.Params.Name)
	return nil
}

// Stop tears the node down in this order, each step budgeted per
// spec.md §4.11: stop the miner (<=5s), close
// P2P (<=5s), persist the mempool snapshot (<=10s), release the
// reservation sweeper, flush storage. No step's failure blocks the
// next -- a stuck miner or a failed snapshot write still lets the node
// reach a clean storage close.
func (n *Node) Stop() error {
	if !atomic.CompareAndSwapInt32(&n.started, 1, 0) {
		return nil
	}

	shutdownStart := time.Now()
	n.bus.Publish(eventbus.EventNodeShutdownStarted, &eventbus.NodeEvent{Step: "shutdown"})

	if n.miner != nil {
		step := time.Now()
		n.miner.Stop()
		n.publishShutdownProgress("miner_stopped", step)
	}

	if n.p2p != nil {
		step := time.Now()
		if n.syncStop != nil {
			close(n.syncStop)
		}
		n.p2p.Shutdown()
		n.wg.Wait()
		n.publishShutdownProgress("p2p_closed", step)
	}

	step := time.Now()
	if err := n.pool.SaveSnapshot(n.snapshotPath()); err != nil {
		logger.BTPCLog.Warnf("mempool snapshot write failed: %v", err)
	}
	n.publishShutdownProgress("mempool_persisted", step)

	if n.sweeper != nil {
		n.sweeper.Stop()
	}

	step = time.Now()
	err := n.store.Close()
	n.publishShutdownProgress("storage_closed", step)

	elapsed := time.Since(shutdownStart)
	n.bus.Publish(eventbus.EventNodeShutdownComplete, &eventbus.NodeEvent{
		Step:    "shutdown_complete",
		Elapsed: elapsed.Seconds(),
	})
	if elapsed > shutdownBudget {
		logger.BTPCLog.Warnf("shutdown took %s, over the %s target", elapsed, shutdownBudget)
	}
	logger.BTPCLog.Infof("node stopped")
	return err
}

func (n *Node) publishShutdownProgress(step string, since time.Time) {
	n.bus.Publish(eventbus.EventNodeShutdownProgress, &eventbus.NodeEvent{
		Step:    step,
		Elapsed: time.Since(since).Seconds(),
	})
}
