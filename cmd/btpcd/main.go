// btpcd is BTPC's node daemon: a thin wrapper that parses
// configuration, assembles a node.Node, brings it up in the order
// node/lifecycle.go's Start specifies, and blocks until an interrupt
// signal requests an orderly Stop. Grounded on kaspad.go's
// newKaspad/start/stop wiring and its package main entrypoint, adapted
// from the source binary's DAG/mempool/netAdapter/connectionManager/
// rpcServer quintet to a single node.New call.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Shion-Kamoto/BTPC-sub008/logger"
	"github.com/Shion-Kamoto/BTPC-sub008/node"
)

var btpcdLog = logger.BTPCLog

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %s\n", err)
		return 1
	}

	n, err := node.New(node.Config{
		DataDir:        cfg.DataDir,
		Params:         cfg.netParams,
		ListenAddr:     cfg.Listen,
		EnableP2P:      !cfg.NoP2P,
		EnableMining:   len(cfg.minerPublicKey) > 0,
		MinerPublicKey: cfg.minerPublicKey,
		MinerWorkers:   cfg.MinerWorkers,
	})
	if err != nil {
		btpcdLog.Errorf("unable to assemble node: %v", err)
		return 1
	}

	if err := n.Start(); err != nil {
		btpcdLog.Errorf("unable to start node: %v", err)
		return 1
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	sig := <-interrupt
	btpcdLog.Infof("received %s, shutting down", sig)

	if err := n.Stop(); err != nil {
		btpcdLog.Errorf("error during shutdown: %v", err)
		return 1
	}
	return 0
}
