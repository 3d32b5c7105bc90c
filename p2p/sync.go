package p2p

import (
	"time"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/logger"
	"github.com/Shion-Kamoto/BTPC-sub008/p2p/wire"
)

// syncPollInterval is how often StartSync requests a fresh getheaders
// round from a connected peer while the local tip is behind.
const syncPollInterval = 10 * time.Second

// StartSync runs headers-first synchronization until stop is closed,
// per spec.md §4.7: request headers from a connected peer using the
// local best-chain locator, let onHeaders (peer.go/server.go) issue
// getdata for any bodies it doesn't already have, and repeat. There is
// no separate peer-scoring selection step here beyond "pick any
// connected peer" since Manager.Broadcast already fans getheaders out
// to everyone and the first peer to answer wins the race -- headers
// are self-validating (PoW + continuity, enforced in
// chain.Manager.ProcessBlock) so a slow or wrong peer simply loses
// that race rather than corrupting the result.
func (m *Manager) StartSync(stop <-chan struct{}) {
	ticker := time.NewTicker(syncPollInterval)
	defer ticker.Stop()

	m.requestHeaders()
	for {
		select {
		case <-ticker.C:
			m.requestHeaders()
		case <-stop:
			return
		}
	}
}

func (m *Manager) requestHeaders() {
	if m.PeerCount() == 0 {
		return
	}
	locator := m.chain.LatestBlockLocator()
	req := &wire.MsgGetHeaders{
		ProtocolVersion:    wire.ProtocolVersion,
		BlockLocatorHashes: []chainhash.Hash(locator),
		HashStop:           chainhash.Hash{},
	}
	m.Broadcast(req)
	logger.P2PLog.Debugf("requested headers from %d peers at tip height %d", m.PeerCount(), m.chain.TipHeight())
}
