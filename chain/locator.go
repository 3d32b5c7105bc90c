package chain

import (
	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
)

// BlockLocator is an ordered list of block hashes used to efficiently
// find a fork point with a peer during headers-first sync, per
// spec.md §4.7: the tip, then ancestors at gaps that double from 1
// (tip-1, tip-3, tip-7, ...), always ending at genesis. Grounded on
// blockdag's BlockLocator/blockLocator.
type BlockLocator []chainhash.Hash

// LatestBlockLocator returns a locator for the current best tip.
func (m *Manager) LatestBlockLocator() BlockLocator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blockLocator(m.tip)
}

func (m *Manager) blockLocator(node *blockNode) BlockLocator {
	if node == nil {
		return nil
	}
	locator := make(BlockLocator, 0, 32)
	step := uint32(1)
	for {
		locator = append(locator, node.Hash)
		if node.Height == 0 {
			break
		}
		height := uint32(0)
		if node.Height > step {
			height = node.Height - step
		}
		node = node.ancestorAt(height)
		if node == nil {
			break
		}
		step *= 2
	}
	return locator
}

// LocateHeaders finds the most recent hash in locator that this manager
// recognizes (walking the caller's most-recent-first order) and returns
// up to maxHeaders headers immediately following it on the best chain,
// stopping early at hashStop if non-zero. Used to answer a peer's
// getheaders request during headers-first sync.
func (m *Manager) LocateHeaders(locator BlockLocator, hashStop chainhash.Hash, maxHeaders int) []domain.BlockHeader {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := m.genesis
	for _, hash := range locator {
		if node, ok := m.index[hash]; ok && m.isOnBestChain(node) {
			start = node
			break
		}
	}

	headers := make([]domain.BlockHeader, 0, maxHeaders)
	for height := start.Height + 1; len(headers) < maxHeaders; height++ {
		node := m.tip.ancestorAt(height)
		if node == nil {
			break
		}
		headers = append(headers, node.Header)
		if node.Hash == hashStop {
			break
		}
	}
	return headers
}

// isOnBestChain reports whether node lies on the path from genesis to
// the current tip. Must be called with m.mu held.
func (m *Manager) isOnBestChain(node *blockNode) bool {
	return m.tip.ancestorAt(node.Height) != nil && m.tip.ancestorAt(node.Height).Hash == node.Hash
}
