package chain

import (
	"math/big"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/consensus"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
)

// blockNode is the chain manager's in-memory representation of a single
// block's position in the tree of known headers: single previous-hash
// link (BTPC has one chain, not a DAG of parents), height, and
// cumulative work up to and including this node, per spec.md §3's
// ChainTip (best_hash, height, cumulative_work). Grounded on
// blockdag/blocknode.go, generalized from a DAG blockNode's multiple
// parents/selectedParent down to a single Parent pointer.
type blockNode struct {
	Hash   chainhash.Hash
	Header domain.BlockHeader
	Height uint32
	Parent *blockNode
	Work   *big.Int // cumulative work of the chain ending at this node
}

// newBlockNode builds the node for header, extending parent (nil only
// for genesis).
func newBlockNode(header domain.BlockHeader, parent *blockNode) *blockNode {
	work := consensus.BlockProof(header.Bits)
	height := uint32(0)
	if parent != nil {
		height = parent.Height + 1
		work = new(big.Int).Add(parent.Work, work)
	}
	return &blockNode{
		Hash:   header.BlockHash(),
		Header: header,
		Height: height,
		Parent: parent,
		Work:   work,
	}
}

// ancestorAt walks parent pointers back to the node at height, or nil if
// height is past the node's own height or negative.
func (n *blockNode) ancestorAt(height uint32) *blockNode {
	if n == nil || height > n.Height {
		return nil
	}
	cur := n
	for cur.Height > height {
		cur = cur.Parent
	}
	return cur
}
