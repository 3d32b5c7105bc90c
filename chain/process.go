package chain

import (
	"github.com/pkg/errors"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/consensus"
	"github.com/Shion-Kamoto/BTPC-sub008/crypto"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/eventbus"
	"github.com/Shion-Kamoto/BTPC-sub008/logger"
	"github.com/Shion-Kamoto/BTPC-sub008/storage"
)

// ProcessBlock is the main entry point for inserting a newly received
// block into the chain: full structural and header validation, then
// either a direct tip extension or a reorganization onto a
// higher-cumulative-work side branch, per spec.md §4.4. Grounded on
// blockdag/process.go's ProcessBlock, generalized from the DAG's
// orphan/delayed-block handling down to BTPC's simpler model: headers-
// first sync means a block's parent is always already known by the
// time its body arrives, so an unknown parent is a rule violation
// rather than something to buffer.
func (m *Manager) ProcessBlock(block *domain.Block, networkAdjustedTime uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := block.BlockHash()
	if _, exists := m.index[hash]; exists {
		return consensus.RuleError{ErrorCode: consensus.ErrDuplicateBlock, Description: "already have block " + hash.String()}
	}

	if err := consensus.CheckBlockStructure(block); err != nil {
		return err
	}

	parent, ok := m.index[block.Header.PrevHash]
	if !ok {
		return consensus.RuleError{ErrorCode: consensus.ErrMissingParent, Description: "block's previous hash is not a known header"}
	}

	expectedBits := consensus.RequiredDifficulty(nodeTimeSource{tip: parent}, m.params)
	if block.Header.Bits != expectedBits {
		return consensus.RuleError{ErrorCode: consensus.ErrUnexpectedDifficulty, Description: "block bits do not match the required difficulty"}
	}
	if err := consensus.CheckProofOfWork(&block.Header, m.params); err != nil {
		return err
	}
	if err := consensus.CheckBlockTimestamp(block.Header.Timestamp, nodeTimeSource{tip: parent}, networkAdjustedTime); err != nil {
		return err
	}

	node := newBlockNode(block.Header, parent)

	// Body validation is UTXO-state-dependent and the current UTXO set
	// only reflects the tip, not an arbitrary side-branch parent, so it
	// runs here only when parent is the tip; side-branch blocks are
	// validated by reorganize once m.utxos holds their parent's state.
	if parent.Hash == m.tip.Hash {
		if err := m.validateBlockBody(block, node); err != nil {
			return err
		}
	}

	m.index[hash] = node
	if err := m.storeHeaderAndBody(node, block); err != nil {
		delete(m.index, hash)
		return err
	}

	switch {
	case parent.Hash == m.tip.Hash:
		return m.extendTip(node, block)
	case node.Work.Cmp(m.tip.Work) > 0:
		return m.reorganize(node)
	default:
		// A recognized but not best side branch: indexed and stored so a
		// later block extending it can trigger a reorg, but not applied.
		// Its inputs cannot be validated against the current UTXO view
		// (which reflects the best chain, not this branch's parent), so
		// validation is deferred to reorganize's forward replay, which
		// rebuilds the correct state first.
		logger.ChainLog.Debugf("accepted side-branch block %s at height %d (work %s <= tip work %s)",
			hash, node.Height, node.Work, m.tip.Work)
		return nil
	}
}

// validateBlockBody runs the UTXO-dependent checks consensus.CheckBlockStructure
// does not cover: every non-coinbase transaction's inputs must resolve,
// be owned by the spender, and not overspend; every input's ML-DSA
// signature over its signing preimage (including fork_id) must verify;
// and the coinbase must not pay more than the subsidy plus collected
// fees. Callers must ensure m.utxos currently reflects node's parent's
// state before calling this.
func (m *Manager) validateBlockBody(block *domain.Block, node *blockNode) error {
	var totalFees uint64
	var items []crypto.VerificationItem
	for _, tx := range block.Transactions[1:] {
		fee, err := consensus.CheckTransactionInputs(tx, m.utxos)
		if err != nil {
			return err
		}
		totalFees += fee

		for i := range tx.Inputs {
			preimage, err := tx.SigningPreimage(i)
			if err != nil {
				return err
			}
			digest := chainhash.Sum(preimage)
			items = append(items, crypto.VerificationItem{
				PublicKey: tx.Inputs[i].PublicKey,
				Message:   digest[:],
				Signature: tx.Inputs[i].Signature,
			})
		}
	}
	if !crypto.BatchVerify(items) {
		return consensus.RuleError{ErrorCode: consensus.ErrBadSignature, Description: "one or more transaction input signatures failed verification"}
	}

	return consensus.CheckCoinbase(block, uint64(node.Height), totalFees)
}

// extendTip applies block directly on top of the current tip: the
// common case, a block extending the chain everyone already agrees on.
func (m *Manager) extendTip(node *blockNode, block *domain.Block) error {
	if err := m.connectBlock(node, block); err != nil {
		return err
	}
	m.tip = node
	return nil
}

// connectBlock applies block's UTXO effects, capturing the undo
// information needed to later disconnect it, and updates the persisted
// height index and chain tip. Does not move m.tip; callers do that once
// every block on the path being connected has succeeded.
func (m *Manager) connectBlock(node *blockNode, block *domain.Block) error {
	restored := make(map[domain.OutPoint]*domain.UTXO)
	for _, tx := range block.Transactions[1:] {
		for _, in := range tx.Inputs {
			utxo, ok := m.utxos.Get(in.PreviousOutpoint)
			if !ok {
				return errors.Errorf("chain: connecting block %s: input outpoint vanished mid-validation", node.Hash)
			}
			restored[in.PreviousOutpoint] = utxo
		}
	}

	if err := m.utxos.ApplyBlock(block, node.Height); err != nil {
		return errors.Wrap(err, "chain: applying block to UTXO set")
	}

	batch := m.store.NewBatch()
	batch.Put(storage.CFUndo, node.Hash[:], serializeUndoSet(restored))
	batch.Put(storage.CFBlocks, heightIndexKey(node.Height), node.Hash[:])
	batch.Put(storage.CFChainState, chainStateTipKey, node.Hash[:])
	if err := m.store.Apply(batch); err != nil {
		return errors.Wrap(err, "chain: persisting chain state after block connect")
	}

	if m.mempool != nil {
		m.mempool.RemoveMined(block)
	}
	if m.bus != nil {
		m.bus.Publish(eventbus.EventBlockchainBlockAdded, &eventbus.ChainEvent{
			BlockHash: node.Hash.String(),
			Height:    node.Height,
		})
	}
	logger.ChainLog.Infof("connected block %s at height %d", node.Hash, node.Height)
	return nil
}

// disconnectBlock reverses node's UTXO effects using its stored undo
// set and rewinds the persisted tip to node's parent. Does not move
// m.tip; callers do that once the whole disconnect sequence completes.
func (m *Manager) disconnectBlock(node *blockNode, block *domain.Block) error {
	raw, err := m.store.Get(storage.CFUndo, node.Hash[:])
	if err != nil {
		return errors.Wrapf(err, "chain: loading undo set for block %s", node.Hash)
	}
	restored, err := deserializeUndoSet(raw)
	if err != nil {
		return errors.Wrapf(err, "chain: decoding undo set for block %s", node.Hash)
	}

	parentHeight := uint32(0)
	parentHash := chainhash.Hash{}
	if node.Parent != nil {
		parentHeight = node.Parent.Height
		parentHash = node.Parent.Hash
	}

	if err := m.utxos.UndoBlock(block, parentHeight, restored); err != nil {
		return errors.Wrap(err, "chain: undoing block against UTXO set")
	}

	batch := m.store.NewBatch()
	batch.Delete(storage.CFUndo, node.Hash[:])
	batch.Delete(storage.CFBlocks, heightIndexKey(node.Height))
	batch.Put(storage.CFChainState, chainStateTipKey, parentHash[:])
	if err := m.store.Apply(batch); err != nil {
		return errors.Wrap(err, "chain: persisting chain state after block disconnect")
	}

	var disconnected []string
	for _, tx := range block.Transactions[1:] {
		disconnected = append(disconnected, tx.TxID().String())
	}
	if m.bus != nil {
		m.bus.Publish(eventbus.EventBlockchainBlockDisconnected, &eventbus.ChainEvent{
			BlockHash:        node.Hash.String(),
			Height:           node.Height,
			DisconnectedTxID: disconnected,
		})
	}
	logger.ChainLog.Infof("disconnected block %s from height %d", node.Hash, node.Height)
	return nil
}

// reorganize switches the best chain from m.tip to newTip: find their
// common ancestor, undo every block back to it (tip to ancestor, most
// recent first), then connect every block of the new branch forward
// (ancestor to newTip, oldest first), validating each as it is
// connected. Per spec.md §4.4: "perform reorganization: find the common
// ancestor, undo blocks back to it (in reverse order), apply the new
// branch forward (each validated, atomic)."
func (m *Manager) reorganize(newTip *blockNode) error {
	ancestor := commonAncestor(m.tip, newTip)

	var toDisconnect []*blockNode
	for n := m.tip; n != ancestor; n = n.Parent {
		toDisconnect = append(toDisconnect, n)
	}
	var toConnect []*blockNode
	for n := newTip; n != ancestor; n = n.Parent {
		toConnect = append([]*blockNode{n}, toConnect...)
	}

	for _, n := range toDisconnect {
		block, err := m.BlockByHash(n.Hash)
		if err != nil {
			return errors.Wrapf(err, "chain: loading block %s to disconnect", n.Hash)
		}
		if err := m.disconnectBlock(n, block); err != nil {
			return err
		}
	}

	for _, n := range toConnect {
		block, err := m.BlockByHash(n.Hash)
		if err != nil {
			return errors.Wrapf(err, "chain: loading block %s to connect", n.Hash)
		}
		if err := m.validateBlockBody(block, n); err != nil {
			return errors.Wrapf(err, "chain: re-validating side-branch block %s", n.Hash)
		}
		if err := m.connectBlock(n, block); err != nil {
			return err
		}
	}

	m.tip = newTip
	logger.ChainLog.Infof("reorganized to new tip %s at height %d", newTip.Hash, newTip.Height)
	return nil
}

// commonAncestor returns the most recent blockNode reachable from both
// a and b by following Parent pointers.
func commonAncestor(a, b *blockNode) *blockNode {
	for a.Height > b.Height {
		a = a.Parent
	}
	for b.Height > a.Height {
		b = b.Parent
	}
	for a != b {
		a = a.Parent
		b = b.Parent
	}
	return a
}

// storeHeaderAndBody persists a newly validated block's header and body
// ahead of the connect/reorg decision, so a side branch is durable even
// though it is not (yet, or ever) part of the best chain.
func (m *Manager) storeHeaderAndBody(node *blockNode, block *domain.Block) error {
	batch := m.store.NewBatch()
	batch.Put(storage.CFHeaders, node.Hash[:], block.Header.Bytes())
	batch.Put(storage.CFBlocks, node.Hash[:], block.Bytes())
	return errors.Wrap(m.store.Apply(batch), "chain: persisting header and body")
}
