package consensus

import (
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
)

// UTXOView is the minimal read-only view over the UTXO set that
// transaction validation needs: outpoint lookup and the height of the
// tip the view is built against (for coinbase maturity checks).
type UTXOView interface {
	Get(op domain.OutPoint) (*domain.UTXO, bool)
	TipHeight() uint32
}

// CheckTransactionSanity performs context-free structural checks on a
// transaction, independent of chain state. Grounded on blockdag's
// CheckTransactionSanity in validate.go, generalized from the DAG's
// subnetwork/payload checks to BTPC's single-subnetwork, scriptless
// transaction model.
func CheckTransactionSanity(tx *domain.Transaction, params *netparams.Params) error {
	isCoinbase := tx.IsCoinbase()
	if !isCoinbase && len(tx.Inputs) == 0 {
		return ruleError(ErrNoTxInputs, "transaction has no inputs")
	}
	if len(tx.Outputs) == 0 {
		return ruleError(ErrNoTxOutputs, "transaction has no outputs")
	}

	if tx.ForkID != params.ForkID {
		return ruleError(ErrForkIDMismatch, "transaction fork id does not match network")
	}

	var total uint64
	for _, out := range tx.Outputs {
		newTotal := total + out.Amount
		if newTotal < total {
			return ruleError(ErrBadTxOutValue, "transaction output total overflows")
		}
		total = newTotal
	}

	seen := make(map[domain.OutPoint]struct{}, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if !isCoinbase && in.PreviousOutpoint.IsNull() {
			return ruleError(ErrBadTxInput, "non-coinbase transaction input refers to a null outpoint")
		}
		if _, exists := seen[in.PreviousOutpoint]; exists {
			return ruleError(ErrDuplicateTxInputs, "transaction contains duplicate inputs")
		}
		seen[in.PreviousOutpoint] = struct{}{}
	}

	return nil
}

// CheckBlockStructure performs the context-free structural checks that
// apply to a block before any chain-state-dependent validation: size
// ceiling, exactly one coinbase in the first position, no further
// coinbase transactions, and a matching merkle root.
func CheckBlockStructure(block *domain.Block) error {
	if block.SerializeSize() > domain.MaxBlockSize {
		return ruleError(ErrBlockTooBig, "serialized block exceeds the maximum allowed size")
	}
	if len(block.Transactions) == 0 {
		return ruleError(ErrMissingCoinbase, "block has no transactions")
	}
	if !block.Transactions[0].IsCoinbase() {
		return ruleError(ErrMissingCoinbase, "first transaction in block is not a coinbase")
	}
	for _, tx := range block.Transactions[1:] {
		if tx.IsCoinbase() {
			return ruleError(ErrMultipleCoinbase, "block contains more than one coinbase transaction")
		}
	}
	if block.ComputeMerkleRoot() != block.Header.MerkleRoot {
		return ruleError(ErrBadMerkleRoot, "merkle root does not match block transactions")
	}
	return nil
}

// CheckCoinbase verifies the coinbase transaction's outputs do not pay
// more than the block subsidy plus the sum of input fees.
func CheckCoinbase(block *domain.Block, height uint64, totalFees uint64) error {
	coinbase := block.Coinbase()
	var paidOut uint64
	for _, out := range coinbase.Outputs {
		paidOut += out.Amount
	}
	allowed := BlockSubsidy(height) + totalFees
	if paidOut > allowed {
		return ruleError(ErrBadCoinbaseSubsidy, "coinbase pays more than subsidy plus collected fees")
	}
	return nil
}

// CheckTransactionInputs validates a non-coinbase transaction against
// the supplied UTXO view: every input must resolve to an existing,
// mature output whose address the input's own public key owns, and the
// transaction must not spend more than it receives. A valid signature
// alone (checked separately, see crypto.BatchVerify) only proves the
// signer holds the private half of the key it supplied -- it says
// nothing about whether that key is the one the output was paid to, so
// the address-ownership check here is what actually binds a spend to
// its output's owner. It returns the transaction's fee (inputs minus
// outputs).
func CheckTransactionInputs(tx *domain.Transaction, view UTXOView) (fee uint64, err error) {
	var totalIn uint64
	for _, in := range tx.Inputs {
		utxo, ok := view.Get(in.PreviousOutpoint)
		if !ok {
			return 0, ruleError(ErrMissingTxOut, "transaction spends a nonexistent or already-spent output")
		}
		if !domain.PublicKeyOwnsAddress(in.PublicKey, utxo.Address) {
			return 0, ruleError(ErrUnownedSpend, "input public key does not own the output's address")
		}
		if !utxo.IsMature(view.TipHeight()) {
			return 0, ruleError(ErrImmatureSpend, "transaction spends an immature coinbase output")
		}
		newTotal := totalIn + utxo.Amount
		if newTotal < totalIn {
			return 0, ruleError(ErrSpendTooHigh, "transaction input total overflows")
		}
		totalIn = newTotal
	}

	var totalOut uint64
	for _, out := range tx.Outputs {
		totalOut += out.Amount
	}
	if totalOut > totalIn {
		return 0, ruleError(ErrSpendTooHigh, "transaction spends more than its inputs provide")
	}
	return totalIn - totalOut, nil
}

// CheckBlockHeader runs the header-only checks that don't require the
// full block body: proof of work and timestamp rules.
func CheckBlockHeader(header *domain.BlockHeader, src HeaderTimeSource, params *netparams.Params, networkAdjustedTime uint64) error {
	if err := CheckProofOfWork(header, params); err != nil {
		return err
	}
	expectedBits := RequiredDifficulty(src, params)
	if header.Bits != expectedBits {
		return ruleError(ErrUnexpectedDifficulty, "block bits do not match the required difficulty")
	}
	return CheckBlockTimestamp(header.Timestamp, src, networkAdjustedTime)
}
