package mining

import (
	"time"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/consensus"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
)

// maxBlockTemplateSize leaves headroom under domain.MaxBlockSize for
// the header and coinbase once the pooled transactions are selected.
const maxBlockTemplateSize = domain.MaxBlockSize - 4096

// Template is a candidate block body plus the metadata a worker needs
// to search for a valid nonce and the controller needs to detect
// staleness, per spec.md §4.9's "template cache refreshed on new tip
// or every 30 seconds".
type Template struct {
	Block      *domain.Block
	Height     uint64
	ParentHash chainhash.Hash
	Target     uint32
	CreatedAt  time.Time
}

// BlockAssembler is the subset of chain.Manager a template build reads
// chain tip state from.
type BlockAssembler interface {
	TipHash() chainhash.Hash
	TipHeight() uint32
	RequiredDifficulty() uint32
}

// TxPool is the subset of mempool.Pool a template build draws
// candidate transactions from.
type TxPool interface {
	AssembleTemplate(maxSize int64) (txs []*domain.Transaction, totalFees uint64)
}

// BuildTemplate assembles a new candidate block extending chainMgr's
// current tip: pooled transactions selected by AssembleTemplate,
// prepended with a coinbase paying minerPublicKey the block subsidy
// plus collected fees, per spec.md §4.6 ("include coinbase output
// address from the miner"). Grounded on mining/mining.go's
// NewBlockTemplate assembly order (select transactions, then build and
// prepend the coinbase, then compute the merkle root), adapted from
// btcd's script-based coinbase to BTPC's scriptless
// public-key-hash address model.
func BuildTemplate(chainMgr BlockAssembler, pool TxPool, params *netparams.Params, minerPublicKey []byte, coinbaseData []byte) *Template {
	parentHash := chainMgr.TipHash()
	height := uint64(chainMgr.TipHeight()) + 1
	bits := chainMgr.RequiredDifficulty()

	txs, totalFees := pool.AssembleTemplate(maxBlockTemplateSize)

	if len(coinbaseData) > domain.MaxCoinbaseDataLen {
		coinbaseData = coinbaseData[:domain.MaxCoinbaseDataLen]
	}
	reward := consensus.BlockSubsidy(height) + totalFees
	coinbase := &domain.Transaction{
		Version: 1,
		Inputs: []*domain.TransactionInput{
			{PreviousOutpoint: domain.NullOutPoint, PublicKey: coinbaseData},
		},
		Outputs: []*domain.TransactionOutput{
			{Amount: reward, Address: domain.AddressBytes(minerPublicKey, params.AddressPrefix)},
		},
		LockTime: 0,
		ForkID:   params.ForkID,
	}

	block := &domain.Block{
		Transactions: append([]*domain.Transaction{coinbase}, txs...),
	}
	block.Header = domain.BlockHeader{
		Version:    1,
		PrevHash:   parentHash,
		MerkleRoot: block.ComputeMerkleRoot(),
		Timestamp:  uint64(time.Now().Unix()),
		Bits:       bits,
		Nonce:      0,
	}

	return &Template{
		Block:      block,
		Height:     height,
		ParentHash: parentHash,
		Target:     bits,
		CreatedAt:  time.Now(),
	}
}

// Stale reports whether the template no longer extends chainMgr's
// current tip, the signal to rebuild rather than keep searching.
func (t *Template) Stale(chainMgr BlockAssembler) bool {
	return t.ParentHash != chainMgr.TipHash()
}
