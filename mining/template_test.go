package mining

import (
	"testing"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/consensus"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
)

type fakeChain struct {
	tipHash   chainhash.Hash
	tipHeight uint32
	bits      uint32
}

func (f *fakeChain) TipHash() chainhash.Hash    { return f.tipHash }
func (f *fakeChain) TipHeight() uint32          { return f.tipHeight }
func (f *fakeChain) RequiredDifficulty() uint32 { return f.bits }

type fakePool struct {
	txs  []*domain.Transaction
	fees uint64
}

func (f *fakePool) AssembleTemplate(maxSize int64) ([]*domain.Transaction, uint64) {
	return f.txs, f.fees
}

func TestBuildTemplateProducesValidCoinbase(t *testing.T) {
	chainMgr := &fakeChain{tipHash: chainhash.Hash{1, 2, 3}, tipHeight: 41, bits: netparams.RegtestParams.PowLimitBits}
	pool := &fakePool{fees: 500}
	pubKey := []byte("miner-public-key")

	tpl := BuildTemplate(chainMgr, pool, netparams.RegtestParams, pubKey, []byte("stratum"))

	if tpl.Height != 42 {
		t.Fatalf("Height = %d, want 42", tpl.Height)
	}
	if tpl.ParentHash != chainMgr.tipHash {
		t.Fatal("ParentHash should match the chain's current tip")
	}
	if len(tpl.Block.Transactions) != 1 {
		t.Fatalf("expected only the coinbase transaction, got %d", len(tpl.Block.Transactions))
	}
	coinbase := tpl.Block.Transactions[0]
	if !coinbase.IsCoinbase() {
		t.Fatal("first transaction must be a coinbase")
	}
	wantReward := consensus.BlockSubsidy(42) + 500
	if coinbase.Outputs[0].Amount != wantReward {
		t.Fatalf("coinbase reward = %d, want %d", coinbase.Outputs[0].Amount, wantReward)
	}
	if tpl.Block.Header.MerkleRoot != tpl.Block.ComputeMerkleRoot() {
		t.Fatal("template header merkle root must match its transactions")
	}
}

func TestTemplateStaleAfterTipMoves(t *testing.T) {
	chainMgr := &fakeChain{tipHash: chainhash.Hash{9}, tipHeight: 10, bits: netparams.RegtestParams.PowLimitBits}
	tpl := BuildTemplate(chainMgr, &fakePool{}, netparams.RegtestParams, []byte("k"), nil)

	if tpl.Stale(chainMgr) {
		t.Fatal("freshly built template should not be stale against its own parent")
	}

	chainMgr.tipHash = chainhash.Hash{10}
	if !tpl.Stale(chainMgr) {
		t.Fatal("template should be stale once the chain tip advances")
	}
}
